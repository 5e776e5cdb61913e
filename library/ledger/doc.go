// Package ledger is the append-only record of loans and returns.
//
// Every entry is a domain event written through an eventstore engine. Appends for one isbn are
// guarded by the engine's optimistic concurrency check, scoped to that isbn's events.
package ledger
