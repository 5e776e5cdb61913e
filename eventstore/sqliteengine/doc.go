// Package sqliteengine provides a SQLite implementation of the eventstore contract.
//
// It uses the pure-Go modernc.org/sqlite driver through sqlx and builds its SQL with goqu's sqlite3
// dialect. JSON predicates are evaluated with SQLite's json_extract. The usual setup is an
// in-memory database that lives exactly as long as the process:
//
//	store, _ := sqliteengine.NewInMemoryEventStore(ctx, sqliteengine.WithLogger(logger))
//	defer store.Close()
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
//
// Appends run inside a transaction that re-reads the filter's max sequence number, so a stale
// expectation fails with eventstore.ErrConcurrencyConflict.
package sqliteengine
