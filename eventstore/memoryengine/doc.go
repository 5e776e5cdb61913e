// Package memoryengine provides an in-process implementation of the eventstore contract.
//
// Events live in a slice guarded by a mutex and vanish with the process. Filters are evaluated
// against the JSON payload with json-iterator, so predicates behave like the SQL engines' JSON
// containment checks: a predicate matches when the top-level payload key holds exactly the
// given string.
//
// Usage:
//
//	store, _ := memoryengine.NewEventStore(memoryengine.WithLogger(logger))
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
package memoryengine
