// Package eventstore provides the storage abstractions shared by the ledger engines.
//
// An event store here is an append-only sequence of StorableEvent values. Each event gets a
// monotonically increasing sequence number on append. Readers select events with a Filter built
// from event types and JSON payload predicates:
//
//	filter := eventstore.BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(core.BookLoanedEventType).
//		AndAllPredicatesOf(eventstore.P("ISBN", isbn)).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	err = store.Append(ctx, filter, maxSeq, newEvent)
//
// Append fails with ErrConcurrencyConflict when the events matching the filter have changed since
// the Query that produced maxSeq.
//
// Implementations live in the memoryengine and sqliteengine subpackages.
package eventstore
