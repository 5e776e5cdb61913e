// Package contract holds the behavior every eventstore engine must show, run from each engine's tests.
package contract

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lendingdesk/eventstore"
)

// EventStore is the engine surface under test.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		event eventstore.StorableEvent,
		additionalEvents ...eventstore.StorableEvent,
	) error
}

// Factory returns a fresh, empty engine.
type Factory func(t *testing.T) EventStore

// Run executes the shared engine contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("empty store returns no events and max sequence zero", func(t *testing.T) {
		es := newStore(t)

		events, maxSeq, err := es.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())

		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Equal(t, uint(0), maxSeq)
	})

	t.Run("appended events come back in order with sequence numbers", func(t *testing.T) {
		ctx := context.Background()
		es := newStore(t)
		all := eventstore.BuildEventFilter().MatchingAnyEvent()

		require.NoError(t, es.Append(ctx, all, 0, givenEvent(t, "BookLoaned", "9780000000001", "Ana", 1)))
		require.NoError(t, es.Append(ctx, all, 1,
			givenEvent(t, "BookReturned", "9780000000001", "Ana", 2),
			givenEvent(t, "BookLoaned", "9780000000001", "Bia", 3),
		))

		events, maxSeq, err := es.Query(ctx, all)

		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, uint(3), maxSeq)
		assert.Equal(t, "BookLoaned", events[0].EventType)
		assert.Equal(t, "BookReturned", events[1].EventType)
		assert.Equal(t, uint(1), events[0].SequenceNumber)
		assert.Equal(t, uint(3), events[2].SequenceNumber)
		assert.True(t, events[0].OccurredAt.Equal(givenTime(1)))
		assert.JSONEq(t, `{"MessageID": "m-3"}`, string(events[2].MetadataJSON))
	})

	t.Run("filter by event type and all predicates", func(t *testing.T) {
		ctx := context.Background()
		es := newStore(t)
		all := eventstore.BuildEventFilter().MatchingAnyEvent()

		require.NoError(t, es.Append(ctx, all, 0,
			givenEvent(t, "BookLoaned", "9780000000001", "Ana", 1),
			givenEvent(t, "BookLoaned", "9780000000002", "Ana", 2),
			givenEvent(t, "BookReturned", "9780000000001", "Ana", 3),
			givenEvent(t, "BookLoaned", "9780000000001", "Bia", 4),
		))

		filter := eventstore.BuildEventFilter().
			Matching().
			AnyEventTypeOf("BookLoaned").
			AndAllPredicatesOf(eventstore.P("ISBN", "9780000000001"), eventstore.P("PatronName", "Ana")).
			Finalize()

		events, maxSeq, err := es.Query(ctx, filter)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, uint(1), maxSeq)
	})

	t.Run("filter by any predicate and or-matching items", func(t *testing.T) {
		ctx := context.Background()
		es := newStore(t)
		all := eventstore.BuildEventFilter().MatchingAnyEvent()

		require.NoError(t, es.Append(ctx, all, 0,
			givenEvent(t, "BookLoaned", "9780000000001", "Ana", 1),
			givenEvent(t, "BookLoaned", "9780000000002", "Bia", 2),
			givenEvent(t, "BookReturned", "9780000000003", "Caio", 3),
		))

		anyPatron := eventstore.BuildEventFilter().
			Matching().
			AnyEventTypeOf("BookLoaned").
			AndAnyPredicateOf(eventstore.P("PatronName", "Ana"), eventstore.P("PatronName", "Bia")).
			Finalize()

		events, _, err := es.Query(ctx, anyPatron)
		require.NoError(t, err)
		assert.Len(t, events, 2)

		loansOrCaio := eventstore.BuildEventFilter().
			Matching().
			AnyEventTypeOf("BookLoaned").
			AndAllPredicatesOf(eventstore.P("ISBN", "9780000000002")).
			OrMatching().
			AllPredicatesOf(eventstore.P("PatronName", "Caio")).
			Finalize()

		events, maxSeq, err := es.Query(ctx, loansOrCaio)
		require.NoError(t, err)
		assert.Len(t, events, 2)
		assert.Equal(t, uint(3), maxSeq)
	})

	t.Run("stale expected sequence number is a concurrency conflict", func(t *testing.T) {
		ctx := context.Background()
		es := newStore(t)
		filter := eventstore.BuildEventFilter().
			Matching().
			AnyEventTypeOf("BookLoaned").
			AndAllPredicatesOf(eventstore.P("ISBN", "9780000000001")).
			Finalize()

		require.NoError(t, es.Append(ctx, filter, 0, givenEvent(t, "BookLoaned", "9780000000001", "Ana", 1)))

		err := es.Append(ctx, filter, 0, givenEvent(t, "BookLoaned", "9780000000001", "Bia", 2))
		assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)

		events, _, err := es.Query(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("events outside the filter do not cause conflicts", func(t *testing.T) {
		ctx := context.Background()
		es := newStore(t)
		all := eventstore.BuildEventFilter().MatchingAnyEvent()
		otherBook := eventstore.BuildEventFilter().
			Matching().
			AnyEventTypeOf("BookLoaned").
			AndAllPredicatesOf(eventstore.P("ISBN", "9780000000002")).
			Finalize()

		require.NoError(t, es.Append(ctx, all, 0, givenEvent(t, "BookLoaned", "9780000000001", "Ana", 1)))

		assert.NoError(t, es.Append(ctx, otherBook, 0, givenEvent(t, "BookLoaned", "9780000000002", "Bia", 2)))
	})
}

func givenTime(n int) time.Time {
	return time.Date(2025, 3, n, 10, 0, 0, 0, time.UTC)
}

func givenEvent(t *testing.T, eventType string, isbn string, patron string, n int) eventstore.StorableEvent {
	payload := fmt.Sprintf(`{"ISBN": %q, "PatronName": %q, "Title": "Title %d"}`, isbn, patron, n)
	metadata := fmt.Sprintf(`{"MessageID": "m-%d"}`, n)

	event, err := eventstore.BuildStorableEvent(eventType, givenTime(n), []byte(payload), []byte(metadata))
	require.NoError(t, err, "error in arranging test data")

	return event
}
