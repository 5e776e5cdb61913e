package memoryengine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lendingdesk/eventstore"
	"github.com/AntonStoeckl/lendingdesk/eventstore/memoryengine"
	"github.com/AntonStoeckl/lendingdesk/testutil/eventstore/contract"
	"github.com/AntonStoeckl/lendingdesk/testutil/helper"
)

func Test_EventStore_Contract(t *testing.T) {
	contract.Run(t, func(t *testing.T) contract.EventStore {
		es, err := memoryengine.NewEventStore()
		require.NoError(t, err)

		return es
	})
}

func Test_Query_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	es, err := memoryengine.NewEventStore()
	require.NoError(t, err)

	all := eventstore.BuildEventFilter().MatchingAnyEvent()
	event, err := eventstore.BuildStorableEventWithEmptyMetadata("BookLoaned", helper.FixedTime(), []byte(`{"ISBN":"1"}`))
	require.NoError(t, err)
	require.NoError(t, es.Append(ctx, all, 0, event))

	first, _, err := es.Query(ctx, all)
	require.NoError(t, err)
	first[0].PayloadJSON[2] = 'X'

	second, _, err := es.Query(ctx, all)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ISBN":"1"}`, string(second[0].PayloadJSON))
}

func Test_Query_FailsOnCanceledContext(t *testing.T) {
	es, err := memoryengine.NewEventStore()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = es.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())

	assert.ErrorIs(t, err, eventstore.ErrQueryingEventsFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Append_LogsConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	logHandler := helper.NewLogHandlerSpy(false)
	es, err := memoryengine.NewEventStore(memoryengine.WithLogger(slog.New(logHandler)))
	require.NoError(t, err)

	all := eventstore.BuildEventFilter().MatchingAnyEvent()
	event, err := eventstore.BuildStorableEventWithEmptyMetadata("BookLoaned", helper.FixedTime(), []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, es.Append(ctx, all, 0, event))

	err = es.Append(ctx, all, 0, event)

	assert.ErrorIs(t, err, eventstore.ErrConcurrencyConflict)
	assert.True(t, logHandler.HasInfoLog("eventstore operation: concurrency conflict detected"))
}
