package memoryengine

import (
	"context"
	"errors"
	"slices"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lendingdesk/eventstore"
)

const (
	logMsgQueryCompleted      = "eventstore operation: query completed"
	logMsgEventsAppended      = "eventstore operation: events appended"
	logMsgConcurrencyConflict = "eventstore operation: concurrency conflict detected"
	logAttrEventCount         = "event_count"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
)

// EventStore keeps all appended events in memory in sequence order.
type EventStore struct {
	mu     *sync.RWMutex
	events *[]eventstore.StorableEvent
	logger eventstore.Logger
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithLogger sets the logger for the EventStore.
// Info level: event counts and concurrency conflicts.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

// NewEventStore creates an empty EventStore.
func NewEventStore(options ...Option) (EventStore, error) {
	events := make([]eventstore.StorableEvent, 0)

	es := EventStore{
		mu:     &sync.RWMutex{},
		events: &events,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Query returns all events matching the filter in sequence order
// and the highest sequence number among them (0 if none match).
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	if err := ctx.Err(); err != nil {
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	matched := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, event := range *es.events {
		if matches(filter, event) {
			matched = append(matched, cloneEvent(event))
			maxSequenceNumber = event.SequenceNumber
		}
	}

	es.logOperation(logMsgQueryCompleted, logAttrEventCount, len(matched))

	return matched, maxSequenceNumber, nil
}

// Append adds one or more events atomically, provided that the highest sequence number among the
// events matching filter is still expectedMaxSequenceNumber. Otherwise it returns
// eventstore.ErrConcurrencyConflict and appends nothing.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if err := ctx.Err(); err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	actual := eventstore.MaxSequenceNumberUint(0)
	for _, stored := range *es.events {
		if matches(filter, stored) {
			actual = stored.SequenceNumber
		}
	}

	if actual != expectedMaxSequenceNumber {
		es.logOperation(
			logMsgConcurrencyConflict,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
			logAttrActualSequence, actual,
		)

		return eventstore.ErrConcurrencyConflict
	}

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)
	next := eventstore.MaxSequenceNumberUint(len(*es.events))

	for _, e := range allEvents {
		next++
		stored := cloneEvent(e)
		stored.SequenceNumber = next
		*es.events = append(*es.events, stored)
	}

	es.logOperation(logMsgEventsAppended, logAttrEventCount, len(allEvents))

	return nil
}

func matches(filter eventstore.Filter, event eventstore.StorableEvent) bool {
	if len(filter.Items()) == 0 {
		return true
	}

	for _, item := range filter.Items() {
		if matchesItem(item, event) {
			return true
		}
	}

	return false
}

func matchesItem(item eventstore.FilterItem, event eventstore.StorableEvent) bool {
	if len(item.EventTypes()) > 0 && !slices.Contains(item.EventTypes(), event.EventType) {
		return false
	}

	if len(item.Predicates()) == 0 {
		return true
	}

	for _, predicate := range item.Predicates() {
		hit := payloadHolds(event.PayloadJSON, predicate)

		if item.AllPredicatesMustMatch() && !hit {
			return false
		}

		if !item.AllPredicatesMustMatch() && hit {
			return true
		}
	}

	return item.AllPredicatesMustMatch()
}

func payloadHolds(payloadJSON []byte, predicate eventstore.FilterPredicate) bool {
	value := jsoniter.Get(payloadJSON, predicate.Key())

	return value.ValueType() == jsoniter.StringValue && value.ToString() == predicate.Val()
}

func cloneEvent(e eventstore.StorableEvent) eventstore.StorableEvent {
	e.PayloadJSON = slices.Clone(e.PayloadJSON)
	e.MetadataJSON = slices.Clone(e.MetadataJSON)

	return e
}

func (es EventStore) logOperation(msg string, args ...any) {
	if es.logger != nil {
		es.logger.Info(msg, args...)
	}
}
