package ledger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/AntonStoeckl/lendingdesk/eventstore"
	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/shell"
)

// ErrNilEventStore is returned when a Ledger is created without an engine.
var ErrNilEventStore = errors.New("event store must not be nil")

// EventStore is the part of an eventstore engine the ledger writes through.
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

// Ledger records loans and returns.
type Ledger struct {
	store EventStore
	clock func() time.Time
}

// Option defines a functional option for configuring a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used to stamp entries.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// New creates a Ledger on top of the given engine.
func New(store EventStore, options ...Option) (*Ledger, error) {
	if store == nil {
		return nil, ErrNilEventStore
	}

	l := &Ledger{
		store: store,
		clock: time.Now,
	}

	for _, option := range options {
		option(l)
	}

	return l, nil
}

// RecordLoan appends a loan entry.
func (l *Ledger) RecordLoan(
	ctx context.Context,
	isbn core.ISBNString,
	title string,
	patronName string,
	date string,
	metadata shell.EventMetadata,
) (Entry, error) {

	return l.record(ctx, core.BuildBookLoaned(isbn, title, patronName, date, l.clock()), isbn, metadata)
}

// RecordReturn appends a return entry.
func (l *Ledger) RecordReturn(
	ctx context.Context,
	isbn core.ISBNString,
	title string,
	patronName string,
	date string,
	metadata shell.EventMetadata,
) (Entry, error) {

	return l.record(ctx, core.BuildBookReturned(isbn, title, patronName, date, l.clock()), isbn, metadata)
}

// Entries returns every entry in the order it was recorded.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	storableEvents, _, err := l.store.Query(ctx, allLedgerEvents())
	if err != nil {
		return nil, err
	}

	return entriesFrom(storableEvents)
}

// LastLoanFor finds the most recent loan entry of isbn whose patron matches patronName,
// ignoring case and surrounding whitespace.
func (l *Ledger) LastLoanFor(ctx context.Context, isbn core.ISBNString, patronName string) (Entry, bool, error) {
	storableEvents, _, err := l.store.Query(ctx, eventsOf(isbn))
	if err != nil {
		return Entry{}, false, err
	}

	entries, err := entriesFrom(storableEvents)
	if err != nil {
		return Entry{}, false, err
	}

	for _, entry := range slices.Backward(entries) {
		if entry.Action == ActionLoan && core.SameName(entry.PatronName, patronName) {
			return entry, true, nil
		}
	}

	return Entry{}, false, nil
}

// CurrentLoans projects the ledger to the loans that have not been returned yet, in loan order.
func (l *Ledger) CurrentLoans(ctx context.Context) ([]Entry, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, err
	}

	outstanding := make([]Entry, 0)
	for _, entry := range entries {
		switch entry.Action {
		case ActionLoan:
			outstanding = append(outstanding, entry)

		case ActionReturn:
			outstanding = slices.DeleteFunc(outstanding, func(loan Entry) bool {
				return loan.ISBN == entry.ISBN
			})
		}
	}

	return outstanding, nil
}

func (l *Ledger) record(
	ctx context.Context,
	event core.DomainEvent,
	isbn core.ISBNString,
	metadata shell.EventMetadata,
) (Entry, error) {

	filter := eventsOf(isbn)

	_, maxSequenceNumber, err := l.store.Query(ctx, filter)
	if err != nil {
		return Entry{}, err
	}

	storableEvent, err := shell.StorableEventFrom(event, metadata)
	if err != nil {
		return Entry{}, err
	}

	if err = l.store.Append(ctx, filter, maxSequenceNumber, storableEvent); err != nil {
		return Entry{}, err
	}

	return entryFrom(storableEvent)
}

func entriesFrom(storableEvents eventstore.StorableEvents) ([]Entry, error) {
	entries := make([]Entry, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		entry, err := entryFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func allLedgerEvents() eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.BookLoanedEventType, core.BookReturnedEventType).
		Finalize()
}

func eventsOf(isbn core.ISBNString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(core.BookLoanedEventType, core.BookReturnedEventType).
		AndAnyPredicateOf(eventstore.P("ISBN", isbn)).
		Finalize()
}
