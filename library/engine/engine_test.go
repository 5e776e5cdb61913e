package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lendingdesk/eventstore"
	"github.com/AntonStoeckl/lendingdesk/eventstore/memoryengine"
	"github.com/AntonStoeckl/lendingdesk/eventstore/sqliteengine"
	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/engine"
	"github.com/AntonStoeckl/lendingdesk/library/ledger"
	"github.com/AntonStoeckl/lendingdesk/library/shell"
	"github.com/AntonStoeckl/lendingdesk/testutil/helper"
)

const (
	domCasmurroTitle = "Dom Casmurro"
	domCasmurroISBN  = "9788535910663"
)

type desk struct {
	*engine.Engine
	logs *helper.LogHandlerSpy
}

func newDesk(t *testing.T, options ...engine.Option) desk {
	t.Helper()

	store, err := memoryengine.NewEventStore()
	require.NoError(t, err)

	return newDeskOn(t, store, options...)
}

func newDeskOn(t *testing.T, store ledger.EventStore, options ...engine.Option) desk {
	t.Helper()

	l, err := ledger.New(store, ledger.WithClock(helper.FixedClock()))
	require.NoError(t, err)

	logs := helper.NewLogHandlerSpy(false)
	options = append([]engine.Option{engine.WithContextualLogger(slog.New(logs))}, options...)

	e, err := engine.New(l, options...)
	require.NoError(t, err)

	return desk{Engine: e, logs: logs}
}

func (d desk) givenBook(t *testing.T) core.Book {
	t.Helper()

	book, err := d.RegisterBook(context.Background(), core.BookFields{
		Title:      domCasmurroTitle,
		Author:     "Machado de Assis",
		ISBN:       domCasmurroISBN,
		LoanFee:    10.0,
		AgeRating:  "12",
		Quantity:   3,
		AcquiredOn: "01/01/2024",
	})
	require.NoError(t, err)

	return book
}

func (d desk) givenPatrons(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		_, err := d.RegisterPatron(context.Background(), core.PatronFields{
			Name:     name,
			Age:      30,
			Document: "12345678901",
			Phone:    "11987654321",
		})
		require.NoError(t, err)
	}
}

func Test_New(t *testing.T) {
	t.Run("rejects a nil ledger", func(t *testing.T) {
		_, err := engine.New(nil)

		assert.ErrorIs(t, err, engine.ErrNilLedger)
	})

	t.Run("rejects a negative fee policy", func(t *testing.T) {
		store, err := memoryengine.NewEventStore()
		require.NoError(t, err)
		l, err := ledger.New(store)
		require.NoError(t, err)

		_, err = engine.New(l, engine.WithFeePolicy(core.FeePolicy{LoanPeriodDays: -1}))

		assert.ErrorIs(t, err, engine.ErrInvalidFeePolicy)
	})
}

func Test_RequestLoan(t *testing.T) {
	t.Run("lends an available title with the loan period reminder", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Ana")

		// act
		outcome, err := d.RequestLoan(ctx, " ana ", "DOM CASMURRO", "01/03/2025")

		// assert
		require.NoError(t, err)
		assert.Equal(t, engine.Lent, outcome.Status)
		assert.Equal(t, "Ana", outcome.PatronName)
		assert.Equal(t, domCasmurroTitle, outcome.Title)
		assert.Equal(t, core.DefaultLoanPeriodDays, outcome.DueInDays)
		assert.True(t, d.IsOnLoan(domCasmurroISBN))
		assert.True(t, d.logs.HasLogWith(shell.LogMsgCommandCompleted, shell.LogAttrBusinessOutcome, "lent"))
	})

	t.Run("two requests before any return lend once and queue once", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Ana", "Bruno")

		// act
		first, err := d.RequestLoan(ctx, "Ana", domCasmurroTitle, "01/03/2025")
		require.NoError(t, err)
		second, err := d.RequestLoan(ctx, "Bruno", domCasmurroTitle, "02/03/2025")
		require.NoError(t, err)

		// assert
		assert.Equal(t, engine.Lent, first.Status)
		assert.Equal(t, engine.Queued, second.Status)
		assert.Equal(t, 1, second.Position)

		waiting, err := d.Waiting(ctx, domCasmurroISBN)
		require.NoError(t, err)
		assert.Equal(t, []string{"Bruno"}, waiting)

		history, err := d.History(ctx)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("unknown patron or title is not found and changes nothing", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Ana")

		_, err := d.RequestLoan(ctx, "Nobody", domCasmurroTitle, "01/03/2025")
		assert.ErrorIs(t, err, engine.ErrNotFound)

		_, err = d.RequestLoan(ctx, "Ana", "Unknown Title", "01/03/2025")
		assert.ErrorIs(t, err, engine.ErrNotFound)

		assert.False(t, d.IsOnLoan(domCasmurroISBN))
		history, err := d.History(ctx)
		require.NoError(t, err)
		assert.Empty(t, history)
		assert.True(t, d.logs.HasLogWith(shell.LogMsgCommandCompleted, shell.LogAttrBusinessOutcome, "rejected"))
	})

	t.Run("canceled context changes nothing", func(t *testing.T) {
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Ana")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := d.RequestLoan(ctx, "Ana", domCasmurroTitle, "01/03/2025")

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, d.IsOnLoan(domCasmurroISBN))
		assert.True(t, d.logs.HasWarnLog(shell.LogMsgCommandFailed))
	})
}

func Test_ReturnLoan(t *testing.T) {
	testCases := []struct {
		name        string
		loanDate    string
		returnDate  string
		expectedFee float64
		expectedErr error
	}{
		{name: "within the loan period", loanDate: "01/03/2025", returnDate: "16/03/2025", expectedFee: 10.0},
		{name: "one day late", loanDate: "01/03/2025", returnDate: "17/03/2025", expectedFee: 11.0},
		{name: "malformed return date", loanDate: "01/03/2025", returnDate: "2025-03-17", expectedFee: 10.0, expectedErr: core.ErrInvalidDateFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			d := newDesk(t)
			d.givenBook(t)
			d.givenPatrons(t, "Ana")
			_, err := d.RequestLoan(ctx, "Ana", domCasmurroTitle, tc.loanDate)
			require.NoError(t, err)

			// act
			outcome, err := d.ReturnLoan(ctx, domCasmurroTitle, "ANA", tc.returnDate)

			// assert
			require.NoError(t, err)
			require.NotNil(t, outcome.Fee)
			assert.InDelta(t, tc.expectedFee, *outcome.Fee, 0.0001)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, outcome.FeeErr, tc.expectedErr)
			} else {
				assert.NoError(t, outcome.FeeErr)
			}
			assert.False(t, d.IsOnLoan(domCasmurroISBN))
			assert.Nil(t, outcome.HandOff)
			assert.Equal(t, ledger.ActionReturn, outcome.Entry.Action)
		})
	}

	t.Run("title that is not on loan is rejected without mutation", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)

		_, err := d.ReturnLoan(ctx, domCasmurroTitle, "Ana", "10/03/2025")

		assert.ErrorIs(t, err, engine.ErrNotOnLoan)
		history, err := d.History(ctx)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("unknown title is not found", func(t *testing.T) {
		d := newDesk(t)

		_, err := d.ReturnLoan(context.Background(), "Unknown Title", "Ana", "10/03/2025")

		assert.ErrorIs(t, err, engine.ErrNotFound)
	})

	t.Run("return by someone who never borrowed the title carries no fee", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Ana")
		_, err := d.RequestLoan(ctx, "Ana", domCasmurroTitle, "01/03/2025")
		require.NoError(t, err)

		outcome, err := d.ReturnLoan(ctx, domCasmurroTitle, "Bruno", "10/03/2025")

		require.NoError(t, err)
		assert.Nil(t, outcome.Fee)
		assert.False(t, d.IsOnLoan(domCasmurroISBN))
	})

	t.Run("custom fee policy", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t, engine.WithFeePolicy(core.FeePolicy{LoanPeriodDays: 7, LateFeePerDay: 2.5}))
		d.givenBook(t)
		d.givenPatrons(t, "Ana")
		outcome, err := d.RequestLoan(ctx, "Ana", domCasmurroTitle, "01/03/2025")
		require.NoError(t, err)
		assert.Equal(t, 7, outcome.DueInDays)

		returned, err := d.ReturnLoan(ctx, domCasmurroTitle, "Ana", "10/03/2025")

		require.NoError(t, err)
		require.NotNil(t, returned.Fee)
		assert.InDelta(t, 15.0, *returned.Fee, 0.0001)
	})
}

func Test_QueueHandOff(t *testing.T) {
	t.Run("a return hands the title to the head of the queue in FIFO order", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Owner", "A", "B", "C")
		_, err := d.RequestLoan(ctx, "Owner", domCasmurroTitle, "01/03/2025")
		require.NoError(t, err)
		for _, name := range []string{"A", "B", "C"} {
			_, err = d.RequestLoan(ctx, name, domCasmurroTitle, "02/03/2025")
			require.NoError(t, err)
		}

		// act
		returned, err := d.ReturnLoan(ctx, domCasmurroTitle, "Owner", "05/03/2025")

		// assert
		require.NoError(t, err)
		require.NotNil(t, returned.HandOff)
		assert.Equal(t, engine.Lent, returned.HandOff.Status)
		assert.Equal(t, "A", returned.HandOff.PatronName)
		assert.Equal(t, engine.AutomaticDate, returned.HandOff.Entry.Date)
		assert.Equal(t, returned.Entry.Metadata.MessageID, returned.HandOff.Entry.Metadata.CausationID)
		assert.Equal(t, returned.Entry.Metadata.CorrelationID, returned.HandOff.Entry.Metadata.CorrelationID)
		assert.True(t, d.IsOnLoan(domCasmurroISBN))

		waiting, err := d.Waiting(ctx, domCasmurroISBN)
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C"}, waiting)

		current, err := d.CurrentLoans(ctx)
		require.NoError(t, err)
		require.Len(t, current, 1)
		assert.Equal(t, "A", current[0].PatronName)
	})

	t.Run("deleted patrons at the head are skipped", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Owner", "A", "B")
		_, err := d.RequestLoan(ctx, "Owner", domCasmurroTitle, "01/03/2025")
		require.NoError(t, err)
		_, err = d.RequestLoan(ctx, "A", domCasmurroTitle, "02/03/2025")
		require.NoError(t, err)
		_, err = d.RequestLoan(ctx, "B", domCasmurroTitle, "02/03/2025")
		require.NoError(t, err)
		_, err = d.DeletePatron(ctx, "A")
		require.NoError(t, err)

		// act
		returned, err := d.ReturnLoan(ctx, domCasmurroTitle, "Owner", "05/03/2025")

		// assert
		require.NoError(t, err)
		require.NotNil(t, returned.HandOff)
		assert.Equal(t, "B", returned.HandOff.PatronName)
		assert.True(t, d.logs.HasWarnLog("reservation queue head skipped: patron no longer registered"))

		waiting, err := d.Waiting(ctx, domCasmurroISBN)
		require.NoError(t, err)
		assert.Empty(t, waiting)
	})

	t.Run("the hand-off fee is the base fee with a date format error", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Owner", "A")
		_, err := d.RequestLoan(ctx, "Owner", domCasmurroTitle, "01/03/2025")
		require.NoError(t, err)
		_, err = d.RequestLoan(ctx, "A", domCasmurroTitle, "02/03/2025")
		require.NoError(t, err)
		_, err = d.ReturnLoan(ctx, domCasmurroTitle, "Owner", "05/03/2025")
		require.NoError(t, err)

		returned, err := d.ReturnLoan(ctx, domCasmurroTitle, "A", "30/03/2025")

		require.NoError(t, err)
		require.NotNil(t, returned.Fee)
		assert.InDelta(t, 10.0, *returned.Fee, 0.0001)
		assert.ErrorIs(t, returned.FeeErr, core.ErrInvalidDateFormat)
	})

	t.Run("serve queue on an available title with an empty queue is idle", func(t *testing.T) {
		d := newDesk(t)
		d.givenBook(t)

		handOff, err := d.ServeQueue(context.Background(), domCasmurroISBN)

		require.NoError(t, err)
		assert.Nil(t, handOff)
	})

	t.Run("serve queue on an unknown isbn is not found", func(t *testing.T) {
		d := newDesk(t)

		_, err := d.ServeQueue(context.Background(), domCasmurroISBN)

		assert.ErrorIs(t, err, engine.ErrNotFound)
	})
}

func Test_DeleteBook(t *testing.T) {
	t.Run("removes its queue, its loan, and later requests are not found", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Ana", "Bruno")
		_, err := d.RequestLoan(ctx, "Ana", domCasmurroTitle, "01/03/2025")
		require.NoError(t, err)
		_, err = d.RequestLoan(ctx, "Bruno", domCasmurroTitle, "02/03/2025")
		require.NoError(t, err)

		// act
		_, err = d.DeleteBook(ctx, "dom casmurro")

		// assert
		require.NoError(t, err)
		waiting, err := d.Waiting(ctx, domCasmurroISBN)
		require.NoError(t, err)
		assert.Empty(t, waiting)
		assert.False(t, d.IsOnLoan(domCasmurroISBN))

		current, err := d.CurrentLoans(ctx)
		require.NoError(t, err)
		assert.Empty(t, current)

		_, err = d.RequestLoan(ctx, "Ana", domCasmurroTitle, "03/03/2025")
		assert.ErrorIs(t, err, engine.ErrNotFound)
		_, err = d.FindBook(ctx, domCasmurroTitle)
		assert.ErrorIs(t, err, engine.ErrNotFound)
	})

	t.Run("unknown title is not found", func(t *testing.T) {
		d := newDesk(t)

		_, err := d.DeleteBook(context.Background(), domCasmurroTitle)

		assert.ErrorIs(t, err, engine.ErrNotFound)
	})
}

func Test_Catalog(t *testing.T) {
	t.Run("invalid book leaves the catalog unchanged", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)

		_, err := d.RegisterBook(ctx, core.BookFields{Title: "Short", ISBN: "978853591066", LoanFee: 5, Quantity: 1})

		assert.ErrorIs(t, err, core.ErrInvalidISBN)
		_, err = d.FindBook(ctx, "Short")
		assert.ErrorIs(t, err, engine.ErrNotFound)
	})

	t.Run("invalid patron leaves the registry unchanged", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)

		_, err := d.RegisterPatron(ctx, core.PatronFields{Name: "Ana", Age: 121, Document: "12345678901", Phone: "11987654321"})

		assert.ErrorIs(t, err, core.ErrInvalidAge)
		_, err = d.FindPatron(ctx, "Ana")
		assert.ErrorIs(t, err, engine.ErrNotFound)
	})

	t.Run("edit book keeps the isbn so loans survive a title change", func(t *testing.T) {
		// arrange
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)
		d.givenPatrons(t, "Ana")
		_, err := d.RequestLoan(ctx, "Ana", domCasmurroTitle, "01/03/2025")
		require.NoError(t, err)

		// act
		edited, err := d.EditBook(ctx, domCasmurroTitle, core.BookEdit{Title: "Dom Casmurro (ed. revista)", Author: "Machado de Assis", LoanFee: 12.0, Quantity: 1})
		require.NoError(t, err)
		returned, err := d.ReturnLoan(ctx, "Dom Casmurro (ed. revista)", "Ana", "05/03/2025")

		// assert
		require.NoError(t, err)
		assert.Equal(t, domCasmurroISBN, edited.ISBN)
		require.NotNil(t, returned.Fee)
		assert.InDelta(t, 12.0, *returned.Fee, 0.0001)
	})

	t.Run("edit patron keeps eligibility", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)
		_, err := d.RegisterPatron(ctx, core.PatronFields{Name: "Teen", Age: 15, Document: "12345678901", Phone: "11987654321"})
		require.NoError(t, err)

		edited, err := d.EditPatron(ctx, "teen", core.PatronFields{Name: "Teen", Age: 19, Document: "12345678901", Phone: "11987654321"})

		require.NoError(t, err)
		assert.False(t, edited.Eligible)
	})

	t.Run("invalid edit is a rejection", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)
		d.givenBook(t)

		_, err := d.EditBook(ctx, domCasmurroTitle, core.BookEdit{Title: domCasmurroTitle, LoanFee: -1})

		assert.ErrorIs(t, err, core.ErrInvalidFee)
		book, err := d.FindBook(ctx, domCasmurroTitle)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, book.LoanFee, 0.0001)
	})

	t.Run("edit and delete of unknown patrons are not found", func(t *testing.T) {
		ctx := context.Background()
		d := newDesk(t)

		_, err := d.EditPatron(ctx, "Nobody", core.PatronFields{})
		assert.ErrorIs(t, err, engine.ErrNotFound)

		_, err = d.DeletePatron(ctx, "Nobody")
		assert.ErrorIs(t, err, engine.ErrNotFound)
	})
}

func Test_Engine_OnSQLiteLedger(t *testing.T) {
	// arrange
	ctx := context.Background()
	store, err := sqliteengine.NewInMemoryEventStore(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	d := newDeskOn(t, store)
	d.givenBook(t)
	d.givenPatrons(t, "Ana", "Bruno")

	// act
	_, err = d.RequestLoan(ctx, "Ana", domCasmurroTitle, "01/03/2025")
	require.NoError(t, err)
	_, err = d.RequestLoan(ctx, "Bruno", domCasmurroTitle, "01/03/2025")
	require.NoError(t, err)
	returned, err := d.ReturnLoan(ctx, domCasmurroTitle, "Ana", "20/03/2025")
	require.NoError(t, err)

	// assert
	require.NotNil(t, returned.Fee)
	assert.InDelta(t, 14.0, *returned.Fee, 0.0001)
	require.NotNil(t, returned.HandOff)
	assert.Equal(t, "Bruno", returned.HandOff.PatronName)

	history, err := d.History(ctx)
	require.NoError(t, err)
	lines := make([]string, 0, len(history))
	for _, entry := range history {
		lines = append(lines, entry.String())
	}
	assert.Equal(t, []string{
		"LOAN: Dom Casmurro -> Ana on 01/03/2025",
		"RETURN: Dom Casmurro -> Ana on 20/03/2025",
		"LOAN: Dom Casmurro -> Bruno on automatic date",
	}, lines)
}

func Test_History_RecordsTitlesAndNamesAsTyped(t *testing.T) {
	// arrange
	ctx := context.Background()
	d := newDesk(t)
	d.givenBook(t)
	d.givenPatrons(t, "Ana", "Bruno")

	// act
	_, err := d.RequestLoan(ctx, "  ana ", "DOM CASMURRO", "01/03/2025")
	require.NoError(t, err)
	_, err = d.RequestLoan(ctx, "BRUNO", "dom casmurro", "02/03/2025")
	require.NoError(t, err)
	returned, err := d.ReturnLoan(ctx, " dom casmurro", "ANA ", "10/03/2025")
	require.NoError(t, err)

	// assert
	require.NotNil(t, returned.Fee)
	assert.InDelta(t, 10.0, *returned.Fee, 0.0001)

	history, err := d.History(ctx)
	require.NoError(t, err)
	lines := make([]string, 0, len(history))
	for _, entry := range history {
		lines = append(lines, entry.String())
	}
	assert.Equal(t, []string{
		"LOAN: DOM CASMURRO -> ana on 01/03/2025",
		"RETURN: dom casmurro -> ANA on 10/03/2025",
		"LOAN: Dom Casmurro -> Bruno on automatic date",
	}, lines)
}

func Test_ReturnLoan_FailingHandOff(t *testing.T) {
	// arrange
	ctx := context.Background()
	memory, err := memoryengine.NewEventStore()
	require.NoError(t, err)
	store := &failingAppendStore{EventStore: memory, succeeding: 2}
	d := newDeskOn(t, store)
	d.givenBook(t)
	d.givenPatrons(t, "Ana", "Bruno")

	_, err = d.RequestLoan(ctx, "Ana", domCasmurroTitle, "01/03/2025")
	require.NoError(t, err)
	queued, err := d.RequestLoan(ctx, "Bruno", domCasmurroTitle, "02/03/2025")
	require.NoError(t, err)
	require.Equal(t, engine.Queued, queued.Status)

	// act
	returned, err := d.ReturnLoan(ctx, domCasmurroTitle, "Ana", "10/03/2025")

	// assert
	require.Error(t, err)
	assert.ErrorIs(t, err, errAppendRefused)
	assert.Equal(t, ledger.ActionReturn, returned.Entry.Action)
	assert.Nil(t, returned.HandOff)
	assert.False(t, d.IsOnLoan(domCasmurroISBN))

	waiting, err := d.Waiting(ctx, domCasmurroISBN)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bruno"}, waiting)
	assert.True(t, d.logs.HasErrorLog(shell.LogMsgCommandFailed))

	history, err := d.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ledger.ActionReturn, history[1].Action)
}

var errAppendRefused = errors.New("append refused")

// failingAppendStore lets the first succeeding appends through and refuses every later one.
type failingAppendStore struct {
	memoryengine.EventStore
	succeeding int
}

func (s *failingAppendStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if s.succeeding == 0 {
		return errAppendRefused
	}
	s.succeeding--

	return s.EventStore.Append(ctx, filter, expectedMaxSequenceNumber, event, additionalEvents...)
}
