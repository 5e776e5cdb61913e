package engine

import (
	"context"
	"strings"

	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/shell"
)

// RequestLoan lends the title to the patron if it is not on loan, otherwise the patron joins
// the title's reservation queue. The quantity of the book is never decremented.
func (e *Engine) RequestLoan(ctx context.Context, patronName string, title string, date string) (LoanOutcome, error) {
	start := e.begin(ctx, commandRequestLoan)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return LoanOutcome{}, e.fail(ctx, commandRequestLoan, start, err)
	}

	patron, patronFound := e.patrons.FindByName(patronName)
	book, bookFound := e.books.FindByTitle(title)

	if !patronFound || !bookFound {
		return LoanOutcome{}, e.fail(ctx, commandRequestLoan, start, ErrNotFound)
	}

	asTyped := recordedAs{title: strings.TrimSpace(title), patronName: strings.TrimSpace(patronName)}

	outcome, err := e.lend(ctx, patron, book, asTyped, date, shell.NewRootEventMetadata())
	if err != nil {
		return LoanOutcome{}, e.fail(ctx, commandRequestLoan, start, err)
	}

	e.succeed(ctx, commandRequestLoan, string(outcome.Status), start, outcome.logArgs(book.ISBN)...)

	return outcome, nil
}

// ReturnLoan closes the loan of the title, computes the fee from the patron's most recent loan
// of it and hands the title to the next patron in line.
//
// The patron name is not looked up in the registry. It only selects the loan the fee is based on.
// Title and patron name are recorded as given, trimmed.
func (e *Engine) ReturnLoan(ctx context.Context, title string, patronName string, date string) (ReturnOutcome, error) {
	start := e.begin(ctx, commandReturnLoan)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ReturnOutcome{}, e.fail(ctx, commandReturnLoan, start, err)
	}

	book, found := e.books.FindByTitle(title)
	if !found {
		return ReturnOutcome{}, e.fail(ctx, commandReturnLoan, start, ErrNotFound)
	}

	if !e.isOnLoan(book.ISBN) {
		return ReturnOutcome{}, e.fail(ctx, commandReturnLoan, start, ErrNotOnLoan)
	}

	outcome := ReturnOutcome{}

	loan, loanFound, err := e.ledger.LastLoanFor(ctx, book.ISBN, patronName)
	if err != nil {
		return ReturnOutcome{}, e.fail(ctx, commandReturnLoan, start, err)
	}

	if loanFound {
		fee, feeErr := e.fees.ComputeFee(loan.Date, date, book.LoanFee)
		outcome.Fee = &fee
		outcome.FeeErr = feeErr
	}

	metadata := shell.NewRootEventMetadata()

	entry, err := e.ledger.RecordReturn(
		ctx,
		book.ISBN,
		strings.TrimSpace(title),
		strings.TrimSpace(patronName),
		date,
		metadata,
	)
	if err != nil {
		return ReturnOutcome{}, e.fail(ctx, commandReturnLoan, start, err)
	}

	outcome.Entry = entry
	delete(e.onLoan, book.ISBN)

	// The return is committed at this point. A failing hand-off leaves the title available
	// and the queue as it was, and is reported together with the return outcome.
	handOff, err := e.serveQueue(ctx, book, metadata)
	outcome.HandOff = handOff

	if err != nil {
		return outcome, e.fail(ctx, commandReturnLoan, start, err)
	}

	e.succeed(ctx, commandReturnLoan, outcomeReturned, start, logAttrISBN, book.ISBN)

	return outcome, nil
}

// ServeQueue hands the title with the given isbn to the head of its reservation queue if the
// title is not on loan. It returns the hand-off, or nil if nothing was lent.
func (e *Engine) ServeQueue(ctx context.Context, isbn core.ISBNString) (*LoanOutcome, error) {
	start := e.begin(ctx, commandServeQueue)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, e.fail(ctx, commandServeQueue, start, err)
	}

	book, found := e.books.FindByISBN(isbn)
	if !found {
		return nil, e.fail(ctx, commandServeQueue, start, ErrNotFound)
	}

	handOff, err := e.serveQueue(ctx, book, shell.NewRootEventMetadata())
	if err != nil {
		return nil, e.fail(ctx, commandServeQueue, start, err)
	}

	if handOff == nil {
		e.succeed(ctx, commandServeQueue, outcomeIdle, start, logAttrISBN, isbn)
		return nil, nil
	}

	e.succeed(ctx, commandServeQueue, string(handOff.Status), start, handOff.logArgs(isbn)...)

	return handOff, nil
}

// recordedAs are the title and patron name a ledger entry carries: what the operator typed,
// trimmed, which may differ in case from the registered values.
type recordedAs struct {
	title      string
	patronName string
}

// lend applies the loan transition. The ledger entry is recorded before the title joins the
// availability set, so a failed append changes nothing.
func (e *Engine) lend(
	ctx context.Context,
	patron core.Patron,
	book core.Book,
	asTyped recordedAs,
	date string,
	metadata shell.EventMetadata,
) (LoanOutcome, error) {

	outcome := LoanOutcome{
		Title:      book.Title,
		PatronName: patron.Name,
	}

	if e.isOnLoan(book.ISBN) {
		outcome.Status = Queued
		outcome.Position = e.queues.Enqueue(book.ISBN, patron.Name)

		return outcome, nil
	}

	entry, err := e.ledger.RecordLoan(ctx, book.ISBN, asTyped.title, asTyped.patronName, date, metadata)
	if err != nil {
		return LoanOutcome{}, err
	}

	e.onLoan[book.ISBN] = struct{}{}

	outcome.Status = Lent
	outcome.DueInDays = e.fees.LoanPeriodDays
	outcome.Entry = entry

	return outcome, nil
}

// serveQueue works through the queue of book until the title is on loan again or the queue is
// empty. Heads whose patron is no longer registered are dropped. The hand-off loan is caused by
// the event carrying cause.
func (e *Engine) serveQueue(ctx context.Context, book core.Book, cause shell.EventMetadata) (*LoanOutcome, error) {
	for !e.isOnLoan(book.ISBN) {
		head, ok := e.queues.Peek(book.ISBN)
		if !ok {
			return nil, nil
		}

		patron, found := e.patrons.FindByName(head)
		if !found {
			e.queues.Dequeue(book.ISBN)
			e.warn(ctx, logMsgQueueHeadSkipped, logAttrISBN, book.ISBN, logAttrPatronName, head)

			continue
		}

		asQueued := recordedAs{title: book.Title, patronName: head}

		outcome, err := e.lend(ctx, patron, book, asQueued, AutomaticDate, shell.CausedBy(cause))
		if err != nil {
			return nil, err
		}

		e.queues.Dequeue(book.ISBN)

		return &outcome, nil
	}

	return nil, nil
}

func (e *Engine) isOnLoan(isbn core.ISBNString) bool {
	_, onLoan := e.onLoan[isbn]

	return onLoan
}

func (o LoanOutcome) logArgs(isbn core.ISBNString) []any {
	if o.Status == Queued {
		return []any{logAttrISBN, isbn, logAttrPosition, o.Position}
	}

	return []any{logAttrISBN, isbn}
}
