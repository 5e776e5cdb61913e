package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/ledger"
	"github.com/AntonStoeckl/lendingdesk/library/registry"
	"github.com/AntonStoeckl/lendingdesk/library/reservations"
	"github.com/AntonStoeckl/lendingdesk/library/shell"
)

const (
	commandRegisterBook   = "RegisterBook"
	commandRegisterPatron = "RegisterPatron"
	commandFindBook       = "FindBook"
	commandFindPatron     = "FindPatron"
	commandEditBook       = "EditBook"
	commandDeleteBook     = "DeleteBook"
	commandEditPatron     = "EditPatron"
	commandDeletePatron   = "DeletePatron"
	commandRequestLoan    = "RequestLoan"
	commandReturnLoan     = "ReturnLoan"
	commandServeQueue     = "ServeQueue"

	outcomeRegistered = "registered"
	outcomeFound      = "found"
	outcomeEdited     = "edited"
	outcomeDeleted    = "deleted"
	outcomeReturned   = "returned"
	outcomeIdle       = "idle"
	outcomeRejected   = "rejected"

	logMsgQueueHeadSkipped = "reservation queue head skipped: patron no longer registered"

	logAttrISBN       = "isbn"
	logAttrPatronName = "patron_name"
	logAttrPosition   = "position"
	logAttrWasOnLoan  = "was_on_loan"
)

// Engine orchestrates every lending desk operation. It is safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	books   *registry.Books
	patrons *registry.Patrons
	queues  *reservations.Queues
	onLoan  map[core.ISBNString]struct{}
	ledger  *ledger.Ledger
	fees    core.FeePolicy

	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// New creates an Engine with empty registries that records loans and returns in l.
func New(l *ledger.Ledger, options ...Option) (*Engine, error) {
	if l == nil {
		return nil, ErrNilLedger
	}

	e := &Engine{
		books:   registry.NewBooks(),
		patrons: registry.NewPatrons(),
		queues:  reservations.NewQueues(),
		onLoan:  make(map[core.ISBNString]struct{}),
		ledger:  l,
		fees:    core.DefaultFeePolicy(),
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// RegisterBook validates and registers a book and creates its empty reservation queue.
func (e *Engine) RegisterBook(ctx context.Context, fields core.BookFields) (core.Book, error) {
	start := e.begin(ctx, commandRegisterBook)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Book{}, e.fail(ctx, commandRegisterBook, start, err)
	}

	book, err := e.books.Register(fields)
	if err != nil {
		return core.Book{}, e.fail(ctx, commandRegisterBook, start, err)
	}

	e.queues.Create(book.ISBN)
	e.succeed(ctx, commandRegisterBook, outcomeRegistered, start, logAttrISBN, book.ISBN)

	return book, nil
}

// RegisterPatron validates and registers a patron.
func (e *Engine) RegisterPatron(ctx context.Context, fields core.PatronFields) (core.Patron, error) {
	start := e.begin(ctx, commandRegisterPatron)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Patron{}, e.fail(ctx, commandRegisterPatron, start, err)
	}

	patron, err := e.patrons.Register(fields)
	if err != nil {
		return core.Patron{}, e.fail(ctx, commandRegisterPatron, start, err)
	}

	e.succeed(ctx, commandRegisterPatron, outcomeRegistered, start)

	return patron, nil
}

// FindBook resolves a title.
func (e *Engine) FindBook(ctx context.Context, title string) (core.Book, error) {
	start := e.begin(ctx, commandFindBook)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Book{}, e.fail(ctx, commandFindBook, start, err)
	}

	book, found := e.books.FindByTitle(title)
	if !found {
		return core.Book{}, e.fail(ctx, commandFindBook, start, ErrNotFound)
	}

	e.succeed(ctx, commandFindBook, outcomeFound, start)

	return book, nil
}

// FindPatron resolves a patron name.
func (e *Engine) FindPatron(ctx context.Context, name string) (core.Patron, error) {
	start := e.begin(ctx, commandFindPatron)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Patron{}, e.fail(ctx, commandFindPatron, start, err)
	}

	patron, found := e.patrons.FindByName(name)
	if !found {
		return core.Patron{}, e.fail(ctx, commandFindPatron, start, ErrNotFound)
	}

	e.succeed(ctx, commandFindPatron, outcomeFound, start)

	return patron, nil
}

// EditBook changes the fields of the book with the given title. The isbn never changes.
func (e *Engine) EditBook(ctx context.Context, title string, edit core.BookEdit) (core.Book, error) {
	start := e.begin(ctx, commandEditBook)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Book{}, e.fail(ctx, commandEditBook, start, err)
	}

	book, found, err := e.books.Edit(title, edit)
	if !found {
		return core.Book{}, e.fail(ctx, commandEditBook, start, ErrNotFound)
	}

	if err != nil {
		return core.Book{}, e.fail(ctx, commandEditBook, start, err)
	}

	e.succeed(ctx, commandEditBook, outcomeEdited, start, logAttrISBN, book.ISBN)

	return book, nil
}

// DeleteBook removes the book with the given title together with its reservation queue.
// A deleted book that was on loan is taken out of the availability set.
func (e *Engine) DeleteBook(ctx context.Context, title string) (core.Book, error) {
	start := e.begin(ctx, commandDeleteBook)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Book{}, e.fail(ctx, commandDeleteBook, start, err)
	}

	book, found := e.books.Delete(title)
	if !found {
		return core.Book{}, e.fail(ctx, commandDeleteBook, start, ErrNotFound)
	}

	_, wasOnLoan := e.onLoan[book.ISBN]
	delete(e.onLoan, book.ISBN)
	e.queues.Remove(book.ISBN)

	e.succeed(ctx, commandDeleteBook, outcomeDeleted, start, logAttrISBN, book.ISBN, logAttrWasOnLoan, wasOnLoan)

	return book, nil
}

// EditPatron replaces the fields of the patron with the given name. Eligibility is kept.
func (e *Engine) EditPatron(ctx context.Context, name string, fields core.PatronFields) (core.Patron, error) {
	start := e.begin(ctx, commandEditPatron)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Patron{}, e.fail(ctx, commandEditPatron, start, err)
	}

	patron, found, err := e.patrons.Edit(name, fields)
	if !found {
		return core.Patron{}, e.fail(ctx, commandEditPatron, start, ErrNotFound)
	}

	if err != nil {
		return core.Patron{}, e.fail(ctx, commandEditPatron, start, err)
	}

	e.succeed(ctx, commandEditPatron, outcomeEdited, start)

	return patron, nil
}

// DeletePatron removes the patron with the given name. Queue entries of that patron stay
// and are skipped when they reach the head.
func (e *Engine) DeletePatron(ctx context.Context, name string) (core.Patron, error) {
	start := e.begin(ctx, commandDeletePatron)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.Patron{}, e.fail(ctx, commandDeletePatron, start, err)
	}

	patron, found := e.patrons.Delete(name)
	if !found {
		return core.Patron{}, e.fail(ctx, commandDeletePatron, start, ErrNotFound)
	}

	e.succeed(ctx, commandDeletePatron, outcomeDeleted, start)

	return patron, nil
}

func (e *Engine) begin(ctx context.Context, commandType string) time.Time {
	shell.LogCommandStart(ctx, e.logger, e.contextualLogger, commandType)

	return time.Now()
}

func (e *Engine) succeed(ctx context.Context, commandType string, outcome string, start time.Time, args ...any) {
	shell.LogCommandSuccess(ctx, e.logger, e.contextualLogger, commandType, outcome, time.Since(start), args...)
}

// fail logs err and returns it. Rejections by the desk's own rules complete the command with
// outcome rejected; anything else is a failed command.
func (e *Engine) fail(ctx context.Context, commandType string, start time.Time, err error) error {
	if isRejection(err) {
		e.succeed(ctx, commandType, outcomeRejected, start, shell.LogAttrError, err.Error())
		return err
	}

	shell.LogCommandError(ctx, e.logger, e.contextualLogger, commandType, err)

	return err
}

func isRejection(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOnLoan) || errors.Is(err, core.ErrValidation)
}

func (e *Engine) warn(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)
	} else if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
