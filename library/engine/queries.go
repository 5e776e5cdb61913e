package engine

import (
	"context"

	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/ledger"
)

// History returns every ledger entry in the order it was recorded.
func (e *Engine) History(ctx context.Context) ([]ledger.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ledger.Entries(ctx)
}

// CurrentLoans returns the open loans projected from the ledger, in loan order.
func (e *Engine) CurrentLoans(ctx context.Context) ([]ledger.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loans, err := e.ledger.CurrentLoans(ctx)
	if err != nil {
		return nil, err
	}

	// Loans of deleted books are no longer in the availability set.
	open := make([]ledger.Entry, 0, len(loans))
	for _, loan := range loans {
		if e.isOnLoan(loan.ISBN) {
			open = append(open, loan)
		}
	}

	return open, nil
}

// Waiting returns a snapshot of the reservation queue of isbn, head first.
func (e *Engine) Waiting(ctx context.Context, isbn core.ISBNString) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.queues.Waiting(isbn), nil
}

// IsOnLoan reports whether isbn is in the availability set.
func (e *Engine) IsOnLoan(isbn core.ISBNString) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.isOnLoan(isbn)
}
