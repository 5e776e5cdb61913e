package engine

import "errors"

var (
	// ErrNotFound is returned when a book title or patron name does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrNotOnLoan is returned when a title is returned that is not registered as loaned.
	ErrNotOnLoan = errors.New("book is not registered as loaned")

	// ErrInvalidFeePolicy is returned for a negative loan period or late fee.
	ErrInvalidFeePolicy = errors.New("fee policy must not be negative")

	// ErrNilLedger is returned when an Engine is created without a ledger.
	ErrNilLedger = errors.New("ledger must not be nil")
)
