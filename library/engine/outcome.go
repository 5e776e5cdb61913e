package engine

import (
	"github.com/AntonStoeckl/lendingdesk/library/ledger"
)

// LoanStatus tells what a loan request resulted in.
type LoanStatus string

const (
	// Lent means the title was handed to the patron.
	Lent LoanStatus = "lent"

	// Queued means the title was on loan and the patron joined its reservation queue.
	Queued LoanStatus = "queued"
)

// AutomaticDate is the loan date recorded when a return hands the title to the next patron in line.
const AutomaticDate = "automatic date"

// LoanOutcome is the result of a loan request or a queue hand-off.
// Title and PatronName are the registered values. Entry records them as the operator typed them.
type LoanOutcome struct {
	Status     LoanStatus
	Title      string
	PatronName string

	// DueInDays is the loan period the patron should be reminded of. Only set when Lent.
	DueInDays int

	// Position is the 1-based place in the reservation queue. Only set when Queued.
	Position int

	// Entry is the recorded loan. Only set when Lent.
	Entry ledger.Entry
}

// ReturnOutcome is the result of a return.
type ReturnOutcome struct {
	Entry ledger.Entry

	// Fee is the amount due, nil when the ledger holds no loan of this title to this patron.
	Fee *float64

	// FeeErr is set when a recorded date could not be parsed. Fee is then the base loan fee.
	FeeErr error

	// HandOff is the automatic loan to the next patron in line, if any.
	HandOff *LoanOutcome
}
