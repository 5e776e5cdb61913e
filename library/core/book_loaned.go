package core

import (
	"time"
)

// BookLoanedEventType is the event type identifier.
const BookLoanedEventType = "BookLoaned"

// BookLoaned represents a title handed to a patron.
// Date is the loan date as the operator entered it and may be empty.
type BookLoaned struct {
	ISBN       ISBNString
	Title      string
	PatronName string
	Date       string `json:",omitempty"`
	OccurredAt OccurredAt
}

// BuildBookLoaned creates a new BookLoaned event.
func BuildBookLoaned(isbn ISBNString, title string, patronName string, date string, occurredAt time.Time) BookLoaned {
	return BookLoaned{
		ISBN:       isbn,
		Title:      title,
		PatronName: patronName,
		Date:       date,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookLoaned) EventType() string {
	return BookLoanedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookLoaned) HasOccurredAt() time.Time {
	return e.OccurredAt
}
