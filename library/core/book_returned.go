package core

import (
	"time"
)

// BookReturnedEventType is the event type identifier.
const BookReturnedEventType = "BookReturned"

// BookReturned represents a title coming back to the desk.
type BookReturned struct {
	ISBN       ISBNString
	Title      string
	PatronName string
	Date       string `json:",omitempty"`
	OccurredAt OccurredAt
}

// BuildBookReturned creates a new BookReturned event.
func BuildBookReturned(isbn ISBNString, title string, patronName string, date string, occurredAt time.Time) BookReturned {
	return BookReturned{
		ISBN:       isbn,
		Title:      title,
		PatronName: patronName,
		Date:       date,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookReturned) EventType() string {
	return BookReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}
