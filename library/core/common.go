package core

import (
	"strings"
	"time"
)

// BookIDString represents a book identifier
type BookIDString = string

// PatronIDString represents a patron identifier
type PatronIDString = string

// ISBNString represents an ISBN identifier
type ISBNString = string

// OccurredAt represents when an event occurred
type OccurredAt = time.Time

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}

// SameName reports whether two operator-entered names or titles refer to the same thing:
// equal after trimming surrounding whitespace, ignoring case.
func SameName(a string, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
