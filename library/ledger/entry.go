package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/AntonStoeckl/lendingdesk/eventstore"
	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/shell"
)

// Action is what an Entry records.
type Action string

const (
	ActionLoan   Action = "loan"
	ActionReturn Action = "return"
)

// Entry is one ledger record. Date is the operator-entered date and may be empty.
// SequenceNumber is only set on entries read back from the store.
type Entry struct {
	Action         Action
	ISBN           core.ISBNString
	Title          string
	PatronName     string
	Date           string
	RecordedAt     time.Time
	SequenceNumber eventstore.MaxSequenceNumberUint
	Metadata       shell.EventMetadata
}

// String renders the entry as a history line, e.g. "LOAN: Dom Casmurro -> Ana on 01/03/2025".
func (e Entry) String() string {
	line := fmt.Sprintf("%s: %s -> %s", strings.ToUpper(string(e.Action)), e.Title, e.PatronName)
	if e.Date == "" {
		return line
	}

	return line + " on " + e.Date
}

func entryFrom(storableEvent eventstore.StorableEvent) (Entry, error) {
	domainEvent, err := shell.DomainEventFrom(storableEvent)
	if err != nil {
		return Entry{}, err
	}

	metadata, err := shell.EventMetadataFrom(storableEvent)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		RecordedAt:     storableEvent.OccurredAt,
		SequenceNumber: storableEvent.SequenceNumber,
		Metadata:       metadata,
	}

	switch e := domainEvent.(type) {
	case core.BookLoaned:
		entry.Action = ActionLoan
		entry.ISBN, entry.Title, entry.PatronName, entry.Date = e.ISBN, e.Title, e.PatronName, e.Date

	case core.BookReturned:
		entry.Action = ActionReturn
		entry.ISBN, entry.Title, entry.PatronName, entry.Date = e.ISBN, e.Title, e.PatronName, e.Date
	}

	return entry, nil
}
