package core

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxPatronAge is the highest age a patron may be registered with.
	MaxPatronAge = 120

	// AdultAge is the age from which a patron is eligible.
	AdultAge = 18

	// DocumentLength is the exact number of characters of a document id.
	DocumentLength = 11

	// PhoneLength is the exact number of characters of a phone number.
	PhoneLength = 11
)

// Patron is a library member.
// Eligible is derived from the age at registration and is not recomputed on edit.
type Patron struct {
	ID       PatronIDString
	Name     string
	Age      int
	Document string
	Phone    string
	Eligible bool
}

// PatronFields are the operator-supplied values of a patron registration or edit.
type PatronFields struct {
	Name     string
	Age      int
	Document string
	Phone    string
}

// BuildPatron validates the fields and creates a Patron.
func BuildPatron(id uuid.UUID, fields PatronFields) (Patron, error) {
	if err := validatePatron(fields); err != nil {
		return Patron{}, err
	}

	return Patron{
		ID:       id.String(),
		Name:     fields.Name,
		Age:      fields.Age,
		Document: fields.Document,
		Phone:    fields.Phone,
		Eligible: fields.Age >= AdultAge,
	}, nil
}

// Edited returns a copy of the patron with new field values. Eligible stays as it was.
func (p Patron) Edited(fields PatronFields) (Patron, error) {
	if err := validatePatron(fields); err != nil {
		return Patron{}, err
	}

	p.Name = fields.Name
	p.Age = fields.Age
	p.Document = fields.Document
	p.Phone = fields.Phone

	return p, nil
}

func validatePatron(fields PatronFields) error {
	if fields.Age <= 0 || fields.Age > MaxPatronAge {
		return validationError(ErrInvalidAge)
	}

	if utf8.RuneCountInString(fields.Document) != DocumentLength {
		return validationError(ErrInvalidDocument)
	}

	if utf8.RuneCountInString(fields.Phone) != PhoneLength {
		return validationError(ErrInvalidPhone)
	}

	return nil
}
