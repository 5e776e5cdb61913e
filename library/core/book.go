package core

import (
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ISBNLength is the exact number of characters of an isbn.
const ISBNLength = 13

// Book is a loanable title. ISBN is its identity and never changes after registration.
type Book struct {
	ID         BookIDString
	Title      string
	Author     string
	ISBN       ISBNString
	LoanFee    float64
	AgeRating  string
	Quantity   int
	AcquiredOn string
}

// BookFields are the operator-supplied values of a book registration.
type BookFields struct {
	Title      string
	Author     string
	ISBN       ISBNString
	LoanFee    float64
	AgeRating  string
	Quantity   int
	AcquiredOn string
}

// BookEdit are the fields an edit may change.
type BookEdit struct {
	Title     string
	Author    string
	LoanFee   float64
	AgeRating string
	Quantity  int
}

// BuildBook validates the fields and creates a Book.
func BuildBook(id uuid.UUID, fields BookFields) (Book, error) {
	if utf8.RuneCountInString(fields.ISBN) != ISBNLength {
		return Book{}, validationError(ErrInvalidISBN)
	}

	if err := validateLoanTerms(fields.LoanFee, fields.Quantity); err != nil {
		return Book{}, err
	}

	return Book{
		ID:         id.String(),
		Title:      fields.Title,
		Author:     fields.Author,
		ISBN:       fields.ISBN,
		LoanFee:    fields.LoanFee,
		AgeRating:  fields.AgeRating,
		Quantity:   fields.Quantity,
		AcquiredOn: fields.AcquiredOn,
	}, nil
}

// Edited returns a copy of the book with the edit applied, keeping ID, ISBN and AcquiredOn.
func (b Book) Edited(edit BookEdit) (Book, error) {
	if err := validateLoanTerms(edit.LoanFee, edit.Quantity); err != nil {
		return Book{}, err
	}

	b.Title = edit.Title
	b.Author = edit.Author
	b.LoanFee = edit.LoanFee
	b.AgeRating = edit.AgeRating
	b.Quantity = edit.Quantity

	return b, nil
}

func validateLoanTerms(loanFee float64, quantity int) error {
	if !(loanFee > 0) || math.IsInf(loanFee, 1) {
		return validationError(ErrInvalidFee)
	}

	if quantity < 0 {
		return validationError(ErrInvalidQuantity)
	}

	return nil
}
