package core

import "errors"

var (
	// ErrValidation marks every record validation failure. It is always joined with a specific error.
	ErrValidation = errors.New("validation failed")

	ErrInvalidISBN     = errors.New("isbn must have exactly 13 characters")
	ErrDuplicateISBN   = errors.New("isbn is already registered")
	ErrInvalidFee      = errors.New("loan fee must be a positive number")
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrInvalidAge      = errors.New("age must be between 1 and 120")
	ErrInvalidDocument = errors.New("document must have exactly 11 characters")
	ErrInvalidPhone    = errors.New("phone must have exactly 11 characters")

	// ErrInvalidDateFormat is returned when a loan or return date is not D/M/YYYY.
	ErrInvalidDateFormat = errors.New("invalid date format, use DD/MM/YYYY")
)

func validationError(err error) error {
	return errors.Join(ErrValidation, err)
}
