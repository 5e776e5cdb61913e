package registry

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lendingdesk/library/core"
)

// Books is the book registry.
type Books struct {
	books []core.Book
	newID func() uuid.UUID
}

// NewBooks creates an empty book registry.
func NewBooks() *Books {
	return &Books{newID: uuid.New}
}

// Register validates the fields and appends the book. An isbn can be registered only once.
func (r *Books) Register(fields core.BookFields) (core.Book, error) {
	book, err := core.BuildBook(r.newID(), fields)
	if err != nil {
		return core.Book{}, err
	}

	if _, found := r.FindByISBN(book.ISBN); found {
		return core.Book{}, errors.Join(core.ErrValidation, core.ErrDuplicateISBN)
	}

	r.books = append(r.books, book)

	return book, nil
}

// FindByTitle returns the first book with the given title.
func (r *Books) FindByTitle(title string) (core.Book, bool) {
	return r.find(func(b core.Book) bool { return core.SameName(b.Title, title) })
}

// FindByISBN returns the book with the given isbn.
func (r *Books) FindByISBN(isbn core.ISBNString) (core.Book, bool) {
	return r.find(func(b core.Book) bool { return b.ISBN == isbn })
}

// Edit applies the edit to the first book with the given title.
func (r *Books) Edit(title string, edit core.BookEdit) (core.Book, bool, error) {
	i := slices.IndexFunc(r.books, func(b core.Book) bool { return core.SameName(b.Title, title) })
	if i < 0 {
		return core.Book{}, false, nil
	}

	edited, err := r.books[i].Edited(edit)
	if err != nil {
		return core.Book{}, true, err
	}

	r.books[i] = edited

	return edited, true, nil
}

// Delete removes the first book with the given title and returns it.
func (r *Books) Delete(title string) (core.Book, bool) {
	i := slices.IndexFunc(r.books, func(b core.Book) bool { return core.SameName(b.Title, title) })
	if i < 0 {
		return core.Book{}, false
	}

	deleted := r.books[i]
	r.books = slices.Delete(r.books, i, i+1)

	return deleted, true
}

// All returns a copy of the registered books in registration order.
func (r *Books) All() []core.Book {
	return slices.Clone(r.books)
}

func (r *Books) find(match func(core.Book) bool) (core.Book, bool) {
	i := slices.IndexFunc(r.books, match)
	if i < 0 {
		return core.Book{}, false
	}

	return r.books[i], true
}
