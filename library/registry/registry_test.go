package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/registry"
)

func domCasmurro() core.BookFields {
	return core.BookFields{
		Title:      "Dom Casmurro",
		Author:     "Machado de Assis",
		ISBN:       "9788535910663",
		LoanFee:    10.0,
		AgeRating:  "12",
		Quantity:   2,
		AcquiredOn: "01/01/2024",
	}
}

func ana() core.PatronFields {
	return core.PatronFields{Name: "Ana Souza", Age: 30, Document: "12345678901", Phone: "11987654321"}
}

func Test_Books_Register(t *testing.T) {
	t.Run("valid book is registered with an id", func(t *testing.T) {
		books := registry.NewBooks()

		book, err := books.Register(domCasmurro())

		require.NoError(t, err)
		assert.NotEmpty(t, book.ID)
		assert.Equal(t, []core.Book{book}, books.All())
	})

	t.Run("invalid isbn leaves the registry unchanged", func(t *testing.T) {
		books := registry.NewBooks()
		fields := domCasmurro()
		fields.ISBN = "123"

		_, err := books.Register(fields)

		assert.ErrorIs(t, err, core.ErrInvalidISBN)
		assert.Empty(t, books.All())
	})

	t.Run("duplicate isbn is rejected", func(t *testing.T) {
		books := registry.NewBooks()
		_, err := books.Register(domCasmurro())
		require.NoError(t, err)
		other := domCasmurro()
		other.Title = "Another Title"

		_, err = books.Register(other)

		assert.ErrorIs(t, err, core.ErrValidation)
		assert.ErrorIs(t, err, core.ErrDuplicateISBN)
		assert.Len(t, books.All(), 1)
	})
}

func Test_Books_Find(t *testing.T) {
	books := registry.NewBooks()
	registered, err := books.Register(domCasmurro())
	require.NoError(t, err)

	byTitle, found := books.FindByTitle("  dom CASMURRO ")
	assert.True(t, found)
	assert.Equal(t, registered, byTitle)

	byISBN, found := books.FindByISBN("9788535910663")
	assert.True(t, found)
	assert.Equal(t, registered, byISBN)

	_, found = books.FindByTitle("Dom")
	assert.False(t, found)
}

func Test_Books_Edit(t *testing.T) {
	t.Run("edit keeps the isbn", func(t *testing.T) {
		books := registry.NewBooks()
		registered, err := books.Register(domCasmurro())
		require.NoError(t, err)

		edited, found, err := books.Edit("dom casmurro", core.BookEdit{Title: "Dom Casmurro (2a ed.)", Author: "Machado", LoanFee: 12.5, Quantity: 1})

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, registered.ISBN, edited.ISBN)
		assert.Equal(t, registered.ID, edited.ID)
		assert.Equal(t, []core.Book{edited}, books.All())
	})

	t.Run("invalid edit leaves the book unchanged", func(t *testing.T) {
		books := registry.NewBooks()
		registered, err := books.Register(domCasmurro())
		require.NoError(t, err)

		_, found, err := books.Edit("Dom Casmurro", core.BookEdit{Title: "X", LoanFee: 0})

		assert.True(t, found)
		assert.ErrorIs(t, err, core.ErrInvalidFee)
		assert.Equal(t, []core.Book{registered}, books.All())
	})

	t.Run("unknown title is not found", func(t *testing.T) {
		books := registry.NewBooks()

		_, found, err := books.Edit("Nope", core.BookEdit{})

		assert.NoError(t, err)
		assert.False(t, found)
	})
}

func Test_Books_Delete(t *testing.T) {
	books := registry.NewBooks()
	registered, err := books.Register(domCasmurro())
	require.NoError(t, err)

	deleted, found := books.Delete("DOM CASMURRO")
	assert.True(t, found)
	assert.Equal(t, registered, deleted)
	assert.Empty(t, books.All())

	_, found = books.Delete("Dom Casmurro")
	assert.False(t, found)
}

func Test_Patrons(t *testing.T) {
	t.Run("register, find and delete", func(t *testing.T) {
		patrons := registry.NewPatrons()

		registered, err := patrons.Register(ana())
		require.NoError(t, err)

		found, ok := patrons.FindByName(" ana souza")
		assert.True(t, ok)
		assert.Equal(t, registered, found)

		_, ok = patrons.Delete("Ana Souza")
		assert.True(t, ok)
		assert.Empty(t, patrons.All())
	})

	t.Run("invalid phone leaves the registry unchanged", func(t *testing.T) {
		patrons := registry.NewPatrons()
		fields := ana()
		fields.Phone = "119876"

		_, err := patrons.Register(fields)

		assert.ErrorIs(t, err, core.ErrInvalidPhone)
		assert.Empty(t, patrons.All())
	})

	t.Run("edit keeps eligibility", func(t *testing.T) {
		patrons := registry.NewPatrons()
		fields := ana()
		fields.Age = 16
		_, err := patrons.Register(fields)
		require.NoError(t, err)
		fields.Age = 40

		edited, found, err := patrons.Edit("Ana Souza", fields)

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 40, edited.Age)
		assert.False(t, edited.Eligible)
	})
}
