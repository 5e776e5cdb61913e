package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/AntonStoeckl/lendingdesk/library/core"
	"github.com/AntonStoeckl/lendingdesk/library/engine"
)

const menuText = `
--- MAIN MENU ---
1. Register book
2. Register patron
3. Lend book
4. Show history
5. Return book
6. Find book
7. Find patron
8. Edit book
9. Delete book
10. Edit patron
11. Delete patron
12. Books on loan
13. Show waiting list
0. Quit`

// errInputClosed ends the session when stdin runs dry in the middle of a prompt.
var errInputClosed = errors.New("input closed")

// Menu reads operator choices line by line and hands the parsed fields to the lending desk.
type Menu struct {
	desk *engine.Engine
	in   *bufio.Scanner
	out  io.Writer
}

// NewMenu creates a Menu reading from in and writing to out.
func NewMenu(desk *engine.Engine, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		desk: desk,
		in:   bufio.NewScanner(in),
		out:  out,
	}
}

// Run shows the menu until the operator quits, the input ends or ctx is canceled.
// Every answer is trimmed of surrounding whitespace.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			m.println("Shutting down...")
			return nil
		}

		m.println(menuText)

		choice, err := m.ask("Choose an option: ")
		if err != nil {
			return m.endOfInput(err)
		}

		if choice == "0" {
			m.println("Leaving the system...")
			return nil
		}

		if err = m.dispatch(ctx, choice); err != nil {
			return m.endOfInput(err)
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, choice string) error {
	actions := map[string]func(context.Context) error{
		"1":  m.registerBook,
		"2":  m.registerPatron,
		"3":  m.lendBook,
		"4":  m.showHistory,
		"5":  m.returnBook,
		"6":  m.findBook,
		"7":  m.findPatron,
		"8":  m.editBook,
		"9":  m.deleteBook,
		"10": m.editPatron,
		"11": m.deletePatron,
		"12": m.booksOnLoan,
		"13": m.showWaitingList,
	}

	action, ok := actions[choice]
	if !ok {
		m.println("Invalid option. Try again.")
		return nil
	}

	return action(ctx)
}

func (m *Menu) registerBook(ctx context.Context) error {
	m.println("\n--- Register Book ---")

	answers, err := m.askAll(
		"Title: ",
		"Author: ",
		"ISBN (13 characters): ",
		"Loan fee: ",
		"Age rating: ",
		"Quantity: ",
		"Acquisition date (DD/MM/YYYY): ",
	)
	if err != nil {
		return err
	}

	fee, quantity, ok := m.parseLoanTerms(answers[3], answers[5])
	if !ok {
		return nil
	}

	book, err := m.desk.RegisterBook(ctx, core.BookFields{
		Title:      answers[0],
		Author:     answers[1],
		ISBN:       answers[2],
		LoanFee:    fee,
		AgeRating:  answers[4],
		Quantity:   quantity,
		AcquiredOn: answers[6],
	})
	if err != nil {
		m.reportError(err)
		return nil
	}

	m.printf("Book '%s' registered.\n", book.Title)

	return nil
}

func (m *Menu) registerPatron(ctx context.Context) error {
	m.println("\n--- Register Patron ---")

	fields, ok, err := m.askPatronFields()
	if err != nil || !ok {
		return err
	}

	patron, err := m.desk.RegisterPatron(ctx, fields)
	if err != nil {
		m.reportError(err)
		return nil
	}

	m.printf("Patron '%s' registered.\n", patron.Name)

	return nil
}

func (m *Menu) lendBook(ctx context.Context) error {
	m.println("\n--- Lend Book ---")

	answers, err := m.askAll("Patron name: ", "Book title: ", "Loan date (DD/MM/YYYY): ")
	if err != nil {
		return err
	}

	outcome, err := m.desk.RequestLoan(ctx, answers[0], answers[1], answers[2])
	if err != nil {
		m.reportError(err)
		return nil
	}

	m.printLoanOutcome(outcome)

	return nil
}

func (m *Menu) showHistory(ctx context.Context) error {
	m.println("\n--- Loan History ---")

	entries, err := m.desk.History(ctx)
	if err != nil {
		m.reportError(err)
		return nil
	}

	for _, entry := range entries {
		m.println(entry.String())
	}

	return nil
}

func (m *Menu) returnBook(ctx context.Context) error {
	m.println("\n--- Return Book ---")

	answers, err := m.askAll("Book title: ", "Patron returning the book: ", "Return date (DD/MM/YYYY): ")
	if err != nil {
		return err
	}

	outcome, err := m.desk.ReturnLoan(ctx, answers[0], answers[1], answers[2])
	if outcome.Fee != nil {
		if outcome.FeeErr != nil {
			m.println("Invalid date format. Use DD/MM/YYYY")
		}

		m.printf("Amount due: R$%.2f\n", *outcome.Fee)
	}

	if outcome.Entry.Action != "" {
		m.printf("Book '%s' returned by %s.\n", outcome.Entry.Title, outcome.Entry.PatronName)
	}

	if outcome.HandOff != nil {
		m.printf("Book '%s' is available again. Lending it automatically to %s.\n",
			outcome.HandOff.Title, outcome.HandOff.PatronName)
		m.printLoanOutcome(*outcome.HandOff)
	}

	if err != nil {
		m.reportError(err)
	}

	return nil
}

func (m *Menu) findBook(ctx context.Context) error {
	title, err := m.ask("Title of the book to find: ")
	if err != nil {
		return err
	}

	book, err := m.desk.FindBook(ctx, title)
	if err != nil {
		m.reportError(err)
		return nil
	}

	m.println("\n--- Book Found ---")
	m.printf("Title: %s\nAuthor: %s\nISBN: %s\n", book.Title, book.Author, book.ISBN)
	m.printf("Loan fee: R$%.2f\n", book.LoanFee)
	m.printf("Age rating: %s\nQuantity: %d\n", book.AgeRating, book.Quantity)

	return nil
}

func (m *Menu) findPatron(ctx context.Context) error {
	name, err := m.ask("Name of the patron to find: ")
	if err != nil {
		return err
	}

	patron, err := m.desk.FindPatron(ctx, name)
	if err != nil {
		m.reportError(err)
		return nil
	}

	m.println("\n--- Patron Found ---")
	m.printf("Name: %s\nAge: %d\n", patron.Name, patron.Age)
	m.printf("Document: %s\nPhone: %s\n", patron.Document, patron.Phone)

	return nil
}

func (m *Menu) editBook(ctx context.Context) error {
	title, err := m.ask("Title of the book to edit: ")
	if err != nil {
		return err
	}

	if _, err = m.desk.FindBook(ctx, title); err != nil {
		m.reportError(err)
		return nil
	}

	m.println("Edit the book (the ISBN cannot change):")

	answers, err := m.askAll("Title: ", "Author: ", "Loan fee: ", "Age rating: ", "Quantity: ")
	if err != nil {
		return err
	}

	fee, quantity, ok := m.parseLoanTerms(answers[2], answers[4])
	if !ok {
		return nil
	}

	_, err = m.desk.EditBook(ctx, title, core.BookEdit{
		Title:     answers[0],
		Author:    answers[1],
		LoanFee:   fee,
		AgeRating: answers[3],
		Quantity:  quantity,
	})
	if err != nil {
		m.reportError(err)
		return nil
	}

	m.println("Book edited.")

	return nil
}

func (m *Menu) deleteBook(ctx context.Context) error {
	title, err := m.ask("Title of the book to delete: ")
	if err != nil {
		return err
	}

	if _, err = m.desk.DeleteBook(ctx, title); err != nil {
		m.reportError(err)
		return nil
	}

	m.println("Book deleted.")

	return nil
}

func (m *Menu) editPatron(ctx context.Context) error {
	name, err := m.ask("Name of the patron to edit: ")
	if err != nil {
		return err
	}

	if _, err = m.desk.FindPatron(ctx, name); err != nil {
		m.reportError(err)
		return nil
	}

	m.println("Edit the patron:")

	fields, ok, err := m.askPatronFields()
	if err != nil || !ok {
		return err
	}

	if _, err = m.desk.EditPatron(ctx, name, fields); err != nil {
		m.reportError(err)
		return nil
	}

	m.println("Patron edited.")

	return nil
}

func (m *Menu) deletePatron(ctx context.Context) error {
	name, err := m.ask("Name of the patron to delete: ")
	if err != nil {
		return err
	}

	if _, err = m.desk.DeletePatron(ctx, name); err != nil {
		m.reportError(err)
		return nil
	}

	m.println("Patron deleted.")

	return nil
}

func (m *Menu) booksOnLoan(ctx context.Context) error {
	m.println("\n--- Books on Loan ---")

	loans, err := m.desk.CurrentLoans(ctx)
	if err != nil {
		m.reportError(err)
		return nil
	}

	if len(loans) == 0 {
		m.println("No books are on loan.")
		return nil
	}

	for _, loan := range loans {
		m.printf("%s -> %s\n", loan.Title, loan.PatronName)
	}

	return nil
}

func (m *Menu) showWaitingList(ctx context.Context) error {
	title, err := m.ask("Book title: ")
	if err != nil {
		return err
	}

	book, err := m.desk.FindBook(ctx, title)
	if err != nil {
		m.reportError(err)
		return nil
	}

	waiting, err := m.desk.Waiting(ctx, book.ISBN)
	if err != nil {
		m.reportError(err)
		return nil
	}

	if len(waiting) == 0 {
		m.printf("Nobody is waiting for '%s'.\n", book.Title)
		return nil
	}

	m.printf("Waiting for '%s':\n", book.Title)
	for i, name := range waiting {
		m.printf("%d. %s\n", i+1, name)
	}

	return nil
}

func (m *Menu) printLoanOutcome(outcome engine.LoanOutcome) {
	switch outcome.Status {
	case engine.Lent:
		m.printf("Book '%s' lent to %s!\n", outcome.Title, outcome.PatronName)
		m.printf("Remember: the book is due back within %d days of the loan.\n", outcome.DueInDays)

	case engine.Queued:
		m.printf("Book unavailable. %s joined the waiting list at position %d.\n", outcome.PatronName, outcome.Position)
	}
}

func (m *Menu) askPatronFields() (core.PatronFields, bool, error) {
	answers, err := m.askAll("Name: ", "Age: ", "Document (11 characters): ", "Phone (11 characters): ")
	if err != nil {
		return core.PatronFields{}, false, err
	}

	age, err := strconv.Atoi(answers[1])
	if err != nil {
		m.println("Error: age must be a whole number.")
		return core.PatronFields{}, false, nil
	}

	return core.PatronFields{
		Name:     answers[0],
		Age:      age,
		Document: answers[2],
		Phone:    answers[3],
	}, true, nil
}

func (m *Menu) parseLoanTerms(rawFee string, rawQuantity string) (float64, int, bool) {
	fee, err := strconv.ParseFloat(strings.ReplaceAll(rawFee, ",", "."), 64)
	if err != nil {
		m.println("Error: loan fee must be a number.")
		return 0, 0, false
	}

	quantity, err := strconv.Atoi(rawQuantity)
	if err != nil {
		m.println("Error: quantity must be a whole number.")
		return 0, 0, false
	}

	return fee, quantity, true
}

func (m *Menu) reportError(err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		m.println("Patron or book not found.")

	case errors.Is(err, engine.ErrNotOnLoan):
		m.println("This book is not registered as loaned.")

	case errors.Is(err, core.ErrValidation):
		m.printf("Error: %s\n", strings.ReplaceAll(err.Error(), "\n", ": "))

	default:
		m.printf("Operation failed: %s\n", strings.ReplaceAll(err.Error(), "\n", ": "))
	}
}

func (m *Menu) ask(prompt string) (string, error) {
	m.printf("%s", prompt)

	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}

		return "", errInputClosed
	}

	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) askAll(prompts ...string) ([]string, error) {
	answers := make([]string, 0, len(prompts))

	for _, prompt := range prompts {
		answer, err := m.ask(prompt)
		if err != nil {
			return nil, err
		}

		answers = append(answers, answer)
	}

	return answers, nil
}

func (m *Menu) endOfInput(err error) error {
	if errors.Is(err, errInputClosed) {
		m.println("")
		return nil
	}

	return err
}

func (m *Menu) println(line string) {
	_, _ = fmt.Fprintln(m.out, line)
}

func (m *Menu) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(m.out, format, args...)
}
