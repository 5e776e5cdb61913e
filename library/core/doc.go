// Package core contains the records and ledger events of the lending desk:
// books, patrons, loans and returns of a small library, plus the late fee rule.
//
// Records validate themselves at construction (BuildBook, BuildPatron) and on edit.
// Ledger events implement DomainEvent so they can be stored through the eventstore.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
