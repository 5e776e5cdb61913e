// Package shell maps the lending desk's domain events to and from eventstore.StorableEvent.
//
// Payloads and metadata are encoded with json-iterator.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
