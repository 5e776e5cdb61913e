// Package registry holds the registered books and patrons.
//
// Lookups are linear and match names and titles ignoring case and surrounding whitespace.
// The first match wins. Registries are not safe for concurrent use.
package registry
