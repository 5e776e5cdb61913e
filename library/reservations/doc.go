// Package reservations keeps one FIFO wait list of patron names per isbn.
//
// Queues are not safe for concurrent use; the engine serializes access.
package reservations
