// Package engine is the lending desk: it owns the books, patrons, availability set, reservation
// queues and the ledger, and serializes every operation on them with one mutex.
//
// At most one loan per title is outstanding at any time. An isbn is in the availability set
// exactly while that loan is open. Requests for a title on loan join its reservation queue,
// and every return hands the title to the head of the queue.
package engine
