package reservations

import (
	"slices"

	"github.com/AntonStoeckl/lendingdesk/library/core"
)

// Queues maps an isbn to its wait list.
type Queues struct {
	waiting map[core.ISBNString][]string
}

// NewQueues creates an empty set of queues.
func NewQueues() *Queues {
	return &Queues{waiting: make(map[core.ISBNString][]string)}
}

// Create makes an empty queue for isbn if there is none yet.
func (q *Queues) Create(isbn core.ISBNString) {
	if _, ok := q.waiting[isbn]; !ok {
		q.waiting[isbn] = make([]string, 0)
	}
}

// Enqueue appends patronName to the queue of isbn, creating the queue if needed,
// and returns the 1-based position. The same name may be queued more than once.
func (q *Queues) Enqueue(isbn core.ISBNString, patronName string) int {
	q.waiting[isbn] = append(q.waiting[isbn], patronName)

	return len(q.waiting[isbn])
}

// Dequeue pops the head of the queue of isbn.
func (q *Queues) Dequeue(isbn core.ISBNString) (string, bool) {
	names := q.waiting[isbn]
	if len(names) == 0 {
		return "", false
	}

	head := names[0]
	q.waiting[isbn] = slices.Delete(names, 0, 1)

	return head, true
}

// Peek returns the head of the queue of isbn without removing it.
func (q *Queues) Peek(isbn core.ISBNString) (string, bool) {
	names := q.waiting[isbn]
	if len(names) == 0 {
		return "", false
	}

	return names[0], true
}

// Remove drops the queue of isbn entirely.
func (q *Queues) Remove(isbn core.ISBNString) {
	delete(q.waiting, isbn)
}

// Exists reports whether isbn has a queue, even an empty one.
func (q *Queues) Exists(isbn core.ISBNString) bool {
	_, ok := q.waiting[isbn]

	return ok
}

// Waiting returns a copy of the queue of isbn, head first.
func (q *Queues) Waiting(isbn core.ISBNString) []string {
	return slices.Clone(q.waiting[isbn])
}

// Len is the number of names waiting for isbn.
func (q *Queues) Len(isbn core.ISBNString) int {
	return len(q.waiting[isbn])
}
