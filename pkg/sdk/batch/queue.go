package batch

import (
	"sync"

	"github.com/nicktill/tinytrack/pkg/sdk/events"
)

// Queue buffers records in observation order until they are drained.
type Queue struct {
	maxSize int

	mu      sync.Mutex
	records []events.Record
}

// NewQueue creates a queue that reports full at maxSize records
func NewQueue(maxSize int) *Queue {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Queue{
		maxSize: maxSize,
		records: make([]events.Record, 0, maxSize),
	}
}

// Append adds r at the tail and reports whether the queue has reached
// its batch size, in which case the caller must flush now.
func (q *Queue) Append(r events.Record) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.records = append(q.records, r)
	return len(q.records) >= q.maxSize
}

// Drain returns every queued record in insertion order and leaves the
// queue empty. Reading and clearing happen under one lock, so a record
// is never both returned and retained.
func (q *Queue) Drain() []events.Record {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return nil
	}

	drained := q.records
	q.records = make([]events.Record, 0, q.maxSize)
	return drained
}

// Len returns the number of queued records
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}
