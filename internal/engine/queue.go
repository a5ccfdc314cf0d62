package engine

import (
	"sync"
	"sync/atomic"
)

// QueueSize is the number of events the queue holds between two blocks.
const QueueSize = 256

// Queue is a bounded ring of events with a single consumer. Producers
// serialize on a mutex; the consumer only uses atomic loads and stores and
// never waits.
type Queue struct {
	mu      sync.Mutex
	events  [QueueSize]Event
	head    atomic.Uint64 // next slot to read
	tail    atomic.Uint64 // next slot to write
	dropped atomic.Uint64
}

// Push appends ev. It returns false and counts a drop when the queue is full.
func (q *Queue) Push(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := q.tail.Load()
	if t-q.head.Load() >= QueueSize {
		q.dropped.Add(1)
		return false
	}
	q.events[t%QueueSize] = ev
	q.tail.Store(t + 1)
	return true
}

// Pop removes the oldest event. Only the consumer may call it.
func (q *Queue) Pop() (Event, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return Event{}, false
	}
	ev := q.events[h%QueueSize]
	q.head.Store(h + 1)
	return ev, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	h := q.head.Load()
	return int(q.tail.Load() - h)
}

// Dropped returns how many events were rejected because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
