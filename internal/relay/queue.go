package relay

import (
	"sync"

	"github.com/roach88/meshbridge/internal/console"
)

// eventQueue is a thread-safe FIFO queue for console events.
//
// The queue is unbounded so the engine worker never blocks on a slow
// consumer; an engine invocation can emit arbitrarily many progress events
// between consumer reads.
//
// The queue uses a buffered signal channel (size 1) so the consumer can
// wait for availability without spinning. Close closes the channel, waking
// any blocked waiter.
type eventQueue struct {
	mu     sync.Mutex
	events []console.Event
	closed bool
	signal chan struct{}
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]console.Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(ev console.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, ev)

	// Non-blocking send; the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (nil, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (console.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, false
	}

	ev := q.events[0]

	// Nil out the slot so the backing array does not retain the event's
	// pointers until reallocation.
	q.events[0] = nil

	if len(q.events) == 1 {
		// Last element: reset to empty slice, keeping the capacity.
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return ev, true
}

// Wait returns a channel that signals when events may be available.
// Use together with TryDequeue:
//
//	for {
//	    if ev, ok := q.TryDequeue(); ok { ... }
//	    if q.drained() { return }
//	    <-q.Wait()
//	}
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// drained reports whether the queue is closed with no events remaining.
func (q *eventQueue) drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.events) == 0
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
