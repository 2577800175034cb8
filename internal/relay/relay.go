package relay

import (
	"log/slog"
	"sync"

	"github.com/roach88/meshbridge/internal/console"
)

// Stream is the consuming side of one engine invocation. Iteration follows
// the database/sql rows shape:
//
//	stream := instance.Plan(opts)
//	for stream.Next() {
//	    handle(stream.Event())
//	}
//	if err := stream.Err(); err != nil {
//	    ...
//	}
//
// Next returns false only once the worker goroutine has finished and been
// joined, so a terminated stream leaves nothing running behind it.
type Stream interface {
	// Next blocks until an event is available or the stream has ended.
	Next() bool

	// Event returns the event produced by the last successful Next.
	Event() console.Event

	// Err returns the worker's failure, if any, once the stream has ended.
	Err() error

	// Drain consumes all remaining events and returns Err.
	Drain() error
}

// Relay is the channel between one engine invocation's worker goroutine
// and its consumer. Handle is the producer side, registered as a console
// handler for the duration of the invocation; Stream starts the worker and
// returns the consuming side.
//
// A Relay serves a single invocation. Create a new one per call.
type Relay struct {
	q      *eventQueue
	wg     sync.WaitGroup
	logger *slog.Logger
}

// New creates a Relay. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{q: newEventQueue(), logger: logger}
}

// Handle enqueues one event. It is a console.Handler and may be called
// from any goroutine. Events arriving after the stream has ended are
// dropped with a warning.
func (r *Relay) Handle(ev console.Event) {
	if !r.q.Enqueue(ev) {
		r.logger.Warn("event dropped after stream end", "event", console.EventName(ev))
	}
}

// Stream runs work on a new goroutine and returns the stream of events the
// work publishes through Handle. The stream ends when work returns and the
// queue is drained.
//
// work must report its own failures by publishing a terminal Failure event
// before returning; the stream surfaces that error from Err and does not
// yield the Failure itself.
//
// cleanup, if non-nil, runs exactly once when the stream terminates, after
// the worker goroutine is joined. Callers that abandon a stream without
// iterating it leak the cleanup; use Drain when the events themselves are
// not needed.
func (r *Relay) Stream(work func(), cleanup func()) Stream {
	s := &stream{r: r, cleanup: cleanup}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.q.Close()
		work()
	}()

	return s
}

type stream struct {
	r       *Relay
	cleanup func()
	once    sync.Once

	cur  console.Event
	err  error
	done bool
}

func (s *stream) Next() bool {
	if s.done {
		return false
	}

	for {
		if ev, ok := s.r.q.TryDequeue(); ok {
			if failure, isFailure := ev.(console.Failure); isFailure {
				s.err = failure.Err
				s.finish()
				return false
			}
			s.cur = ev
			return true
		}

		if s.r.q.drained() {
			s.finish()
			return false
		}

		<-s.r.q.Wait()
	}
}

func (s *stream) Event() console.Event {
	return s.cur
}

func (s *stream) Err() error {
	return s.err
}

func (s *stream) Drain() error {
	for s.Next() {
	}
	return s.Err()
}

// finish joins the worker and runs the cleanup, once.
func (s *stream) finish() {
	s.done = true
	s.cur = nil
	s.once.Do(func() {
		s.r.wg.Wait()
		if s.cleanup != nil {
			s.cleanup()
		}
	})
}
