package relay

import "github.com/roach88/meshbridge/internal/console"

// Sequence chains the streams produced by parts into one. Parts are
// started lazily: each part runs only after the previous part's stream
// ended without error. A failed part's error becomes the sequence's error
// and later parts never start.
func Sequence(parts ...func() Stream) Stream {
	return &sequence{parts: parts}
}

// Fail returns an already-ended stream carrying err. Producers use it when
// they fail before any worker starts.
func Fail(err error) Stream {
	return &failed{err: err}
}

type failed struct {
	err error
}

func (s *failed) Next() bool           { return false }
func (s *failed) Event() console.Event { return nil }
func (s *failed) Err() error           { return s.err }
func (s *failed) Drain() error         { return s.err }

type sequence struct {
	parts []func() Stream
	cur   Stream
	err   error
	done  bool
}

func (s *sequence) Next() bool {
	if s.done {
		return false
	}

	for {
		if s.cur == nil {
			if len(s.parts) == 0 {
				s.done = true
				return false
			}
			s.cur = s.parts[0]()
			s.parts = s.parts[1:]
		}

		if s.cur.Next() {
			return true
		}

		if err := s.cur.Err(); err != nil {
			s.err = err
			s.done = true
			return false
		}

		s.cur = nil
	}
}

func (s *sequence) Event() console.Event {
	if s.cur == nil {
		return nil
	}
	return s.cur.Event()
}

func (s *sequence) Err() error {
	return s.err
}

func (s *sequence) Drain() error {
	for s.Next() {
	}
	return s.Err()
}
