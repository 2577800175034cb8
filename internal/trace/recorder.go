package trace

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/meshbridge/internal/console"
)

// Recorder persists console events to a Store as they arrive. One
// Recorder covers one run; its clock stamps every event with a sequence
// number reflecting delivery order.
//
// Recording is best effort. A record failure is logged and the event
// dropped; it never disturbs the run that produced it.
type Recorder struct {
	store  *Store
	runID  string
	clock  *Clock
	logger *slog.Logger
}

// NewRecorder creates a recorder for a fresh run id.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		runID:  uuid.NewString(),
		clock:  NewClock(),
		logger: logger,
	}
}

// ResumeRecorder creates a recorder that appends to an existing run,
// continuing the sequence from the last recorded position.
func ResumeRecorder(ctx context.Context, store *Store, runID string, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	last, err := store.LastSeq(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		store:  store,
		runID:  runID,
		clock:  NewClockAt(last),
		logger: logger,
	}, nil
}

// RunID returns the id events are recorded under.
func (r *Recorder) RunID() string {
	return r.runID
}

// Handle is a console.Handler. It stamps the event with the next sequence
// number and writes it to the store.
func (r *Recorder) Handle(ev console.Event) {
	seq := r.clock.Next()
	payload, err := MarshalPayload(EventPayload(ev))
	if err != nil {
		r.logger.Warn("trace payload not encodable",
			"event", console.EventName(ev), "seq", seq, "error", err)
		return
	}
	rec := Record{
		RunID:   r.runID,
		Seq:     seq,
		Event:   console.EventName(ev),
		Payload: payload,
	}
	if err := r.store.Record(context.Background(), rec); err != nil {
		r.logger.Warn("trace record failed",
			"event", rec.Event, "seq", seq, "error", err)
	}
}
