package tracker

import (
	"log/slog"
)

// Notification reports one snapshot's completion, released in topological
// order. Updated is true when the snapshot evaluated all planned batches,
// false when the plan excluded it.
type Notification struct {
	Name    string
	Updated bool
}

// Tracker turns unordered batch completions into ordered notifications.
//
// The topological order is fixed for the Tracker's lifetime and spans the
// whole dependency graph, not just the planned snapshots. The cursor never
// moves backwards; a new plan replaces the batch expectations but already
// notified snapshots stay notified.
//
// Not safe for concurrent use. All methods run on the event-consuming
// goroutine.
type Tracker struct {
	logger  *slog.Logger
	order   []string
	batches map[string]int
	counts  map[string]int
	status  map[string]bool
	cursor  int
}

// New creates a Tracker over a fixed topological order.
// A nil logger uses slog.Default.
func New(order []string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		logger:  logger,
		order:   order,
		batches: make(map[string]int),
		counts:  make(map[string]int),
		status:  make(map[string]bool),
	}
}

// Plan installs the batch expectations for the coming run. Snapshots in
// the order that the plan excludes are resolved immediately as not
// updated; planned snapshots stay unresolved until their final batch
// completes.
//
// Calling Plan again replaces the previous expectations wholesale. The
// cursor is not reset.
func (t *Tracker) Plan(batches map[string]int) {
	t.batches = make(map[string]int, len(batches))
	t.counts = make(map[string]int, len(batches))
	for name, expected := range batches {
		t.batches[name] = expected
		t.counts[name] = 0
	}

	t.status = make(map[string]bool, len(t.order))
	for _, name := range t.order {
		if _, planned := t.batches[name]; !planned {
			t.status[name] = false
		}
	}

	t.logger.Debug("tracking plan",
		"planned", len(t.batches),
		"excluded", len(t.status),
	)
}

// Update records one completed batch for a snapshot and returns the
// snapshot's progress. The snapshot resolves as updated when its last
// planned batch completes.
//
// Completions for snapshots outside the current plan, or beyond the
// planned batch count, violate the tracker's preconditions and return a
// *StateError.
func (t *Tracker) Update(name string, batchIdx int) (done, expected int, err error) {
	expected, planned := t.batches[name]
	if !planned {
		return 0, 0, newUnknownSnapshotError(name)
	}
	if t.counts[name] >= expected {
		return t.counts[name], expected, newBatchOverflowError(name, expected)
	}

	t.counts[name]++
	done = t.counts[name]
	if done == expected {
		t.status[name] = true
	}

	t.logger.Debug("batch completed",
		"snapshot", name,
		"batch", batchIdx,
		"done", done,
		"expected", expected,
	)
	return done, expected, nil
}

// Next releases the next notification if the snapshot at the cursor has
// resolved. It returns false when the cursor snapshot is still pending or
// every snapshot has been notified; polling in that state has no side
// effects.
func (t *Tracker) Next() (Notification, bool) {
	if t.cursor >= len(t.order) {
		return Notification{}, false
	}

	name := t.order[t.cursor]
	updated, resolved := t.status[name]
	if !resolved {
		return Notification{}, false
	}

	t.cursor++
	return Notification{Name: name, Updated: updated}, true
}

// Pending returns the snapshots at or after the cursor that have not
// resolved, in topological order. A non-empty result at end of stream
// means the engine never reported their completion.
func (t *Tracker) Pending() []string {
	var pending []string
	for _, name := range t.order[t.cursor:] {
		if _, resolved := t.status[name]; !resolved {
			pending = append(pending, name)
		}
	}
	return pending
}
