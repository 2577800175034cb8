package testutil

import "sync"

// FixedRunID generates the same run id every time, so golden traces and
// log assertions stay byte-identical across runs.
//
// Implements controller.RunIDGenerator.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run id generator. An empty id defaults to
// "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunID) Generate() string {
	return g.id
}

// SequentialRunIDs returns predetermined run ids in order. Tests that open
// several instances use it to tell their streams apart deterministically.
//
// Generate panics once the ids are exhausted, to catch tests opening more
// instances than they expected.
type SequentialRunIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewSequentialRunIDs creates a generator that returns ids in order.
func NewSequentialRunIDs(ids ...string) *SequentialRunIDs {
	return &SequentialRunIDs{ids: ids}
}

// Generate returns the next predetermined id.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("SequentialRunIDs: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
