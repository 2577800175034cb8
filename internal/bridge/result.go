package bridge

import (
	"errors"
	"time"
)

// ErrRunFailed reports that the engine declared the run unsuccessful.
var ErrRunFailed = errors.New("engine reported run failure")

// MaterializeResult records one materialized asset. Results are released
// in topological order regardless of the order the engine completed the
// underlying snapshots.
type MaterializeResult struct {
	// AssetKey is the slash-joined asset path derived from the model name.
	AssetKey string

	// Updated is false when the run's plan excluded the snapshot, so it
	// is present but unchanged.
	Updated bool

	// Duration is the total evaluation time across the snapshot's batches.
	Duration time.Duration
}
