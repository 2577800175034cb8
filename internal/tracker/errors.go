package tracker

import (
	"errors"
	"fmt"
)

// StateError reports a violated tracker precondition. The engine drives
// the tracker through the event stream, so a StateError means the engine
// and the tracker disagree about the plan; the run cannot be trusted and
// callers should abort.
type StateError struct {
	// Code identifies the violation.
	Code StateErrorCode

	// Message is a human-readable description.
	Message string

	// Snapshot names the snapshot involved.
	Snapshot string
}

// StateErrorCode categorizes tracker precondition violations.
type StateErrorCode string

const (
	// ErrCodeUnknownSnapshot indicates a batch completion for a snapshot
	// outside the current plan.
	ErrCodeUnknownSnapshot StateErrorCode = "UNKNOWN_SNAPSHOT"

	// ErrCodeBatchOverflow indicates more batch completions than the plan
	// expected for a snapshot.
	ErrCodeBatchOverflow StateErrorCode = "BATCH_OVERFLOW"
)

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Snapshot != "" {
		return fmt.Sprintf("%s: %s (snapshot=%s)", e.Code, e.Message, e.Snapshot)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownSnapshot returns true if the error is an unknown snapshot
// violation. Uses errors.As to handle wrapped errors.
func IsUnknownSnapshot(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnknownSnapshot
	}
	return false
}

// IsBatchOverflow returns true if the error is a batch overflow violation.
// Uses errors.As to handle wrapped errors.
func IsBatchOverflow(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeBatchOverflow
	}
	return false
}

func newUnknownSnapshotError(name string) *StateError {
	return &StateError{
		Code:     ErrCodeUnknownSnapshot,
		Message:  "batch completion for a snapshot outside the current plan",
		Snapshot: name,
	}
}

func newBatchOverflowError(name string, expected int) *StateError {
	return &StateError{
		Code:     ErrCodeBatchOverflow,
		Message:  fmt.Sprintf("more batch completions than the %d planned", expected),
		Snapshot: name,
	}
}
