package console

import (
	"fmt"
	"time"

	"github.com/roach88/meshbridge/internal/mesh"
)

// Event is one progress notification from the engine.
//
// The variant set is closed: every variant is a struct in this package
// implementing the unexported marker method. Variants carry data and have
// no behavior; each consumer owns its interpretation.
type Event interface {
	event()
}

// StartPlanEvaluation announces the start of plan evaluation.
type StartPlanEvaluation struct {
	Plan *mesh.Plan
}

// StopPlanEvaluation announces the end of plan evaluation.
type StopPlanEvaluation struct{}

// StartEvaluationProgress announces a run's batch plan: how many batches
// each snapshot will evaluate, and where.
type StartEvaluationProgress struct {
	Batches        map[*mesh.Snapshot]int
	Environment    mesh.EnvironmentNaming
	DefaultCatalog string
}

// UpdateSnapshotEvaluationProgress reports one completed batch for one
// snapshot. Batches for a snapshot arrive with increasing BatchIndex, but
// snapshots complete in the engine scheduler's order, not topological order.
type UpdateSnapshotEvaluationProgress struct {
	Snapshot   *mesh.Snapshot
	BatchIndex int
	Duration   time.Duration
}

// LogSuccess reports the engine's overall verdict for a run.
type LogSuccess struct {
	Success bool
}

// LogError carries an engine error message that did not abort execution.
type LogError struct {
	Message string
}

// LogFailedModels lists models that failed during a run.
type LogFailedModels struct {
	Models []mesh.FailedModel
}

// Failure is the terminal variant: the worker publishes it when engine
// execution raised an error, then stops. It travels in-band so every event
// emitted before the failure is delivered first.
type Failure struct {
	Err error
}

func (StartPlanEvaluation) event()              {}
func (StopPlanEvaluation) event()               {}
func (StartEvaluationProgress) event()          {}
func (UpdateSnapshotEvaluationProgress) event() {}
func (LogSuccess) event()                       {}
func (LogError) event()                         {}
func (LogFailedModels) event()                  {}
func (Failure) event()                          {}

// EventName returns a stable name for an event variant, for logs and the
// trace store.
func EventName(ev Event) string {
	switch ev.(type) {
	case StartPlanEvaluation:
		return "StartPlanEvaluation"
	case StopPlanEvaluation:
		return "StopPlanEvaluation"
	case StartEvaluationProgress:
		return "StartEvaluationProgress"
	case UpdateSnapshotEvaluationProgress:
		return "UpdateSnapshotEvaluationProgress"
	case LogSuccess:
		return "LogSuccess"
	case LogError:
		return "LogError"
	case LogFailedModels:
		return "LogFailedModels"
	case Failure:
		return "Failure"
	default:
		return fmt.Sprintf("%T", ev)
	}
}
