package bridge

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/meshbridge/internal/console"
	"github.com/roach88/meshbridge/internal/mesh"
	"github.com/roach88/meshbridge/internal/tracker"
)

const (
	stagePlan = "plan"
	stageRun  = "run"
	stageDone = "done"
)

// EventHandler folds console events into ordered MaterializeResults.
//
// Construct one per run with the models the orchestrator cares about and
// the full topological order of the environment. Feed every event from
// the stream through ProcessEvent; call Finalize once the stream ends to
// learn which snapshots never resolved.
type EventHandler struct {
	models    map[string]mesh.Model
	tracker   *tracker.Tracker
	durations map[string]time.Duration
	stage     string
	logger    *slog.Logger
}

// NewEventHandler builds a handler over the given models. order must be
// a topological ordering of every snapshot name the engine may report,
// selected or not; models may be a filtered subset and only its entries
// produce results.
func NewEventHandler(models map[string]mesh.Model, order []string, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{
		models:    models,
		tracker:   tracker.New(order, logger),
		durations: make(map[string]time.Duration),
		stage:     stagePlan,
		logger:    logger,
	}
}

// ProcessEvent reports one event and returns the materializations it
// released. A snapshot only yields a result when it is both in the
// handler's model set and known to ctx; anything else is consumed
// silently so the ordering cursor keeps moving.
func (h *EventHandler) ProcessEvent(ctx mesh.Context, ev console.Event) ([]MaterializeResult, error) {
	if err := h.reportEvent(ev); err != nil {
		return nil, err
	}

	var results []MaterializeResult
	for {
		n, ok := h.tracker.Next()
		if !ok {
			break
		}
		model, known := h.models[n.Name]
		if !known {
			continue
		}
		if _, inContext := ctx.GetModel(n.Name); !inContext {
			continue
		}
		results = append(results, MaterializeResult{
			AssetKey: mesh.AssetPath(model.Name),
			Updated:  n.Updated,
			Duration: h.durations[n.Name],
		})
	}
	return results, nil
}

// Finalize returns the snapshot names that never resolved. Call it after
// the stream has ended; a non-empty result means the engine finished
// without reporting completion for those snapshots.
func (h *EventHandler) Finalize() []string {
	return h.tracker.Pending()
}

func (h *EventHandler) eventLog(ev console.Event) *slog.Logger {
	return h.logger.With("event", console.EventName(ev), "stage", h.stage)
}

func (h *EventHandler) reportEvent(ev console.Event) error {
	switch e := ev.(type) {
	case console.StartPlanEvaluation:
		env := ""
		if e.Plan != nil {
			env = e.Plan.Environment
		}
		h.eventLog(ev).Info("plan evaluation started", "environment", env)
	case console.StopPlanEvaluation:
		h.eventLog(ev).Info("plan evaluation completed")
	case console.StartEvaluationProgress:
		h.stage = stageRun
		backfill := make(map[string]int, len(e.Batches))
		for snap, count := range e.Batches {
			backfill[snap.Name] = count
		}
		h.eventLog(ev).Info("run started",
			"environment", e.Environment.Name,
			"default_catalog", e.DefaultCatalog,
			"backfill", len(backfill))
		h.tracker.Plan(backfill)
	case console.UpdateSnapshotEvaluationProgress:
		if e.Snapshot == nil {
			h.eventLog(ev).Warn("progress event without snapshot")
			return nil
		}
		done, expected, err := h.tracker.Update(e.Snapshot.Name, e.BatchIndex)
		if err != nil {
			return fmt.Errorf("snapshot progress: %w", err)
		}
		h.durations[e.Snapshot.Name] += e.Duration
		h.eventLog(ev).Info("snapshot progress",
			"snapshot", e.Snapshot.Name,
			"progress", fmt.Sprintf("%d/%d", done, expected),
			"duration", e.Duration)
	case console.LogSuccess:
		h.stage = stageDone
		if !e.Success {
			h.eventLog(ev).Error("run failed")
			return ErrRunFailed
		}
		h.eventLog(ev).Info("run succeeded")
	case console.LogError:
		h.eventLog(ev).Error("engine error", "message", e.Message)
	case console.LogFailedModels:
		for _, m := range e.Models {
			h.eventLog(ev).Error("model failed", "model", m.Name, "error", m.Err)
		}
	default:
		h.eventLog(ev).Debug("event received")
	}
	return nil
}
