package console

import (
	"log/slog"
)

// Recorder is a handler that logs every event through slog. The CLI and
// tests register one so a run leaves a readable trail; it never interprets
// events beyond choosing a log level.
type Recorder struct {
	logger *slog.Logger
}

// NewRecorder creates a Recorder. A nil logger uses slog.Default.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger}
}

// Handle logs one event. Registered on a console via AddHandler.
func (r *Recorder) Handle(ev Event) {
	switch e := ev.(type) {
	case StartPlanEvaluation:
		attrs := []any{}
		if e.Plan != nil {
			attrs = append(attrs,
				"environment", e.Plan.Environment,
				"snapshots", len(e.Plan.Snapshots),
			)
		}
		r.logger.Info("plan evaluation started", attrs...)
	case StopPlanEvaluation:
		r.logger.Info("plan evaluation finished")
	case StartEvaluationProgress:
		r.logger.Info("evaluation started",
			"snapshots", len(e.Batches),
			"environment", e.Environment.Name,
			"default_catalog", e.DefaultCatalog,
		)
	case UpdateSnapshotEvaluationProgress:
		name := ""
		if e.Snapshot != nil {
			name = e.Snapshot.Name
		}
		r.logger.Debug("snapshot batch finished",
			"snapshot", name,
			"batch", e.BatchIndex,
			"duration", e.Duration,
		)
	case LogSuccess:
		if e.Success {
			r.logger.Info("run succeeded")
		} else {
			r.logger.Error("run failed")
		}
	case LogError:
		r.logger.Error("engine error", "message", e.Message)
	case LogFailedModels:
		for _, fm := range e.Models {
			r.logger.Error("model failed", "model", fm.Name, "error", fm.Err)
		}
	case Failure:
		r.logger.Error("execution aborted", "error", e.Err)
	default:
		r.logger.Debug("unhandled event", "event", EventName(ev))
	}
}
