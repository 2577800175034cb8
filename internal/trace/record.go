package trace

import (
	"time"

	"github.com/roach88/meshbridge/internal/console"
)

// Record is one traced event: which run it belongs to, its position in
// the delivery order, the event name and the canonical JSON payload.
type Record struct {
	RunID   string
	Seq     int64
	Event   string
	Payload []byte
}

// EventPayload flattens an event into a payload map ready for canonical
// marshaling. Durations become integer milliseconds; canonical JSON has
// no floats.
func EventPayload(ev console.Event) map[string]any {
	switch e := ev.(type) {
	case console.StartPlanEvaluation:
		payload := map[string]any{}
		if e.Plan != nil {
			payload["environment"] = e.Plan.Environment
			payload["selected_models"] = stringList(e.Plan.SelectedModels)
			snapshots := make([]any, 0, len(e.Plan.Snapshots))
			for _, snap := range e.Plan.Snapshots {
				snapshots = append(snapshots, map[string]any{
					"name":    snap.Name,
					"version": snap.Version,
				})
			}
			payload["snapshots"] = snapshots
		}
		return payload
	case console.StopPlanEvaluation:
		return map[string]any{}
	case console.StartEvaluationProgress:
		batches := make(map[string]any, len(e.Batches))
		for snap, count := range e.Batches {
			batches[snap.Name] = count
		}
		return map[string]any{
			"environment":     e.Environment.Name,
			"default_catalog": e.DefaultCatalog,
			"batches":         batches,
		}
	case console.UpdateSnapshotEvaluationProgress:
		payload := map[string]any{
			"batch":       e.BatchIndex,
			"duration_ms": int64(e.Duration / time.Millisecond),
		}
		if e.Snapshot != nil {
			payload["snapshot"] = e.Snapshot.Name
		}
		return payload
	case console.LogSuccess:
		return map[string]any{"success": e.Success}
	case console.LogError:
		return map[string]any{"message": e.Message}
	case console.LogFailedModels:
		models := make([]any, 0, len(e.Models))
		for _, m := range e.Models {
			entry := map[string]any{"name": m.Name}
			if m.Err != nil {
				entry["error"] = m.Err.Error()
			}
			models = append(models, entry)
		}
		return map[string]any{"models": models}
	case console.Failure:
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return map[string]any{"error": msg}
	default:
		return map[string]any{}
	}
}

func stringList(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
