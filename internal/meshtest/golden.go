package meshtest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/meshbridge/internal/console"
	"github.com/roach88/meshbridge/internal/controller"
	"github.com/roach88/meshbridge/internal/scenario"
	"github.com/roach88/meshbridge/internal/trace"
)

// TraceSnapshot captures the complete event sequence one scenario
// publishes. Serialization is canonical JSON so comparisons are
// byte-stable across runs.
type TraceSnapshot struct {
	ScenarioName string
	Environment  string
	Events       []console.Event
}

// toCanonicalMap flattens the snapshot into the shape trace.MarshalPayload
// accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	events := make([]any, len(s.Events))
	for i, ev := range s.Events {
		events[i] = map[string]any{
			"seq":     i + 1,
			"event":   console.EventName(ev),
			"payload": trace.EventPayload(ev),
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"environment":   s.Environment,
		"events":        events,
	}
}

// RunWithGolden drives the scenario through a controller and compares the
// published event sequence against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/meshtest -update
//
// Scripted failures are part of the sequence: the terminal Failure event
// lands in the golden rather than failing the run.
func RunWithGolden(t *testing.T, scn *scenario.Scenario) error {
	t.Helper()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl, err := controller.Setup(scn.Name, Factory(scn), controller.WithLogger(quiet))
	if err != nil {
		return err
	}

	var events []console.Event
	ctrl.AddEventHandler(func(ev console.Event) {
		events = append(events, ev)
	})

	// The drain error restates the terminal Failure event, which the
	// golden already captures.
	_ = ctrl.PlanAndRun(scn.Environment, controller.PlanAndRunOptions{}).Drain()

	snapshot := TraceSnapshot{
		ScenarioName: scn.Name,
		Environment:  scn.Environment,
		Events:       events,
	}
	traceJSON, err := trace.MarshalPayload(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scn.Name, traceJSON)
	return nil
}
