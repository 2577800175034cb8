package bridge

import (
	"fmt"
	"log/slog"

	"github.com/roach88/meshbridge/internal/controller"
	"github.com/roach88/meshbridge/internal/mesh"
)

// RunParams configure one orchestrated run.
type RunParams struct {
	// Plan and Run hold the phase options. Select-model lists from both
	// phases are unioned and applied to the whole run; start, end and
	// execution time are lifted into the shared options with the plan
	// value winning when both phases set one.
	Plan mesh.PlanOptions
	Run  mesh.RunOptions

	// SelectedOutputs restricts which models produce results, using
	// orchestrator output names (underscore-joined model keys). Empty
	// selects every model.
	SelectedOutputs []string

	// SkipRun stops after the plan phase has been applied.
	SkipRun bool
}

// EmitFunc receives materialization results as they are released. A
// non-nil error aborts the run.
type EmitFunc func(MaterializeResult) error

// Resource drives one orchestrated run against a controller.
type Resource struct {
	controller *controller.Controller
	logger     *slog.Logger
}

// NewResource wraps a configured controller.
func NewResource(ctrl *controller.Controller, logger *slog.Logger) *Resource {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resource{controller: ctrl, logger: logger}
}

// Run plans and runs the environment, folding the event stream into
// MaterializeResults and handing each to emit in topological order.
func (r *Resource) Run(environment string, params RunParams, emit EmitFunc) error {
	return r.controller.WithInstance(environment, "resource", func(inst *controller.Instance) error {
		ctx := inst.Context()

		order, err := ctx.DAG().Sorted()
		if err != nil {
			return fmt.Errorf("sort models: %w", err)
		}

		models := selectModels(ctx.Models(), params.SelectedOutputs)
		handler := NewEventHandler(models, order, inst.Logger())

		stream := inst.PlanAndRun(liftOptions(params))
		for stream.Next() {
			results, perr := handler.ProcessEvent(ctx, stream.Event())
			if perr != nil {
				stream.Drain()
				return perr
			}
			for _, res := range results {
				if eerr := emit(res); eerr != nil {
					stream.Drain()
					return eerr
				}
			}
		}
		if err := stream.Err(); err != nil {
			return fmt.Errorf("plan and run: %w", err)
		}

		// A plan-only run resolves nothing; pending is only meaningful
		// when the run phase actually happened.
		if pending := handler.Finalize(); len(pending) > 0 && !params.SkipRun {
			inst.Logger().Warn("run ended with unresolved snapshots", "pending", pending)
		}
		return nil
	})
}

// selectModels filters models down to the selected orchestrator outputs.
// Empty selection keeps everything.
func selectModels(models map[string]mesh.Model, outputs []string) map[string]mesh.Model {
	picked := make(map[string]mesh.Model, len(models))
	if len(outputs) == 0 {
		for name, m := range models {
			picked[name] = m
		}
		return picked
	}
	selected := make(map[string]bool, len(outputs))
	for _, out := range outputs {
		selected[out] = true
	}
	for name, m := range models {
		if selected[mesh.ModelKey(m.Name)] {
			picked[name] = m
		}
	}
	return picked
}

// liftOptions builds the combined plan-and-run options. Phase select
// lists union into the shared options, and time bounds lift with the
// plan value taking precedence; the lifted values replace the phase
// settings so both phases run with the same selection and bounds.
func liftOptions(params RunParams) controller.PlanAndRunOptions {
	opts := controller.PlanAndRunOptions{
		Plan:    params.Plan,
		Run:     params.Run,
		SkipRun: params.SkipRun,
	}

	if n := len(params.Plan.SelectModels) + len(params.Run.SelectModels); n > 0 {
		selects := make([]string, 0, n)
		selects = append(selects, params.Plan.SelectModels...)
		selects = append(selects, params.Run.SelectModels...)
		opts.Shared.SelectModels = selects
	}
	opts.Shared.Start = coalesce(params.Plan.Start, params.Run.Start)
	opts.Shared.End = coalesce(params.Plan.End, params.Run.End)
	opts.Shared.ExecutionTime = coalesce(params.Plan.ExecutionTime, params.Run.ExecutionTime)

	opts.Plan.SharedOptions = mesh.SharedOptions{}
	opts.Run.SharedOptions = mesh.SharedOptions{}

	return opts
}

func coalesce(a, b mesh.TimeRef) mesh.TimeRef {
	if a != "" {
		return a
	}
	return b
}
