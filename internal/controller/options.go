package controller

import "github.com/roach88/meshbridge/internal/mesh"

// PlanAndRunOptions configure a combined plan and run invocation. Shared
// values apply to both phases; a value set on a phase's own options wins
// over the shared one for that phase.
type PlanAndRunOptions struct {
	Shared mesh.SharedOptions
	Plan   mesh.PlanOptions
	Run    mesh.RunOptions

	// RestateSelected additionally restates the plan's model selection,
	// forcing re-evaluation of intervals that already ran.
	RestateSelected bool

	// SkipRun stops after the plan has been applied.
	SkipRun bool
}

// merged resolves the shared options into each phase's options.
func (o PlanAndRunOptions) merged() (mesh.PlanOptions, mesh.RunOptions) {
	plan := o.Plan
	plan.SharedOptions = mergeShared(o.Shared, plan.SharedOptions)

	run := o.Run
	run.SharedOptions = mergeShared(o.Shared, run.SharedOptions)

	if o.RestateSelected && len(plan.RestateModels) == 0 {
		plan.RestateModels = plan.SelectModels
	}
	return plan, run
}

// mergeShared overlays specific on top of shared: any field set on
// specific replaces the shared value.
func mergeShared(shared, specific mesh.SharedOptions) mesh.SharedOptions {
	out := shared
	if specific.Start != "" {
		out.Start = specific.Start
	}
	if specific.End != "" {
		out.End = specific.End
	}
	if specific.ExecutionTime != "" {
		out.ExecutionTime = specific.ExecutionTime
	}
	if len(specific.SelectModels) > 0 {
		out.SelectModels = specific.SelectModels
	}
	return out
}
