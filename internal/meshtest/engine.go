package meshtest

import (
	"errors"

	"github.com/roach88/meshbridge/internal/console"
	"github.com/roach88/meshbridge/internal/controller"
	"github.com/roach88/meshbridge/internal/mesh"
	"github.com/roach88/meshbridge/internal/scenario"
)

// ErrClosed is returned by engine operations after Close.
var ErrClosed = errors.New("engine is closed")

// Engine is a scripted mesh.Context. All behavior comes from the
// scenario; the console receives the scripted event sequence.
//
// The exported capture fields record the last options each operation saw.
// Read them only after the driving stream has ended.
type Engine struct {
	scn     *scenario.Scenario
	console console.Console

	dag       *mesh.DAG
	models    map[string]mesh.Model
	removed   map[string]bool
	snapshots map[string]*mesh.Snapshot

	LastPlanOptions mesh.PlanOptions
	LastRunOptions  mesh.RunOptions
	AppliedCatalog  string

	closed bool
}

var _ mesh.Context = (*Engine)(nil)

// New builds an engine scripted by the scenario, publishing to con.
func New(scn *scenario.Scenario, con console.Console) *Engine {
	models := make(map[string]mesh.Model, len(scn.Models))
	removed := make(map[string]bool)
	snapshots := make(map[string]*mesh.Snapshot, len(scn.Models))
	for _, spec := range scn.Models {
		m := mesh.Model{Name: spec.Name, DependsOn: append([]string(nil), spec.DependsOn...)}
		models[spec.Name] = m
		if spec.Removed {
			removed[spec.Name] = true
		}
		snapshots[spec.Name] = &mesh.Snapshot{Name: spec.Name, Version: "v1", Model: m}
	}
	return &Engine{
		scn:       scn,
		console:   con,
		dag:       mesh.BuildDAG(models),
		models:    models,
		removed:   removed,
		snapshots: snapshots,
	}
}

// Factory returns a controller factory that scripts every instance from
// the same scenario.
func Factory(scn *scenario.Scenario) controller.ContextFactory {
	return func(_ controller.Config, con console.Console) (mesh.Context, error) {
		return New(scn, con), nil
	}
}

// BuildPlan assembles the scripted plan. Explicit select options override
// the scenario's selection; snapshot versions come from the scenario.
func (e *Engine) BuildPlan(environment string, opts mesh.PlanOptions) (*mesh.Plan, error) {
	if e.closed {
		return nil, ErrClosed
	}
	e.LastPlanOptions = opts

	plan := &mesh.Plan{
		Environment:  environment,
		Restatements: append([]string(nil), opts.RestateModels...),
		Snapshots:    e.planSnapshots(),
	}
	if len(opts.SelectModels) > 0 {
		plan.SelectedModels = append([]string(nil), opts.SelectModels...)
	} else if e.scn.Plan != nil {
		plan.SelectedModels = append([]string(nil), e.scn.Plan.Selected...)
	}

	e.categorize(plan)
	return plan, nil
}

// ApplyPlan emits the plan evaluation events, failing mid-apply when the
// scenario injects a plan failure.
func (e *Engine) ApplyPlan(plan *mesh.Plan, defaultCatalog string) error {
	if e.closed {
		return ErrClosed
	}
	if defaultCatalog == "" {
		defaultCatalog = e.scn.DefaultCatalog
	}
	e.AppliedCatalog = defaultCatalog

	e.console.StartPlanEvaluation(plan)
	if e.failsDuring(scenario.FailDuringPlan) {
		return e.injectedError()
	}
	e.console.StopPlanEvaluation()
	return nil
}

// Run emits the scripted run sequence: the batch plan, every update in
// arrival order, then the scripted outcome. An injected run failure fires
// after the updates and suppresses the outcome events.
func (e *Engine) Run(environment string, opts mesh.RunOptions) error {
	if e.closed {
		return ErrClosed
	}
	e.LastRunOptions = opts

	script := e.scn.Run
	batches := make(map[*mesh.Snapshot]int)
	if script != nil {
		for name, count := range script.Batches {
			batches[e.snapshots[name]] = count
		}
	}
	naming := mesh.EnvironmentNaming{Name: environment, SuffixTarget: "schema"}
	e.console.StartEvaluationProgress(batches, naming, e.catalog())

	if script != nil {
		for _, u := range script.Updates {
			e.console.UpdateSnapshotEvaluationProgress(e.snapshots[u.Snapshot], u.Batch, u.Duration())
		}
	}

	if e.failsDuring(scenario.FailDuringRun) {
		return e.injectedError()
	}

	if script != nil {
		if script.Error != "" {
			e.console.LogError(script.Error)
		}
		if len(script.FailedModels) > 0 {
			e.console.LogFailedModels(failedModels(script.FailedModels))
		}
	}
	e.console.LogSuccess(script.Succeeded())
	return nil
}

func (e *Engine) DAG() *mesh.DAG { return e.dag }

// Models lists every declared model, removed ones included. A removed
// model stays listed while GetModel misses, mimicking a model dropped
// while a run is in flight.
func (e *Engine) Models() map[string]mesh.Model {
	out := make(map[string]mesh.Model, len(e.models))
	for name, m := range e.models {
		out[name] = m
	}
	return out
}

func (e *Engine) GetModel(name string) (mesh.Model, bool) {
	if e.removed[name] {
		return mesh.Model{}, false
	}
	m, ok := e.models[name]
	return m, ok
}

func (e *Engine) Close() error {
	e.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool { return e.closed }

func (e *Engine) planSnapshots() []*mesh.Snapshot {
	if e.scn.Plan != nil && len(e.scn.Plan.Snapshots) > 0 {
		out := make([]*mesh.Snapshot, 0, len(e.scn.Plan.Snapshots))
		for _, spec := range e.scn.Plan.Snapshots {
			snap := e.snapshots[spec.Model]
			if spec.Version != "" {
				snap.Version = spec.Version
			}
			out = append(out, snap)
		}
		return out
	}

	out := make([]*mesh.Snapshot, 0, len(e.scn.Models))
	for _, spec := range e.scn.Models {
		out = append(out, e.snapshots[spec.Name])
	}
	return out
}

// categorize consults console-registered categorizers for each planned
// snapshot; the first decisive answer wins.
func (e *Engine) categorize(plan *mesh.Plan) {
	src, ok := e.console.(interface {
		Categorizers() []mesh.SnapshotCategorizer
	})
	if !ok {
		return
	}
	for _, snap := range plan.Snapshots {
		for _, categorize := range src.Categorizers() {
			if c := categorize(snap); c != mesh.CategoryUncategorized {
				if plan.Categories == nil {
					plan.Categories = make(map[string]mesh.SnapshotCategory)
				}
				plan.Categories[snap.Name] = c
				break
			}
		}
	}
}

func (e *Engine) catalog() string {
	if e.AppliedCatalog != "" {
		return e.AppliedCatalog
	}
	return e.scn.DefaultCatalog
}

func (e *Engine) failsDuring(phase string) bool {
	return e.scn.Fail != nil && e.scn.Fail.During == phase
}

func (e *Engine) injectedError() error {
	return errors.New(e.scn.Fail.ErrorMessage())
}

func failedModels(specs []scenario.FailedModelSpec) []mesh.FailedModel {
	out := make([]mesh.FailedModel, 0, len(specs))
	for _, spec := range specs {
		msg := spec.Error
		if msg == "" {
			msg = "evaluation failed"
		}
		out = append(out, mesh.FailedModel{Name: spec.Model, Err: errors.New(msg)})
	}
	return out
}
