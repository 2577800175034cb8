package controller

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/meshbridge/internal/mesh"
	"github.com/roach88/meshbridge/internal/relay"
)

// Instance is one open engine attachment, serving plan and run streams for
// a single environment. Close it to let the controller open the next
// instance; abandoning an instance holds the gate forever.
type Instance struct {
	controller  *Controller
	environment string
	runID       string
	context     mesh.Context
	logger      *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Environment returns the environment this instance serves.
func (i *Instance) Environment() string {
	return i.environment
}

// RunID identifies this instance in logs and traces.
func (i *Instance) RunID() string {
	return i.runID
}

// Context exposes the engine attachment, for model and graph lookups.
func (i *Instance) Context() mesh.Context {
	return i.context
}

// Logger returns the instance-scoped logger.
func (i *Instance) Logger() *slog.Logger {
	return i.logger
}

// Close releases the engine context and reopens the controller's gate.
// Safe to call more than once.
func (i *Instance) Close() error {
	i.closeOnce.Do(func() {
		i.closeErr = i.context.Close()
		i.controller.release()
		i.logger.Debug("instance closed")
	})
	return i.closeErr
}

// PlanCallOption adjusts a single plan invocation.
type PlanCallOption func(*planCall)

type planCall struct {
	defaultCatalog string
	categorizer    mesh.SnapshotCategorizer
}

// WithDefaultCatalog sets the catalog models resolve against when the
// project does not name one.
func WithDefaultCatalog(catalog string) PlanCallOption {
	return func(p *planCall) {
		p.defaultCatalog = catalog
	}
}

// WithCategorizer registers a categorizer for this plan's changes.
func WithCategorizer(cat mesh.SnapshotCategorizer) PlanCallOption {
	return func(p *planCall) {
		p.categorizer = cat
	}
}

// BuildPlan computes a plan without evaluating it. Nothing streams; the
// result is for inspection.
func (i *Instance) BuildPlan(opts mesh.PlanOptions) (*mesh.Plan, error) {
	return i.context.BuildPlan(i.environment, opts)
}

// Plan builds and evaluates a plan for the environment, auto-applying
// changes, and streams every event the engine publishes.
func (i *Instance) Plan(opts mesh.PlanOptions, callOpts ...PlanCallOption) relay.Stream {
	var call planCall
	for _, o := range callOpts {
		o(&call)
	}
	if call.categorizer != nil {
		i.controller.events.AddSnapshotCategorizer(call.categorizer)
	}

	i.logger.Debug("plan requested")
	return i.stream(func() error {
		plan, err := i.context.BuildPlan(i.environment, opts)
		if err != nil {
			return fmt.Errorf("build plan: %w", err)
		}
		if err := i.context.ApplyPlan(plan, call.defaultCatalog); err != nil {
			return fmt.Errorf("apply plan: %w", err)
		}
		return nil
	})
}

// Run executes the environment's scheduled models and streams every event
// the engine publishes.
func (i *Instance) Run(opts mesh.RunOptions) relay.Stream {
	i.logger.Debug("run requested")
	return i.stream(func() error {
		if err := i.context.Run(i.environment, opts); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		return nil
	})
}

// PlanAndRun plans, then runs, as one stream. The run phase starts only
// after the plan stream ended cleanly; a plan failure aborts the sequence.
func (i *Instance) PlanAndRun(opts PlanAndRunOptions, callOpts ...PlanCallOption) relay.Stream {
	planOpts, runOpts := opts.merged()

	parts := []func() relay.Stream{
		func() relay.Stream { return i.Plan(planOpts, callOpts...) },
	}
	if !opts.SkipRun {
		parts = append(parts, func() relay.Stream { return i.Run(runOpts) })
	}
	return relay.Sequence(parts...)
}

// stream registers a fresh relay on the console for the duration of one
// engine call and returns the consuming side. The worker publishes its
// failure as a terminal event, so the consumer sees every earlier event
// first; the handler is removed once the stream terminates.
func (i *Instance) stream(fn func() error) relay.Stream {
	r := relay.New(i.logger)
	handlerID := i.controller.events.AddHandler(r.Handle)
	cleanup := func() { i.controller.events.RemoveHandler(handlerID) }

	return r.Stream(func() {
		defer func() {
			if p := recover(); p != nil {
				i.controller.publish.Exception(fmt.Errorf("engine panicked: %v", p))
			}
		}()
		if err := fn(); err != nil {
			i.controller.publish.Exception(err)
		}
	}, cleanup)
}
