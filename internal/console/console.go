package console

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/meshbridge/internal/mesh"
)

// Console is the surface the engine drives while planning and running.
// One method per event variant; Exception publishes the terminal Failure.
type Console interface {
	StartPlanEvaluation(plan *mesh.Plan)
	StopPlanEvaluation()
	StartEvaluationProgress(batches map[*mesh.Snapshot]int, env mesh.EnvironmentNaming, defaultCatalog string)
	UpdateSnapshotEvaluationProgress(snapshot *mesh.Snapshot, batchIndex int, duration time.Duration)
	LogSuccess(success bool)
	LogError(message string)
	LogFailedModels(models []mesh.FailedModel)
	Exception(err error)
}

// Handler consumes published events. Handlers run synchronously on the
// publishing goroutine in registration order.
type Handler func(Event)

// EventConsole implements Console by fanning events out to registered
// handlers. Registration is safe from any goroutine, including while the
// engine is publishing.
type EventConsole struct {
	mu           sync.Mutex
	handlers     map[string]Handler
	order        []string
	categorizers []mesh.SnapshotCategorizer
}

// NewEventConsole creates a console with no handlers.
func NewEventConsole() *EventConsole {
	return &EventConsole{handlers: make(map[string]Handler)}
}

// AddHandler registers a handler and returns its id for later removal.
func (c *EventConsole) AddHandler(h Handler) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	c.handlers[id] = h
	c.order = append(c.order, id)
	return id
}

// RemoveHandler unregisters a handler. Unknown ids are ignored.
func (c *EventConsole) RemoveHandler(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.handlers[id]; !ok {
		return
	}
	delete(c.handlers, id)
	for i, known := range c.order {
		if known == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// AddSnapshotCategorizer registers a categorizer consulted by the engine
// during plan building.
func (c *EventConsole) AddSnapshotCategorizer(cat mesh.SnapshotCategorizer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categorizers = append(c.categorizers, cat)
}

// Categorizers returns the registered categorizers in registration order.
func (c *EventConsole) Categorizers() []mesh.SnapshotCategorizer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]mesh.SnapshotCategorizer, len(c.categorizers))
	copy(out, c.categorizers)
	return out
}

// publish dispatches an event to every handler in registration order.
// The handler snapshot is taken under the lock; handlers run outside it so
// a handler may add or remove handlers without deadlocking.
func (c *EventConsole) publish(ev Event) {
	c.mu.Lock()
	snapshot := make([]Handler, 0, len(c.order))
	for _, id := range c.order {
		snapshot = append(snapshot, c.handlers[id])
	}
	c.mu.Unlock()

	for _, h := range snapshot {
		h(ev)
	}
}

func (c *EventConsole) StartPlanEvaluation(plan *mesh.Plan) {
	c.publish(StartPlanEvaluation{Plan: plan})
}

func (c *EventConsole) StopPlanEvaluation() {
	c.publish(StopPlanEvaluation{})
}

func (c *EventConsole) StartEvaluationProgress(batches map[*mesh.Snapshot]int, env mesh.EnvironmentNaming, defaultCatalog string) {
	c.publish(StartEvaluationProgress{Batches: batches, Environment: env, DefaultCatalog: defaultCatalog})
}

func (c *EventConsole) UpdateSnapshotEvaluationProgress(snapshot *mesh.Snapshot, batchIndex int, duration time.Duration) {
	c.publish(UpdateSnapshotEvaluationProgress{Snapshot: snapshot, BatchIndex: batchIndex, Duration: duration})
}

func (c *EventConsole) LogSuccess(success bool) {
	c.publish(LogSuccess{Success: success})
}

func (c *EventConsole) LogError(message string) {
	c.publish(LogError{Message: message})
}

func (c *EventConsole) LogFailedModels(models []mesh.FailedModel) {
	c.publish(LogFailedModels{Models: models})
}

func (c *EventConsole) Exception(err error) {
	c.publish(Failure{Err: err})
}

// DebugConsole is an EventConsole that additionally forwards every call to
// a secondary console, typically the engine's own terminal console.
type DebugConsole struct {
	*EventConsole
	debug Console
}

// NewDebugConsole wraps a secondary console for debugging.
func NewDebugConsole(debug Console) *DebugConsole {
	return &DebugConsole{EventConsole: NewEventConsole(), debug: debug}
}

func (c *DebugConsole) StartPlanEvaluation(plan *mesh.Plan) {
	c.EventConsole.StartPlanEvaluation(plan)
	c.debug.StartPlanEvaluation(plan)
}

func (c *DebugConsole) StopPlanEvaluation() {
	c.EventConsole.StopPlanEvaluation()
	c.debug.StopPlanEvaluation()
}

func (c *DebugConsole) StartEvaluationProgress(batches map[*mesh.Snapshot]int, env mesh.EnvironmentNaming, defaultCatalog string) {
	c.EventConsole.StartEvaluationProgress(batches, env, defaultCatalog)
	c.debug.StartEvaluationProgress(batches, env, defaultCatalog)
}

func (c *DebugConsole) UpdateSnapshotEvaluationProgress(snapshot *mesh.Snapshot, batchIndex int, duration time.Duration) {
	c.EventConsole.UpdateSnapshotEvaluationProgress(snapshot, batchIndex, duration)
	c.debug.UpdateSnapshotEvaluationProgress(snapshot, batchIndex, duration)
}

func (c *DebugConsole) LogSuccess(success bool) {
	c.EventConsole.LogSuccess(success)
	c.debug.LogSuccess(success)
}

func (c *DebugConsole) LogError(message string) {
	c.EventConsole.LogError(message)
	c.debug.LogError(message)
}

func (c *DebugConsole) LogFailedModels(models []mesh.FailedModel) {
	c.EventConsole.LogFailedModels(models)
	c.debug.LogFailedModels(models)
}

func (c *DebugConsole) Exception(err error) {
	c.EventConsole.Exception(err)
	c.debug.Exception(err)
}
