package mesh

// Context is the engine attachment for one project. Implementations load
// the project, build and evaluate plans, and run scheduled models,
// reporting progress through the console they were constructed with.
//
// A Context is not safe for concurrent use. The controller enforces a
// single open instance at a time.
type Context interface {
	// BuildPlan computes a plan for the environment without evaluating it.
	BuildPlan(environment string, opts PlanOptions) (*Plan, error)

	// ApplyPlan evaluates a previously built plan, auto-applying changes.
	ApplyPlan(plan *Plan, defaultCatalog string) error

	// Run executes the environment's scheduled models.
	Run(environment string, opts RunOptions) error

	// DAG returns the dependency graph over every model in the project.
	DAG() *DAG

	// Models returns all project models keyed by fully qualified name.
	Models() map[string]Model

	// GetModel looks up a single model by fully qualified name.
	GetModel(name string) (Model, bool)

	// Close releases the engine attachment.
	Close() error
}
