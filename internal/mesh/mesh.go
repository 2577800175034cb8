package mesh

// Model is a named transformation in the project, identified by its fully
// qualified name ("catalog"."schema"."view").
type Model struct {
	Name      string
	DependsOn []string
}

// Snapshot is a point-in-time executable version of a model. The engine
// creates snapshots when planning; identity for progress reporting is the
// model name.
type Snapshot struct {
	Name    string
	Version string
	Model   Model
}

// FailedModel records one model that failed during a run, with the error
// the engine attributed to it.
type FailedModel struct {
	Name string
	Err  error
}

// EnvironmentNaming describes how the engine names the target environment
// for an evaluation.
type EnvironmentNaming struct {
	Name         string
	SuffixTarget string
}

// Plan is the engine's computed change set for one environment. It is built
// by Context.BuildPlan and evaluated by Context.ApplyPlan.
type Plan struct {
	Environment    string
	SelectedModels []string
	Snapshots      []*Snapshot
	Restatements   []string

	// Categories records categorizer decisions keyed by snapshot name.
	// Only categorized snapshots appear.
	Categories map[string]SnapshotCategory
}

// SnapshotCategory classifies a planned snapshot change.
type SnapshotCategory int

const (
	CategoryUncategorized SnapshotCategory = iota
	CategoryBreaking
	CategoryNonBreaking
	CategoryForwardOnly
)

// SnapshotCategorizer decides the category for a changed snapshot during
// plan building. Categorizers registered on the console are consulted
// before the engine's automatic categorization.
type SnapshotCategorizer func(s *Snapshot) SnapshotCategory
