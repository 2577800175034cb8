package mesh

// TimeRef is an engine-accepted time reference. The engine parses absolute
// dates ("2024-01-01"), timestamps, and relative expressions ("1 week ago");
// this package passes the text through untouched.
type TimeRef string

// CategorizerConfig maps a model source kind to the auto-categorization
// mode the engine should apply to it.
type CategorizerConfig map[string]string

// SharedOptions are accepted by both plan and run.
type SharedOptions struct {
	Start         TimeRef  `yaml:"start,omitempty"`
	End           TimeRef  `yaml:"end,omitempty"`
	ExecutionTime TimeRef  `yaml:"execution_time,omitempty"`
	SelectModels  []string `yaml:"select_models,omitempty"`
}

// PlanOptions configure plan building and evaluation.
type PlanOptions struct {
	SharedOptions `yaml:",inline"`

	CreateFrom             string            `yaml:"create_from,omitempty"`
	SkipTests              bool              `yaml:"skip_tests,omitempty"`
	RestateModels          []string          `yaml:"restate_models,omitempty"`
	NoGaps                 bool              `yaml:"no_gaps,omitempty"`
	SkipBackfill           bool              `yaml:"skip_backfill,omitempty"`
	ForwardOnly            bool              `yaml:"forward_only,omitempty"`
	AllowDestructiveModels []string          `yaml:"allow_destructive_models,omitempty"`
	NoAutoCategorization   bool              `yaml:"no_auto_categorization,omitempty"`
	EffectiveFrom          TimeRef           `yaml:"effective_from,omitempty"`
	IncludeUnmodified      bool              `yaml:"include_unmodified,omitempty"`
	BackfillModels         []string          `yaml:"backfill_models,omitempty"`
	CategorizerConfig      CategorizerConfig `yaml:"categorizer_config,omitempty"`
	EnablePreview          bool              `yaml:"enable_preview,omitempty"`

	// Run asks the engine to run the environment immediately after the
	// plan is applied.
	Run bool `yaml:"run,omitempty"`
}

// RunOptions configure scheduled runs.
type RunOptions struct {
	SharedOptions `yaml:",inline"`

	SkipJanitor bool `yaml:"skip_janitor,omitempty"`
	IgnoreCron  bool `yaml:"ignore_cron,omitempty"`
}
