package scenario

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario scripts one engine lifecycle end to end.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Environment is the target environment name.
	Environment string `yaml:"environment"`

	// DefaultCatalog is reported when the run starts.
	DefaultCatalog string `yaml:"default_catalog,omitempty"`

	// Models declares the dependency graph.
	Models []ModelSpec `yaml:"models"`

	// Plan scripts the plan phase. Nil plans still build and apply; they
	// just carry no selection and default snapshots.
	Plan *PlanScript `yaml:"plan,omitempty"`

	// Run scripts the run phase. Nil runs emit no progress and succeed.
	Run *RunScript `yaml:"run,omitempty"`

	// Fail injects an engine error at the chosen point.
	Fail *FailScript `yaml:"fail,omitempty"`
}

// ModelSpec declares one model in the graph.
type ModelSpec struct {
	// Name is the fully qualified model name.
	Name string `yaml:"name"`

	// DependsOn lists upstream model names. Names outside the scenario
	// are treated as external tables.
	DependsOn []string `yaml:"depends_on,omitempty"`

	// Removed keeps the model in the graph and model listing while
	// making lookups fail, mimicking a model dropped mid-run.
	Removed bool `yaml:"removed,omitempty"`
}

// PlanScript scripts the plan phase.
type PlanScript struct {
	// Selected names the models the plan selects.
	Selected []string `yaml:"selected,omitempty"`

	// Snapshots overrides the plan's snapshot list. Empty means one
	// snapshot per declared model.
	Snapshots []SnapshotSpec `yaml:"snapshots,omitempty"`
}

// SnapshotSpec pins one snapshot in the plan.
type SnapshotSpec struct {
	Model   string `yaml:"model"`
	Version string `yaml:"version,omitempty"`
}

// RunScript scripts the run phase event sequence.
type RunScript struct {
	// Batches maps snapshot names to their planned batch counts.
	Batches map[string]int `yaml:"batches,omitempty"`

	// Updates lists batch completions in exact arrival order.
	Updates []UpdateStep `yaml:"updates,omitempty"`

	// Success is the run's reported outcome. Defaults to true.
	Success *bool `yaml:"success,omitempty"`

	// Error emits a LogError with this message before the outcome.
	Error string `yaml:"error,omitempty"`

	// FailedModels emits a LogFailedModels before the outcome.
	FailedModels []FailedModelSpec `yaml:"failed_models,omitempty"`
}

// UpdateStep is one scripted batch completion.
type UpdateStep struct {
	Snapshot   string `yaml:"snapshot"`
	Batch      int    `yaml:"batch"`
	DurationMS int    `yaml:"duration_ms,omitempty"`
}

// Duration returns the scripted evaluation time.
func (u UpdateStep) Duration() time.Duration {
	return time.Duration(u.DurationMS) * time.Millisecond
}

// FailedModelSpec names a model reported as failed.
type FailedModelSpec struct {
	Model string `yaml:"model"`
	Error string `yaml:"error,omitempty"`
}

// FailScript injects an engine error.
type FailScript struct {
	// During selects the failing phase, "plan" or "run".
	During string `yaml:"during"`

	// Message becomes the injected error text.
	Message string `yaml:"message,omitempty"`
}

// Fail phase constants.
const (
	FailDuringPlan = "plan"
	FailDuringRun  = "run"
)

// ErrorMessage returns the injected error text, with a default when the
// scenario leaves it blank.
func (f *FailScript) ErrorMessage() string {
	if f == nil || f.Message == "" {
		return "injected failure"
	}
	return f.Message
}

// Succeeded reports the scripted run outcome, defaulting to success.
func (r *RunScript) Succeeded() bool {
	if r == nil || r.Success == nil {
		return true
	}
	return *r.Success
}

// Load reads, schema-validates and decodes a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse schema-validates and decodes scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	if err := ValidateYAML(data); err != nil {
		return nil, err
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validate checks referential consistency beyond the schema's shape
// checks. Update steps may target planned-but-unknown snapshots on
// purpose, so they are only checked against the declared models.
func validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(s.Models) == 0 {
		return fmt.Errorf("models list is required and must be non-empty")
	}

	defined := make(map[string]bool, len(s.Models))
	for i, m := range s.Models {
		if m.Name == "" {
			return fmt.Errorf("models[%d]: name is required", i)
		}
		if defined[m.Name] {
			return fmt.Errorf("models[%d]: duplicate model %q", i, m.Name)
		}
		defined[m.Name] = true
	}

	if s.Plan != nil {
		for i, name := range s.Plan.Selected {
			if !defined[name] {
				return fmt.Errorf("plan.selected[%d]: unknown model %q", i, name)
			}
		}
		for i, snap := range s.Plan.Snapshots {
			if snap.Model == "" {
				return fmt.Errorf("plan.snapshots[%d]: model is required", i)
			}
			if !defined[snap.Model] {
				return fmt.Errorf("plan.snapshots[%d]: unknown model %q", i, snap.Model)
			}
		}
	}

	if s.Run != nil {
		for name, count := range s.Run.Batches {
			if !defined[name] {
				return fmt.Errorf("run.batches: unknown model %q", name)
			}
			if count < 0 {
				return fmt.Errorf("run.batches[%q]: count must be non-negative", name)
			}
		}
		for i, u := range s.Run.Updates {
			if u.Snapshot == "" {
				return fmt.Errorf("run.updates[%d]: snapshot is required", i)
			}
			if !defined[u.Snapshot] {
				return fmt.Errorf("run.updates[%d]: unknown model %q", i, u.Snapshot)
			}
			if u.Batch < 0 {
				return fmt.Errorf("run.updates[%d]: batch must be non-negative", i)
			}
			if u.DurationMS < 0 {
				return fmt.Errorf("run.updates[%d]: duration_ms must be non-negative", i)
			}
		}
		for i, fm := range s.Run.FailedModels {
			if fm.Model == "" {
				return fmt.Errorf("run.failed_models[%d]: model is required", i)
			}
		}
	}

	if s.Fail != nil {
		switch s.Fail.During {
		case FailDuringPlan, FailDuringRun:
		default:
			return fmt.Errorf("fail.during: must be %q or %q, got %q", FailDuringPlan, FailDuringRun, s.Fail.During)
		}
	}

	return nil
}
