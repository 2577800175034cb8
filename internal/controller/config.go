package controller

// Config locates the engine project and selects how it connects.
type Config struct {
	// Path is the project directory the engine loads.
	Path string `yaml:"path"`

	// Gateway selects a connection gateway defined by the project.
	// Defaults to "local".
	Gateway string `yaml:"gateway,omitempty"`

	// Overrides are raw engine configuration values applied on top of the
	// project's own configuration.
	Overrides map[string]string `yaml:"overrides,omitempty"`
}
