package mesh

import (
	"fmt"
	"strings"
)

// FQN is a parsed fully qualified model name.
type FQN struct {
	Catalog  string
	Schema   string
	ViewName string
}

// ParseFQN splits a fully qualified model name into its three parts.
// Identifier quoting is stripped, so `"db"."schema"."view"` and
// `db.schema.view` parse identically.
func ParseFQN(name string) (FQN, error) {
	clean := strings.ReplaceAll(name, `"`, "")
	parts := strings.Split(clean, ".")
	if len(parts) != 3 {
		return FQN{}, fmt.Errorf("parse fqn %q: expected catalog.schema.view_name", name)
	}
	return FQN{Catalog: parts[0], Schema: parts[1], ViewName: parts[2]}, nil
}

// String renders the FQN without quoting.
func (f FQN) String() string {
	return f.Catalog + "." + f.Schema + "." + f.ViewName
}

// ModelKey converts a model name to the orchestrator's output-name form:
// quoting stripped, dots replaced with underscores.
func ModelKey(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, `"`, ""), ".", "_")
}

// AssetPath converts a model name to an asset key path: quoting stripped,
// dots replaced with slashes.
func AssetPath(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, `"`, ""), ".", "/")
}

// ModelDep is a dependency reference from one model to another. Model is
// nil when the dependency points outside the project (an external table).
type ModelDep struct {
	FQN   string
	Model *Model
}

// Parse returns the dependency's parsed FQN.
func (d ModelDep) Parse() (FQN, error) {
	return ParseFQN(d.FQN)
}
