package scenario

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// ValidateYAML checks scenario YAML against the embedded schema. Errors
// carry CUE positions pointing into the document.
func ValidateYAML(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if !def.Exists() {
		return fmt.Errorf("scenario schema has no #Scenario definition")
	}

	if err := yaml.Validate(data, def); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
