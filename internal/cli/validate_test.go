package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario drops scenario YAML into a temp file and returns its path.
func writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateValidScenario(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/simple_chain.yaml"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ testdata/simple_chain.yaml")
	assert.Contains(t, output, "✓ All scenarios valid")
}

func TestValidateValidScenarioJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/simple_chain.yaml"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestValidateMultipleScenarios(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/simple_chain.yaml", "testdata/failing_run.yaml", "testdata/plan_failure.yaml"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ testdata/simple_chain.yaml")
	assert.Contains(t, output, "✓ testdata/failing_run.yaml")
	assert.Contains(t, output, "✓ testdata/plan_failure.yaml")
	assert.Contains(t, output, "✓ All scenarios valid")
}

func TestValidateMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateInvalidScenario(t *testing.T) {
	path := writeScenario(t, "bad.yaml",
		"name: bad\nenvironment: dev\nmodels:\n  - name: a.b.c\n  - name: a.b.c\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ "+path)
	assert.Contains(t, output, "duplicate model")
}

func TestValidateSchemaViolation(t *testing.T) {
	// Unknown fields are rejected by the schema before decoding
	path := writeScenario(t, "unknown_field.yaml",
		"name: bad\nenvironment: dev\nmodels:\n  - name: a.b.c\nbogus: true\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ "+path)
}

func TestValidateInvalidScenarioJSON(t *testing.T) {
	path := writeScenario(t, "bad.yaml",
		"name: bad\nenvironment: dev\nmodels:\n  - name: a.b.c\n  - name: a.b.c\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "1 scenario(s) invalid")
}

func TestValidateMixedResults(t *testing.T) {
	bad := writeScenario(t, "bad.yaml",
		"name: bad\nenvironment: dev\nmodels:\n  - name: a.b.c\n  - name: a.b.c\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/simple_chain.yaml", bad})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")

	output := buf.String()
	assert.Contains(t, output, "✓ testdata/simple_chain.yaml")
	assert.Contains(t, output, "✗ "+bad)
}
