package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodePlanResult pulls the typed plan result back out of a JSON response.
func decodePlanResult(t *testing.T, resp CLIResponse) PlanResult {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result PlanResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return result
}

func TestPlanScenario(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewPlanCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/simple_chain.yaml"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Plan for environment: dev")
	assert.Contains(t, output, "[1] StartPlanEvaluation")
	assert.Contains(t, output, "environment=dev")
	assert.Contains(t, output, "[2] StopPlanEvaluation {}")
	assert.Contains(t, output, "✓ Plan applied (2 event(s))")
}

func TestPlanScenarioJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewPlanCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/simple_chain.yaml"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	result := decodePlanResult(t, resp)
	assert.Equal(t, "dev", result.Environment)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "StartPlanEvaluation", result.Events[0].Event)
	assert.Equal(t, "dev", result.Events[0].Payload["environment"])
	assert.Equal(t, "StopPlanEvaluation", result.Events[1].Event)
}

func TestPlanFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewPlanCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/plan_failure.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan failed")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	// The failure cuts the stream after the start event
	assert.Contains(t, output, "[1] StartPlanEvaluation")
	assert.NotContains(t, output, "StopPlanEvaluation")
	assert.Contains(t, output, "✗ Plan failed: apply plan: plan exploded")
}

func TestPlanFailureJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewPlanCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/plan_failure.yaml"})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "apply plan: plan exploded", resp.Error.Message)

	result := decodePlanResult(t, resp)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "StartPlanEvaluation", result.Events[0].Event)
}

func TestPlanEnvironmentOverride(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewPlanCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"testdata/simple_chain.yaml", "--environment", "staging"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Plan for environment: staging")
	assert.Contains(t, output, "environment=staging")
}

func TestPlanMissingScenario(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewPlanCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
