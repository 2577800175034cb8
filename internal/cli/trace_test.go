package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/meshbridge/internal/trace"
)

// seedTrace records a short timeline for runID in a fresh database.
func seedTrace(t *testing.T, dbPath, runID string) {
	t.Helper()
	st, err := trace.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	records := []trace.Record{
		{RunID: runID, Seq: 1, Event: "StartPlanEvaluation", Payload: []byte(`{"environment":"dev","selected_models":[]}`)},
		{RunID: runID, Seq: 2, Event: "StopPlanEvaluation", Payload: []byte(`{}`)},
		{RunID: runID, Seq: 3, Event: "LogSuccess", Payload: []byte(`{"success":true}`)},
	}
	for _, rec := range records {
		require.NoError(t, st.Record(ctx, rec))
	}
}

func TestTraceListRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	seedTrace(t, dbPath, "run-1")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "=== Runs ===")
	assert.Contains(t, output, "run-1  3 event(s)")
}

func TestTraceListRunsJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	seedTrace(t, dbPath, "run-1")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var entries []RunListEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.Equal(t, 3, entries[0].Events)
	assert.NotEmpty(t, entries[0].StartedAt)
}

func TestTraceListRunsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No runs recorded.")
}

func TestTraceShowRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	seedTrace(t, dbPath, "run-1")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", "run-1"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Trace for Run: run-1")
	assert.Contains(t, output, "[1] StartPlanEvaluation")
	assert.Contains(t, output, "[2] StopPlanEvaluation")
	assert.Contains(t, output, "[3] LogSuccess")
	assert.NotContains(t, output, "Payload:")
}

func TestTraceShowRunVerbose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	seedTrace(t, dbPath, "run-1")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", "run-1"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `Payload: {"environment":"dev","selected_models":[]}`)
	assert.Contains(t, output, `Payload: {"success":true}`)
}

func TestTraceShowRunJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	seedTrace(t, dbPath, "run-1")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", "run-1"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.RunID)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result TraceResult
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "run-1", result.RunID)
	require.Len(t, result.Timeline, 3)
	assert.Equal(t, int64(1), result.Timeline[0].Seq)
	assert.Equal(t, "StartPlanEvaluation", result.Timeline[0].Event)
	assert.JSONEq(t, `{"environment":"dev","selected_models":[]}`, string(result.Timeline[0].Payload))
}

func TestTraceUnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	seedTrace(t, dbPath, "run-1")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", "nope"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No events found for run: nope")
}

func TestTraceRequiresDB(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
