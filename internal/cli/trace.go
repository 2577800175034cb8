package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/meshbridge/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Run      string // optional - show one run's timeline
}

// TraceEvent is one recorded event in the timeline output.
type TraceEvent struct {
	Seq     int64           `json:"seq"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TraceResult holds one run's recorded timeline.
type TraceResult struct {
	RunID    string       `json:"run_id"`
	Timeline []TraceEvent `json:"timeline"`
}

// RunListEntry is one recorded run in the listing output.
type RunListEntry struct {
	RunID     string `json:"run_id"`
	Events    int    `json:"events"`
	StartedAt string `json:"started_at"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded event streams",
		Long: `Inspect event streams recorded with run --trace-db.

Without --run, lists the recorded runs. With --run, prints that run's
event timeline in delivery order.

Examples:
  meshbridge trace --db ./trace.db
  meshbridge trace --db ./trace.db --run 0198c2f3-1a88-7c3e-9f9f-2b6d6a54d001
  meshbridge trace --db ./trace.db --run 0198c2f3-1a88-7c3e-9f9f-2b6d6a54d001 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to trace SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run ID to show")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	// Open trace database
	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer st.Close()

	if opts.Run == "" {
		return listRuns(ctx, st, opts, cmd)
	}
	return showRun(ctx, st, opts, cmd)
}

// listRuns prints the recorded runs in recording order.
func listRuns(ctx context.Context, st *trace.Store, opts *TraceOptions, cmd *cobra.Command) error {
	summaries, err := st.Runs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	entries := make([]RunListEntry, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, RunListEntry{
			RunID:     s.RunID,
			Events:    s.Events,
			StartedAt: s.StartedAt,
		})
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.JSON(CLIResponse{Status: "ok", Data: entries})
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintln(w, "=== Runs ===")
	for _, entry := range entries {
		fmt.Fprintf(w, "  %s  %d event(s)  started %s\n", entry.RunID, entry.Events, entry.StartedAt)
	}
	return nil
}

// showRun prints one run's timeline.
func showRun(ctx context.Context, st *trace.Store, opts *TraceOptions, cmd *cobra.Command) error {
	records, err := st.ReadRun(ctx, opts.Run)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	result := TraceResult{RunID: opts.Run, Timeline: make([]TraceEvent, 0, len(records))}
	for _, rec := range records {
		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:     rec.Seq,
			Event:   rec.Event,
			Payload: json.RawMessage(rec.Payload),
		})
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.JSON(CLIResponse{Status: "ok", Data: result, RunID: opts.Run})
	}

	w := cmd.OutOrStdout()
	if len(result.Timeline) == 0 {
		fmt.Fprintf(w, "No events found for run: %s\n", opts.Run)
		return nil
	}

	fmt.Fprintf(w, "Trace for Run: %s\n", result.RunID)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	for _, event := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s\n", event.Seq, event.Event)
		if opts.Verbose && len(event.Payload) > 0 {
			fmt.Fprintf(w, "       Payload: %s\n", event.Payload)
		}
	}

	return nil
}
