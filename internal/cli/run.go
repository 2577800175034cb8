package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/meshbridge/internal/bridge"
	"github.com/roach88/meshbridge/internal/controller"
	"github.com/roach88/meshbridge/internal/meshtest"
	"github.com/roach88/meshbridge/internal/scenario"
	"github.com/roach88/meshbridge/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Environment string
	Select      []string
	SkipRun     bool
	TraceDB     string
}

// AssetResult is one materialized asset in the run output.
type AssetResult struct {
	AssetKey   string `json:"asset_key"`
	Updated    bool   `json:"updated"`
	DurationMS int64  `json:"duration_ms"`
}

// RunResult holds the outcome of one bridged scenario run.
type RunResult struct {
	Scenario    string        `json:"scenario"`
	Environment string        `json:"environment"`
	Succeeded   bool          `json:"succeeded"`
	Assets      []AssetResult `json:"assets"`
	Error       string        `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario through the bridge",
		Long: `Run a scenario file through the full bridge: plan, apply and run the
scripted engine, then report one materialization per asset in dependency
order.

Exit codes:
  0 - Run succeeded
  1 - Engine reported a failure
  2 - Command error (bad scenario file, bad flags, etc.)

Examples:
  meshbridge run scenarios/simple_chain.yaml
  meshbridge run scenarios/simple_chain.yaml --environment staging
  meshbridge run scenarios/simple_chain.yaml --select warehouse_raw_seed_orders
  meshbridge run scenarios/simple_chain.yaml --trace-db ./trace.db
  meshbridge run scenarios/simple_chain.yaml --skip-run --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Environment, "environment", "", "target environment (defaults to the scenario's)")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "restrict results to these outputs (underscore-joined model keys)")
	cmd.Flags().BoolVar(&opts.SkipRun, "skip-run", false, "stop after the plan has been applied")
	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "record the event stream to this SQLite database")

	return cmd
}

func runBridge(opts *RunOptions, scenarioPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Load scenario
	scn, err := scenario.Load(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	logger.Info("scenario loaded", "name", scn.Name, "models", len(scn.Models))

	environment := opts.Environment
	if environment == "" {
		environment = scn.Environment
	}

	ctrl, err := controller.Setup(scenarioPath, meshtest.Factory(scn), controller.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up controller", err)
	}

	// Record the event stream when tracing is enabled
	runID := ""
	if opts.TraceDB != "" {
		st, err := trace.Open(opts.TraceDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing trace database", "error", closeErr)
			}
		}()

		recorder := trace.NewRecorder(st, logger)
		ctrl.AddEventHandler(recorder.Handle)
		runID = recorder.RunID()
		logger.Info("tracing enabled", "db", opts.TraceDB, "run_id", runID)
	}

	// Run the bridge, collecting results as they are released
	resource := bridge.NewResource(ctrl, logger)
	assets := []AssetResult{}
	runErr := resource.Run(environment, bridge.RunParams{
		SelectedOutputs: opts.Select,
		SkipRun:         opts.SkipRun,
	}, func(res bridge.MaterializeResult) error {
		assets = append(assets, AssetResult{
			AssetKey:   res.AssetKey,
			Updated:    res.Updated,
			DurationMS: res.Duration.Milliseconds(),
		})
		return nil
	})

	result := RunResult{
		Scenario:    scn.Name,
		Environment: environment,
		Succeeded:   runErr == nil,
		Assets:      assets,
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, result, runID)
	}
	return outputRunText(cmd, result, runID)
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(cmd *cobra.Command, result RunResult, runID string) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
		RunID:  runID,
	}
	if !result.Succeeded {
		response.Status = "error"
		response.Error = &CLIError{Message: result.Error}
	}

	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if err := formatter.JSON(response); err != nil {
		return err
	}

	if !result.Succeeded {
		return NewExitError(ExitFailure, "run failed")
	}
	return nil
}

// outputRunText outputs the run result as text.
func outputRunText(cmd *cobra.Command, result RunResult, runID string) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Scenario: %s\n", result.Scenario)
	fmt.Fprintf(w, "Environment: %s\n", result.Environment)
	if runID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", runID)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Assets ===")
	if len(result.Assets) == 0 {
		fmt.Fprintln(w, "  (no materializations)")
	} else {
		for _, asset := range result.Assets {
			if asset.Updated {
				fmt.Fprintf(w, "  ✓ %s (%dms)\n", asset.AssetKey, asset.DurationMS)
			} else {
				fmt.Fprintf(w, "  - %s (skipped)\n", asset.AssetKey)
			}
		}
	}
	fmt.Fprintln(w)

	if !result.Succeeded {
		fmt.Fprintf(w, "✗ Run failed: %s\n", result.Error)
		return NewExitError(ExitFailure, "run failed")
	}

	fmt.Fprintf(w, "✓ %d asset(s) materialized\n", len(result.Assets))
	return nil
}
