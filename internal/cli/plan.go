package cli

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/meshbridge/internal/console"
	"github.com/roach88/meshbridge/internal/controller"
	"github.com/roach88/meshbridge/internal/mesh"
	"github.com/roach88/meshbridge/internal/meshtest"
	"github.com/roach88/meshbridge/internal/scenario"
	"github.com/roach88/meshbridge/internal/trace"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Environment string
	Select      []string
	Catalog     string
}

// PlanEvent is one event in the plan output.
type PlanEvent struct {
	Seq     int            `json:"seq"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

// PlanResult holds the plan command output.
type PlanResult struct {
	Environment string      `json:"environment"`
	Events      []PlanEvent `json:"events"`
	Error       string      `json:"error,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <scenario.yaml>",
		Short: "Plan a scenario without running it",
		Long: `Build and apply a plan for a scenario and print the event stream the
engine emitted, without evaluating anything.

Examples:
  meshbridge plan scenarios/simple_chain.yaml
  meshbridge plan scenarios/simple_chain.yaml --environment staging
  meshbridge plan scenarios/simple_chain.yaml --catalog analytics
  meshbridge plan scenarios/simple_chain.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Environment, "environment", "", "target environment (defaults to the scenario's)")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "restrict the plan to these models")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "default catalog applied with the plan")

	return cmd
}

func runPlan(opts *PlanOptions, scenarioPath string, cmd *cobra.Command) error {
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

	scn, err := scenario.Load(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	environment := opts.Environment
	if environment == "" {
		environment = scn.Environment
	}

	ctrl, err := controller.Setup(scenarioPath, meshtest.Factory(scn), controller.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up controller", err)
	}

	// Leave the same diagnostic trail on stderr that a full run does
	ctrl.AddEventHandler(console.NewRecorder(logger).Handle)

	var callOpts []controller.PlanCallOption
	if opts.Catalog != "" {
		callOpts = append(callOpts, controller.WithDefaultCatalog(opts.Catalog))
	}

	// Collect the stream; the terminal failure surfaces through Err
	result := PlanResult{Environment: environment, Events: []PlanEvent{}}
	stream := ctrl.Plan(environment, mesh.PlanOptions{
		SharedOptions: mesh.SharedOptions{SelectModels: opts.Select},
	}, callOpts...)
	for stream.Next() {
		ev := stream.Event()
		result.Events = append(result.Events, PlanEvent{
			Seq:     len(result.Events) + 1,
			Event:   console.EventName(ev),
			Payload: trace.EventPayload(ev),
		})
	}
	if err := stream.Err(); err != nil {
		result.Error = err.Error()
	}

	if opts.Format == "json" {
		return outputPlanJSON(cmd, result)
	}
	return outputPlanText(cmd, result)
}

// outputPlanJSON outputs the plan result as JSON.
func outputPlanJSON(cmd *cobra.Command, result PlanResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Error != "" {
		response.Status = "error"
		response.Error = &CLIError{Message: result.Error}
	}

	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if err := formatter.JSON(response); err != nil {
		return err
	}

	if result.Error != "" {
		return NewExitError(ExitFailure, "plan failed")
	}
	return nil
}

// formatArgs formats a payload map for display.
// Uses sorted keys to ensure deterministic output.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	// Sort keys for deterministic output
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatValue formats a single value for display, handling nested structures deterministically.
func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return formatArgs(val)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// outputPlanText outputs the plan result as text.
func outputPlanText(cmd *cobra.Command, result PlanResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Plan for environment: %s\n", result.Environment)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Events ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, event := range result.Events {
			fmt.Fprintf(w, "  [%d] %s %s\n", event.Seq, event.Event, formatArgs(event.Payload))
		}
	}
	fmt.Fprintln(w)

	if result.Error != "" {
		fmt.Fprintf(w, "✗ Plan failed: %s\n", result.Error)
		return NewExitError(ExitFailure, "plan failed")
	}

	fmt.Fprintf(w, "✓ Plan applied (%d event(s))\n", len(result.Events))
	return nil
}
