package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/meshbridge/internal/scenario"
)

// ValidationResult holds the validation outcome for one scenario file.
type ValidationResult struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml> [more...]",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files against the scenario schema and consistency
rules without driving the engine.

Exit codes:
  0 - All scenarios valid
  1 - One or more scenarios invalid
  2 - Command error (file not found, etc.)

Examples:
  meshbridge validate scenarios/simple_chain.yaml
  meshbridge validate scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Missing files are command errors, not validation failures
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return NewExitError(ExitCommandError, fmt.Sprintf("scenario file not found: %s", path))
		}
	}

	results := make([]ValidationResult, 0, len(paths))
	invalid := 0
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		result := ValidationResult{File: path, Valid: true}
		if _, err := scenario.Load(path); err != nil {
			result.Valid = false
			result.Error = err.Error()
			invalid++
		}
		results = append(results, result)
	}

	if formatter.Format == "json" {
		return outputValidateJSON(formatter, results, invalid)
	}
	return outputValidateText(formatter, results, invalid)
}

// outputValidateJSON outputs validation results as JSON.
func outputValidateJSON(formatter *OutputFormatter, results []ValidationResult, invalid int) error {
	response := CLIResponse{
		Status: "ok",
		Data:   results,
	}
	if invalid > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Message: fmt.Sprintf("%d scenario(s) invalid", invalid),
		}
	}

	if err := formatter.JSON(response); err != nil {
		return err
	}

	if invalid > 0 {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", invalid))
	}
	return nil
}

// outputValidateText outputs validation results as text.
func outputValidateText(formatter *OutputFormatter, results []ValidationResult, invalid int) error {
	for _, result := range results {
		if result.Valid {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", result.File)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", result.File)
		fmt.Fprintf(formatter.Writer, "  %s\n", result.Error)
	}
	fmt.Fprintln(formatter.Writer)

	if invalid > 0 {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", invalid))
	}

	fmt.Fprintln(formatter.Writer, "✓ All scenarios valid")
	return nil
}
