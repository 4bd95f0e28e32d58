package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tablegraph/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
	Cycles   []compiler.ReferenceCycle  `json:"cycles,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <mapping>",
		Short: "Check a mapping without touching a database",
		Long: `Compile a CUE mapping and lint it.

Reports errors (invalid sources, broken joins), warnings (constant
subjects, SQL-only views, entity maps that emit nothing) and reference
cycles between entity maps. Exits 1 when any error-level finding exists.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, mappingPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadMapping(mappingPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d entity map(s) from %d file(s)", loaded.Spec.Len(), loaded.FileCount)

	result := ValidationResult{Cycles: compiler.AnalyzeReferences(loaded.Spec)}
	for _, finding := range compiler.Validate(loaded.Spec) {
		if finding.Level == compiler.LevelError {
			result.Errors = append(result.Errors, finding)
		} else {
			result.Warnings = append(result.Warnings, finding)
		}
	}
	result.Valid = len(result.Errors) == 0

	if formatter.IsJSON() {
		if !result.Valid {
			_ = formatter.Failure(result, result.Errors[0].Code,
				fmt.Sprintf("%d validation error(s)", len(result.Errors)))
			return reportedError(ExitFailure, "validation failed", nil)
		}
		return formatter.Success(result)
	}

	out := formatter.Writer
	for _, e := range result.Errors {
		fmt.Fprintf(out, "✗ %s\n", e.Error())
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "! %s\n", w.Error())
	}
	for _, c := range result.Cycles {
		fmt.Fprintf(out, "i %s\n", c.Message)
	}
	if !result.Valid {
		fmt.Fprintf(out, "Validation failed: %d error(s)\n", len(result.Errors))
		return reportedError(ExitFailure, "validation failed", nil)
	}
	fmt.Fprintf(out, "✓ Mapping valid: %d entity map(s)\n", loaded.Spec.Len())
	return nil
}
