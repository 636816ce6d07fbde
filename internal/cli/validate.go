package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwire/internal/harness"
)

// ScenarioCheck is the validation outcome of one scenario file.
type ScenarioCheck struct {
	File  string `json:"file"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateResult holds the outcome for every file checked.
type ValidateResult struct {
	Scenarios []ScenarioCheck `json:"scenarios"`
	Valid     int             `json:"valid"`
	Invalid   int             `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files",
		Long: `Parse and validate scenario files without running them.

YAML (.yaml, .yml) and CUE (.cue) scenarios are accepted. Unknown fields,
unknown ops, and references to undeclared objects or subscriptions are
reported.

Exit codes:
  0 - All scenarios are valid
  1 - One or more scenarios are invalid
  2 - A scenario file does not exist

Examples:
  patchwire validate ./scenarios/interleaved.yaml
  patchwire validate ./scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenario not found: %s", file), err)
		}
	}

	result := ValidateResult{Scenarios: make([]ScenarioCheck, 0, len(files))}
	for _, file := range files {
		out.VerboseLog("validating %s", file)
		check := ScenarioCheck{File: file}
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			check.Error = err.Error()
			result.Invalid++
		} else {
			check.Name = scenario.Name
			check.Valid = true
			result.Valid++
		}
		result.Scenarios = append(result.Scenarios, check)
	}

	if out.IsJSON() {
		if err := out.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, check := range result.Scenarios {
			if check.Valid {
				fmt.Fprintf(w, "✓ %s (%s)\n", check.Name, check.File)
			} else {
				fmt.Fprintf(w, "✗ %s\n  %s\n", check.File, check.Error)
			}
		}
		fmt.Fprintf(w, "\n%d valid, %d invalid\n", result.Valid, result.Invalid)
	}

	if result.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) invalid", result.Invalid))
	}
	return nil
}
