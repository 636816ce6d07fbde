package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/patchwire/internal/engine"
	"github.com/roach88/patchwire/internal/harness"
	"github.com/roach88/patchwire/internal/ir"
	"github.com/roach88/patchwire/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Name       string             `json:"name"`
	Pass       bool               `json:"pass"`
	Deliveries []harness.Delivery `json:"deliveries"`
	Errors     []string           `json:"errors,omitempty"`
	Journal    string             `json:"journal,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a scenario and print its deliveries",
		Long: `Run a scenario against a fresh document.

Every batch delivered to a scenario subscription is printed in delivery
order, followed by the assertion results. With --db, whole-document
batches are also journaled to a SQLite database under the scenario name;
inspect them later with 'patchwire trace'.

Exit codes:
  0 - All assertions held
  1 - One or more assertions failed, or a step failed to apply
  2 - Command error (missing or invalid scenario, unusable database)

Examples:
  patchwire run ./scenarios/interleaved.yaml
  patchwire run ./scenarios/text.cue --db ./journal.db
  patchwire run ./scenarios/interleaved.yaml --verbose --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal delivered batches to this SQLite database")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if _, err := os.Stat(path); err != nil {
		return out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenario not found: %s", path), err)
	}
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalid, "invalid scenario", err)
	}
	logger.Debug("scenario loaded", "name", scenario.Name, "steps", len(scenario.Steps))

	reg := prometheus.NewRegistry()
	runOpts := []harness.Option{
		harness.WithLogger(logger),
		harness.WithMetrics(engine.NewMetrics(reg)),
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeJournal, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		runOpts = append(runOpts, harness.WithJournal(ctx, st))
		logger.Info("journaling deliveries", "db", opts.Database, "document", scenario.Name)
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeExecution, "scenario execution failed", err)
	}

	payload := RunResult{
		Name:       scenario.Name,
		Pass:       result.Pass,
		Deliveries: result.Deliveries,
		Errors:     result.Errors,
		Journal:    opts.Database,
	}
	if opts.Verbose {
		payload.Metrics, err = gatherTotals(reg)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to gather metrics", err)
		}
	}

	if out.IsJSON() {
		if err := out.Success(payload); err != nil {
			return err
		}
	} else if err := writeRunText(cmd.OutOrStdout(), payload); err != nil {
		return err
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed %d assertion(s)", scenario.Name, len(result.Errors)))
	}
	return nil
}

func writeRunText(w io.Writer, r RunResult) error {
	fmt.Fprintf(w, "Scenario: %s\n", r.Name)
	if len(r.Deliveries) == 0 {
		fmt.Fprintln(w, "No deliveries.")
	}
	for _, d := range r.Deliveries {
		fmt.Fprintf(w, "[%s #%d] %d patch(es)\n", d.Subscription, d.Batch, len(d.Patches))
		for _, p := range d.Patches {
			data, err := ir.MarshalCanonical(p)
			if err != nil {
				return fmt.Errorf("render %s batch %d: %w", d.Subscription, d.Batch, err)
			}
			fmt.Fprintf(w, "    %s\n", data)
		}
	}

	if r.Journal != "" {
		fmt.Fprintf(w, "Journal: %s\n", r.Journal)
	}
	if len(r.Metrics) > 0 {
		fmt.Fprintln(w, "Metrics:")
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s %g\n", name, r.Metrics[name])
		}
	}

	if r.Pass {
		fmt.Fprintln(w, "PASS")
		return nil
	}
	fmt.Fprintln(w, "FAIL")
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	return nil
}

// gatherTotals flattens the registry into name{labels} -> value. Counters
// report their value; histograms report their sample count.
func gatherTotals(reg *prometheus.Registry) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				pairs := make([]string, len(labels))
				for i, l := range labels {
					pairs[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
				}
				name += "{" + strings.Join(pairs, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				totals[name] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				totals[name+"_count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return totals, nil
}
