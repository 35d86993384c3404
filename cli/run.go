package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/workforce-sim/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	MultiYear    bool
	ResumeFrom   int
	ValidateOnly bool
	ForceStep    string
	JSON         bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the workforce simulation",
		Long: `Execute the workforce simulation.

Without --multi-year only the configured start year runs. With it, the
full start..end range runs sequentially, each year baselined on the
previous year's snapshot.

--validate-only asserts readiness of the next pending step and stops.
--force-step bypasses the checklist guard for one named step; the
prerequisites of a forced step are NOT verified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.MultiYear, "multi-year", false, "run the full configured year range")
	cmd.Flags().IntVar(&opts.ResumeFrom, "resume-from", 0, "skip years before this one (requires their completed checklist state)")
	cmd.Flags().BoolVar(&opts.ValidateOnly, "validate-only", false, "assert readiness of the next pending step without executing")
	cmd.Flags().StringVar(&opts.ForceStep, "force-step", "", "bypass the checklist guard for this step")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the run result as JSON")

	return cmd
}

func runSimulation(opts *RunOptions, cmd *cobra.Command) error {
	cfg, store, err := setup(opts.RootOptions)
	if err != nil {
		return err
	}
	defer store.Close()

	if !opts.MultiYear {
		cfg.EndYear = cfg.StartYear
	}
	orch, err := newOrchestrator(cfg, store)
	if err != nil {
		return err
	}

	simOpts := sim.Options{ResumeFrom: opts.ResumeFrom, ValidateOnly: opts.ValidateOnly}
	if opts.ForceStep != "" {
		step, ok := sim.ParseStep(opts.ForceStep)
		if !ok {
			return fmt.Errorf("unknown step %q", opts.ForceStep)
		}
		simOpts.ForceStep = step
	}

	result, runErr := orch.Run(cmd.Context(), simOpts)

	if opts.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		for _, yr := range result.Years {
			fmt.Fprintf(cmd.OutOrStdout(), "year %d: hires=%d terminations=%d ending_active=%d net=%+d\n",
				yr.Year, yr.Report.Hires,
				yr.Report.ExperiencedTerminations+yr.Report.NewHireTerminations,
				yr.EndingActive, yr.Variance.Actual)
		}
	}
	return runErr
}
