package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRollbackCommand creates the rollback command. It purges the year's
// persisted events and snapshot so a re-run regenerates it from scratch.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <year>",
		Short: "Purge a year's data and reset its checklist state to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			cfg, store, err := setup(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			orch, err := newOrchestrator(cfg, store)
			if err != nil {
				return err
			}
			affected, err := orch.RollbackYear(cmd.Context(), year)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "year %d purged and reset to pending\n", year)
			if len(affected) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "also roll back dependent years: %v\n", affected)
			}
			return nil
		},
	}
}
