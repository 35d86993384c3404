/*
Package cli wires the simulation into a command-line surface.

PURPOSE:
  Thin cobra commands over the orchestrator. Flags map one-to-one onto
  sim.Options; no business logic lives here.

COMMANDS:
  run       Execute the simulation (optionally multi-year, resumable)
  rollback  Purge a year's data so it can be regenerated
  serve     Expose the HTTP automation surface
*/
package cli

import (
	"github.com/spf13/cobra"

	"github.com/warp/workforce-sim/sim"
	"github.com/warp/workforce-sim/store/sqlite"
	"github.com/warp/workforce-sim/workforce"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath string
	DBPath     string
}

// NewRootCommand creates the workforce command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "workforce",
		Short:         "Multi-year workforce simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "simulation.yaml", "simulation configuration file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "workforce.db", "SQLite database path (\":memory:\" for in-memory)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRollbackCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// setup loads configuration and opens the store. The caller owns closing
// the returned store.
func setup(opts *RootOptions) (sim.Config, *sqlite.Store, error) {
	cfg, err := sim.Load(opts.ConfigPath)
	if err != nil {
		return sim.Config{}, nil, err
	}
	store, err := sqlite.New(opts.DBPath)
	if err != nil {
		return sim.Config{}, nil, err
	}
	return cfg, store, nil
}

// newOrchestrator builds an orchestrator over the store, seeded with a
// synthetic baseline for the case where the store is empty.
func newOrchestrator(cfg sim.Config, store *sqlite.Store) (*sim.Orchestrator, error) {
	baseline := workforce.SyntheticBaseline(cfg.StartYear, cfg.StartingHeadcount, cfg.Generator.NewHire)
	return sim.New(cfg, store, sim.StoreTransformer{Store: store}, baseline)
}
