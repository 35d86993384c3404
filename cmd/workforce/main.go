/*
main.go - Application entry point

PURPOSE:
  Starts the workforce simulation CLI.

EXAMPLES:
  # Run the full configured year range
  workforce run --multi-year --config simulation.yaml --db ./data/workforce.db

  # Check the next pending step without executing it
  workforce run --multi-year --validate-only

  # Resume a horizon after a mid-run failure
  workforce run --multi-year --resume-from 2028

  # Serve the HTTP automation surface
  workforce serve --port 8080
*/
package main

import (
	"fmt"
	"os"

	"github.com/warp/workforce-sim/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
