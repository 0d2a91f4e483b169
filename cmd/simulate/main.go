// Package main provides a headless CLI for running simulations offline:
// - run: advance N ticks on a manual scheduler, write CSV and report
// - coins, hardware: list catalogs
// - breakdown: daily profitability for a configuration
package main

import (
	"fmt"
	"os"

	"mining-sim-lab/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	app := newApp(cfg, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
