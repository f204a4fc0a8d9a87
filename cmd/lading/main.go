// Command lading drives synthetic load against a target process and
// records telemetry about both sides of the run (spec.md §6 CLI surface).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lading-rig/lading/config"
	"github.com/lading-rig/lading/logger"
	"github.com/lading-rig/lading/orchestrator"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.New()

	cmd := config.NewRootCommand(func(f config.Flags) error {
		cfg, err := config.Load(f.ConfigPath)
		if err != nil {
			return err
		}
		if err := f.ApplyTo(cfg); err != nil {
			return err
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}

		result, err := orchestrator.Run(context.Background(), *cfg, log)
		if err != nil {
			return err
		}
		if result.GeneratorErrors != nil && len(result.GeneratorErrors.Errors) > 0 {
			log.Warning("one or more generators failed to start: %v", result.GeneratorErrors)
		}
		os.Exit(result.ExitCode)
		return nil
	})

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
