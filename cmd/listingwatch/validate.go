package main

import (
	"fmt"

	"github.com/jpalmerr/listingwatch/config"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate a listingwatch configuration file without running anything.

This command parses the YAML, expands environment variables, validates all
fields and expands grids into monitors. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid (warnings may still be printed)
  1 - Config is invalid (error details printed to stderr)

Example:
  listingwatch validate -c config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ids, err := config.MonitorIDs(cfg)
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			direct := len(cfg.Monitors)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config is valid!\n")
			fmt.Fprintf(out, "  Notify mode:   %s\n", cfg.Globals.NotifyMode)
			fmt.Fprintf(out, "  Storage:       %s\n", cfg.Globals.Storage.Backend)
			fmt.Fprintf(out, "  Request delay: %s\n", cfg.Globals.RequestDelay.Duration())
			fmt.Fprintf(out, "  Monitors:      %d direct + %d from grids = %d total\n",
				direct, len(ids)-direct, len(ids))
			for _, id := range ids {
				fmt.Fprintf(out, "    - %s\n", id)
			}
			for _, w := range cfg.Warnings {
				fmt.Fprintf(out, "  Warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
