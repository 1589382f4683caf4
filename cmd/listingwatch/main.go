// Package main is the entry point for the listingwatch CLI.
//
// listingwatch can be used as a library (SDK) or as a standalone binary
// driven by a YAML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	listingwatch run -c config.yaml      # Run every monitor once
//	listingwatch preview -c config.yaml  # Render notifications without sending or saving
//	listingwatch serve -c config.yaml    # Start the trigger API and results page
//	listingwatch validate -c config.yaml # Validate configuration
//	listingwatch version                 # Show version info
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultEnvFile is loaded when present; a missing file is not an error.
const defaultEnvFile = ".env"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel string
	envFile  string
}

// newRootCmd builds the command tree. A fresh tree per invocation keeps
// flag state from leaking between test runs.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "listingwatch",
		Short: "Watch ss.com real-estate listings and get notified about new ones",
		Long: `listingwatch scrapes ss.com real-estate listing pages, filters the
listings against per-monitor criteria and reports the ones it has not seen
before, either as an e-mail (Resend) or as an HTML preview.

Quick start:
  1. Create a config file (listingwatch.yaml)
  2. Run: listingwatch preview -c listingwatch.yaml
  3. When the preview looks right, set notify_mode: send and schedule
     listingwatch run, or start listingwatch serve --schedule "0 8 * * *"

Example config:
  globals:
    notify_mode: preview
  monitors:
    - id: riga-centre
      type: flat
      url: https://www.ss.com/lv/real-estate/flats/riga/centre/sell/
      max_pages: 5
      filters:
        min_rooms: 3
        max_total_price: 250000`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(flags.envFile, cmd.Flags().Changed("env-file"))
		},
	}

	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", defaultEnvFile, "dotenv file loaded before the config is parsed")

	root.AddCommand(
		newRunCmd(flags),
		newPreviewCmd(flags),
		newServeCmd(flags),
		newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is only an error when the path was
// given explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// newLogger creates a JSON logger on stderr at the given level.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this listingwatch binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "listingwatch %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
