package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jpalmerr/listingwatch"
	"github.com/spf13/cobra"
)

// errRunFailed makes the process exit non-zero after the result was printed.
var errRunFailed = errors.New("one or more monitors failed")

type runFlags struct {
	configFile string
	monitorID  string
}

func newRunCmd(global *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every monitor once",
		Long: `Run every configured monitor once and print the batch result as JSON.

Notifications are sent or previewed according to globals.notify_mode and
seen listings are saved to the configured storage. The exit code is 1 when
any monitor failed, which makes the command suitable for cron or CI.

Example:
  listingwatch run -c config.yaml
  listingwatch run -c config.yaml --monitor riga-centre`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, global, flags, watcherSetup{})
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "path to config file (required)")
	cmd.Flags().StringVarP(&flags.monitorID, "monitor", "m", "", "run only the monitor with this id")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

type previewFlags struct {
	runFlags
	outDir string
}

func newPreviewCmd(global *globalFlags) *cobra.Command {
	flags := &previewFlags{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render notifications without sending them or saving seen listings",
		Long: `Run every monitor in preview mode. Nothing is sent and seen sets are
read but never written, so a later run still reports the same listings.

With --out the rendered e-mail bodies are written to <dir>/<monitor-id>.html;
otherwise the batch result, including the bodies, is printed as JSON.

Example:
  listingwatch preview -c config.yaml --out ./previews`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.outDir == "" {
				return runOnce(cmd, global, &flags.runFlags, watcherSetup{forcePreview: true, dryRun: true})
			}
			return runPreviewToDir(cmd, global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "path to config file (required)")
	cmd.Flags().StringVarP(&flags.monitorID, "monitor", "m", "", "preview only the monitor with this id")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "", "write rendered bodies to this directory")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runOnce(cmd *cobra.Command, global *globalFlags, flags *runFlags, setup watcherSetup) error {
	batch, err := execute(cmd, global, flags, setup)
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), batch); err != nil {
		return err
	}
	if batch.OverallStatus != listingwatch.StatusSuccess {
		return errRunFailed
	}
	return nil
}

func runPreviewToDir(cmd *cobra.Command, global *globalFlags, flags *previewFlags) error {
	batch, err := execute(cmd, global, &flags.runFlags, watcherSetup{forcePreview: true, dryRun: true})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(flags.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, r := range batch.Results {
		if r.EmailPreviewHTML == "" {
			fmt.Fprintf(out, "%-30s %s: %s\n", r.MonitorID, r.Status, r.Message)
			continue
		}
		path := filepath.Join(flags.outDir, r.MonitorID+".html")
		if err := os.WriteFile(path, []byte(r.EmailPreviewHTML), 0o644); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}
		fmt.Fprintf(out, "%-30s %d new -> %s\n", r.MonitorID, r.NewListingCount, path)
	}

	if batch.OverallStatus != listingwatch.StatusSuccess {
		return errRunFailed
	}
	return nil
}

// execute runs the batch, or a single monitor when --monitor is set, until
// done or interrupted.
func execute(cmd *cobra.Command, global *globalFlags, flags *runFlags, setup watcherSetup) (listingwatch.BatchResult, error) {
	logger, err := newLogger(global.logLevel)
	if err != nil {
		return listingwatch.BatchResult{}, err
	}

	cfg, err := loadConfig(flags.configFile, logger)
	if err != nil {
		return listingwatch.BatchResult{}, err
	}

	w, cleanup, err := buildWatcher(cfg, logger, setup)
	if err != nil {
		return listingwatch.BatchResult{}, err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flags.monitorID == "" {
		return w.RunAll(ctx), nil
	}

	result, err := w.RunMonitor(ctx, flags.monitorID)
	if err != nil {
		return listingwatch.BatchResult{}, err
	}
	status := listingwatch.StatusSuccess
	if !result.OK() {
		status = listingwatch.StatusPartialError
	}
	return listingwatch.BatchResult{
		OverallStatus: status,
		Results:       []listingwatch.MonitorRunResult{result},
		Cancelled:     errors.Is(ctx.Err(), context.Canceled),
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
