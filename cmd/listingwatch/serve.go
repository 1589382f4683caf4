package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/listingwatch"
	"github.com/jpalmerr/listingwatch/dashboard"
	"github.com/jpalmerr/listingwatch/internal/schedule"
	"github.com/jpalmerr/listingwatch/internal/server"
	"github.com/jpalmerr/listingwatch/internal/store"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	configFile string
	port       int
	schedule   string
}

func newServeCmd(global *globalFlags) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the trigger API and results page",
		Long: `Start the listingwatch HTTP server.

The server will:
  - Load configuration from the specified YAML file
  - Run all monitors on GET /api/run-monitor (bearer cron_secret when set)
  - Run one monitor on POST /api/trigger/{id}
  - Serve the latest results at / and /api/results
  - Optionally run all monitors on a cron schedule

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  listingwatch serve -c config.yaml
  listingwatch serve -c config.yaml --schedule "0 8 * * *" --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, global, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "path to config file (required)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "HTTP port (overrides server.port)")
	cmd.Flags().StringVar(&flags.schedule, "schedule", "", `cron expression for periodic runs, e.g. "0 8 * * *" (overrides server.schedule)`)
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runServe(cmd *cobra.Command, global *globalFlags, flags *serveFlags) error {
	logger, err := newLogger(global.logLevel)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.configFile, logger)
	if err != nil {
		return err
	}
	if flags.port != 0 {
		cfg.Server.Port = flags.port
	}
	if flags.schedule != "" {
		cfg.Server.Schedule = flags.schedule
	}
	if cfg.Server.Schedule != "" {
		if err := schedule.Validate(cfg.Server.Schedule); err != nil {
			return err
		}
	}

	results := store.NewMemoryStore()

	w, cleanup, err := buildWatcher(cfg, logger, watcherSetup{
		extra: []listingwatch.Option{listingwatch.WithResultCallback(results.Update)},
	})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(w, results, server.Config{
		Port:       cfg.Server.Port,
		Title:      cfg.Server.Title,
		CronSecret: cfg.Globals.CronSecret,
	}, dashboard.Assets, logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	if cfg.Server.Schedule != "" {
		sched, err := schedule.New(cfg.Server.Schedule, func(ctx context.Context) {
			batch, err := srv.RunAll(ctx)
			if err != nil {
				logger.Warn("scheduled run aborted", "error", err)
				return
			}
			logger.Info("scheduled run complete", "run_id", batch.RunID, "overall_status", batch.OverallStatus)
		}, logger)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
