package main

import (
	"fmt"
	"log/slog"

	"github.com/jpalmerr/listingwatch"
	"github.com/jpalmerr/listingwatch/config"
	"github.com/jpalmerr/listingwatch/kvstore"
)

// watcherSetup controls how buildWatcher deviates from the config file.
type watcherSetup struct {
	// forcePreview renders notifications instead of sending them.
	forcePreview bool

	// dryRun keeps seen-set writes in memory.
	dryRun bool

	extra []listingwatch.Option
}

// loadConfig loads the config file and logs its warnings.
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, w := range cfg.Warnings {
		logger.Warn("config warning", "warning", w)
	}
	return cfg, nil
}

// buildWatcher wires a Watcher from cfg. The returned cleanup closes the
// watcher and any store connection.
func buildWatcher(cfg *config.Config, logger *slog.Logger, setup watcherSetup) (*listingwatch.Watcher, func(), error) {
	store, err := config.BuildStore(cfg.Globals.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Globals.Storage.Backend, err)
	}
	closeStore := func() {
		if c, ok := store.(config.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close store", "error", err)
			}
		}
	}

	var seenStore kvstore.Store = store
	if setup.dryRun {
		seenStore = kvstore.NewOverlay(store)
	}

	opts, err := config.BuildOptions(cfg, seenStore, logger)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to build monitors: %w", err)
	}
	if setup.forcePreview {
		opts = append(opts, listingwatch.WithNotifyMode(listingwatch.NotifyPreview))
	}
	opts = append(opts, setup.extra...)

	w, err := listingwatch.New(opts...)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	logger.Info("watcher ready",
		"monitors", len(w.Monitors()),
		"notify_mode", w.NotifyMode(),
		"storage", cfg.Globals.Storage.Backend,
		"dry_run", setup.dryRun,
	)

	return w, func() {
		w.Close()
		closeStore()
	}, nil
}
