package listingwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/listingwatch/internal/fetcher"
	"github.com/jpalmerr/listingwatch/internal/notify"
	"github.com/jpalmerr/listingwatch/internal/seen"
	"github.com/jpalmerr/listingwatch/kvstore"
)

const (
	defaultBaseURL         = "https://www.ss.com"
	defaultRequestDelay    = 1500 * time.Millisecond
	defaultMaxSeen         = seen.DefaultMaxSeen
	defaultFetchTimeout    = 30 * time.Second
	defaultStoreTimeout    = 10 * time.Second
	defaultDispatchTimeout = 15 * time.Second
	defaultMaxConcurrency  = 1
	defaultUserAgent       = "listingwatch/1.0 (+https://github.com/jpalmerr/listingwatch)"
)

// ErrMonitorNotFound is returned by [Watcher.RunMonitor] for an unknown ID.
var ErrMonitorNotFound = errors.New("monitor not found")

// Watcher runs monitors: it fetches their sources, filters the listings,
// drops the ones already reported and notifies about the rest.
//
// A Watcher holds only immutable settings and can be shared. It does not
// stop two overlapping runs of the same monitor from racing on that
// monitor's seen set; callers that trigger runs from several places must
// serialise them (listingwatch serve does).
//
//	w, err := listingwatch.New(
//	    listingwatch.WithMonitor(m),
//	    listingwatch.WithStore(store),
//	)
//	if err != nil {
//	    return err
//	}
//	batch := w.RunAll(ctx)
type Watcher struct {
	monitors        []Monitor
	index           map[string]int
	baseURL         string
	notifyMode      NotifyMode
	maxConcurrency  int
	client          *fetcher.Client
	pager           *fetcher.Pager
	seen            *seen.Store
	notifier        *notify.Notifier
	logger          *slog.Logger
	resultCallbacks []func(MonitorRunResult)
}

// New creates a [Watcher].
//
// At least one monitor is required and monitor IDs must be unique. Defaults:
//   - store: in-memory
//   - notify mode: preview
//   - request delay: 1.5s
//   - max seen listings: 100
//   - fetch / store / dispatch timeouts: 30s / 10s / 15s
//   - max concurrency: 1
func New(opts ...Option) (*Watcher, error) {
	cfg := &watcherConfig{
		notifyMode:      NotifyPreview,
		baseURL:         defaultBaseURL,
		requestDelay:    defaultRequestDelay,
		pageSuffix:      fetcher.DefaultPageSuffix,
		userAgent:       defaultUserAgent,
		maxSeen:         defaultMaxSeen,
		fetchTimeout:    defaultFetchTimeout,
		storeTimeout:    defaultStoreTimeout,
		dispatchTimeout: defaultDispatchTimeout,
		maxConcurrency:  defaultMaxConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.monitors) == 0 {
		return nil, errors.New("at least one monitor is required")
	}

	index := make(map[string]int, len(cfg.monitors))
	for i, m := range cfg.monitors {
		if m.id == "" {
			return nil, fmt.Errorf("monitor at position %d was not created with NewMonitor", i)
		}
		if _, dup := index[m.id]; dup {
			return nil, fmt.Errorf("duplicate monitor id: %q", m.id)
		}
		index[m.id] = i
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	store := cfg.store
	if store == nil {
		store = kvstore.NewMemory()
	}

	client := fetcher.NewClient()

	return &Watcher{
		monitors:       cfg.monitors,
		index:          index,
		baseURL:        cfg.baseURL,
		notifyMode:     cfg.notifyMode,
		maxConcurrency: cfg.maxConcurrency,
		client:         client,
		pager: fetcher.NewPager(client, fetcher.PagerConfig{
			Delay:     cfg.requestDelay,
			Suffix:    cfg.pageSuffix,
			UserAgent: cfg.userAgent,
			Timeout:   cfg.fetchTimeout,
		}, logger),
		seen: seen.NewStore(store, cfg.maxSeen, cfg.storeTimeout, logger),
		notifier: notify.New(cfg.dispatcher, notify.Config{
			Mode:    notify.Mode(cfg.notifyMode),
			Sender:  cfg.sender,
			Timeout: cfg.dispatchTimeout,
		}, logger),
		logger:          logger,
		resultCallbacks: cfg.resultCallbacks,
	}, nil
}

// Monitors returns a copy of the configured monitors in run order.
func (w *Watcher) Monitors() []Monitor {
	cp := make([]Monitor, len(w.monitors))
	copy(cp, w.monitors)
	return cp
}

// Monitor looks up a monitor by ID.
func (w *Watcher) Monitor(id string) (Monitor, bool) {
	i, ok := w.index[id]
	if !ok {
		return Monitor{}, false
	}
	return w.monitors[i], true
}

// NotifyMode returns the configured notification mode.
func (w *Watcher) NotifyMode() NotifyMode {
	return w.notifyMode
}

// RunAll runs every monitor and aggregates the results.
//
// Results are in monitor order. A failing monitor never stops the others.
// If ctx is cancelled, monitors not yet started are skipped, the results
// produced so far are returned and the batch is marked cancelled.
func (w *Watcher) RunAll(ctx context.Context) BatchResult {
	runID := uuid.NewString()
	log := w.logger.With("run_id", runID)
	start := time.Now()

	log.Info("batch run starting",
		"monitor_count", len(w.monitors),
		"notify_mode", w.notifyMode,
		"max_concurrency", w.maxConcurrency,
	)

	var (
		results   []MonitorRunResult
		cancelled bool
	)
	if w.maxConcurrency <= 1 {
		results, cancelled = w.runSequential(ctx)
	} else {
		results, cancelled = w.runParallel(ctx)
	}

	batch := BatchResult{
		RunID:         runID,
		OverallStatus: overallStatus(results, cancelled),
		Results:       results,
		Cancelled:     cancelled,
	}

	log.Info("batch run finished",
		"status", batch.OverallStatus,
		"completed", len(results),
		"cancelled", cancelled,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return batch
}

func (w *Watcher) runSequential(ctx context.Context) ([]MonitorRunResult, bool) {
	results := make([]MonitorRunResult, 0, len(w.monitors))
	cancelled := false
	for _, m := range w.monitors {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		r, stopped := w.run(ctx, m)
		results = append(results, r)
		if stopped {
			cancelled = true
		}
	}
	return results, cancelled
}

// runParallel runs up to maxConcurrency monitors at a time and returns
// results in monitor order.
func (w *Watcher) runParallel(ctx context.Context) ([]MonitorRunResult, bool) {
	type slot struct {
		result  MonitorRunResult
		ran     bool
		stopped bool
	}
	slots := make([]slot, len(w.monitors))
	sem := make(chan struct{}, w.maxConcurrency)

	var wg sync.WaitGroup
dispatchLoop:
	for i, m := range w.monitors {
		select {
		case <-ctx.Done():
			break dispatchLoop
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			break
		}

		wg.Add(1)
		go func(i int, m Monitor) {
			defer wg.Done()
			defer func() { <-sem }()
			r, stopped := w.run(ctx, m)
			slots[i] = slot{result: r, ran: true, stopped: stopped}
		}(i, m)
	}
	wg.Wait()

	results := make([]MonitorRunResult, 0, len(slots))
	cancelled := false
	for _, s := range slots {
		if !s.ran {
			cancelled = true
			continue
		}
		if s.stopped {
			cancelled = true
		}
		results = append(results, s.result)
	}
	return results, cancelled
}

// RunMonitor runs a single monitor by ID.
//
// The only error is one wrapping [ErrMonitorNotFound]; run failures are
// reported in the result.
func (w *Watcher) RunMonitor(ctx context.Context, id string) (MonitorRunResult, error) {
	m, ok := w.Monitor(id)
	if !ok {
		return MonitorRunResult{}, fmt.Errorf("%w: %q", ErrMonitorNotFound, id)
	}
	r, _ := w.run(ctx, m)
	return r, nil
}

// run executes one monitor and fires the result callbacks. stopped reports
// whether the run was cut short by ctx.
func (w *Watcher) run(ctx context.Context, m Monitor) (MonitorRunResult, bool) {
	r, stopped := w.runMonitor(ctx, m)
	for _, cb := range w.resultCallbacks {
		invokeCallbackSafe(cb, r, w.logger)
	}
	return r, stopped
}

// Close releases idle HTTP connections. The Watcher remains usable.
func (w *Watcher) Close() {
	w.client.Close()
}

// invokeCallbackSafe calls a result callback with panic recovery.
func invokeCallbackSafe(cb func(MonitorRunResult), result MonitorRunResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("result callback panicked",
				"panic", r,
				"monitor_id", result.MonitorID,
			)
		}
	}()
	cb(result)
}
