package listingwatch

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jpalmerr/listingwatch/dispatch"
	"github.com/jpalmerr/listingwatch/kvstore"
)

// NotifyMode selects whether notifications are sent or only rendered.
type NotifyMode string

const (
	// NotifyPreview renders notifications into the run result and never
	// dispatches them.
	NotifyPreview NotifyMode = "preview"

	// NotifySend dispatches notifications and leaves the result body empty.
	NotifySend NotifyMode = "send"
)

// Valid reports whether m is a known mode.
func (m NotifyMode) Valid() bool {
	return m == NotifyPreview || m == NotifySend
}

// watcherConfig holds mutable state during Watcher construction.
type watcherConfig struct {
	monitors        []Monitor
	store           kvstore.Store
	dispatcher      dispatch.Dispatcher
	notifyMode      NotifyMode
	sender          string
	baseURL         string
	requestDelay    time.Duration
	pageSuffix      string
	userAgent       string
	maxSeen         int
	fetchTimeout    time.Duration
	storeTimeout    time.Duration
	dispatchTimeout time.Duration
	maxConcurrency  int
	logger          *slog.Logger
	resultCallbacks []func(MonitorRunResult)
}

// Option configures a [Watcher] during construction.
//
// Options return an error if validation fails; [New] stops at the first one.
type Option func(*watcherConfig) error

// WithMonitor adds a monitor. Monitors run in the order they are added.
func WithMonitor(m Monitor) Option {
	return func(cfg *watcherConfig) error {
		cfg.monitors = append(cfg.monitors, m)
		return nil
	}
}

// WithMonitors adds several monitors, e.g. the output of [NewMonitorGrid].
func WithMonitors(monitors ...Monitor) Option {
	return func(cfg *watcherConfig) error {
		cfg.monitors = append(cfg.monitors, monitors...)
		return nil
	}
}

// WithStore sets the backend holding seen sets. Defaults to an in-memory
// store, which forgets everything when the process exits.
func WithStore(s kvstore.Store) Option {
	return func(cfg *watcherConfig) error {
		if s == nil {
			return errors.New("store cannot be nil")
		}
		cfg.store = s
		return nil
	}
}

// WithDispatcher sets the transport used in [NotifySend] mode.
func WithDispatcher(d dispatch.Dispatcher) Option {
	return func(cfg *watcherConfig) error {
		cfg.dispatcher = d
		return nil
	}
}

// WithNotifyMode selects preview or send. Defaults to [NotifyPreview].
func WithNotifyMode(m NotifyMode) Option {
	return func(cfg *watcherConfig) error {
		if !m.Valid() {
			return fmt.Errorf("notify mode must be %q or %q, got %q", NotifyPreview, NotifySend, m)
		}
		cfg.notifyMode = m
		return nil
	}
}

// WithSender sets the From address of dispatched notifications.
func WithSender(addr string) Option {
	return func(cfg *watcherConfig) error {
		cfg.sender = strings.TrimSpace(addr)
		return nil
	}
}

// WithBaseURL sets the prefix joined to relative listing links.
// Defaults to https://www.ss.com.
func WithBaseURL(u string) Option {
	return func(cfg *watcherConfig) error {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return errors.New("base URL must start with http:// or https://")
		}
		cfg.baseURL = strings.TrimRight(u, "/")
		return nil
	}
}

// WithRequestDelay sets the pause between consecutive page requests of one
// monitor. Defaults to 1.5 seconds. Zero disables the pause.
func WithRequestDelay(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d < 0 {
			return errors.New("request delay cannot be negative")
		}
		cfg.requestDelay = d
		return nil
	}
}

// WithPageSuffix sets the suffix appended to a monitor URL to address page
// n>1. "{page}" is replaced by the page number. Defaults to "page{page}.html".
func WithPageSuffix(s string) Option {
	return func(cfg *watcherConfig) error {
		if !strings.Contains(s, "{page}") {
			return errors.New(`page suffix must contain "{page}"`)
		}
		cfg.pageSuffix = s
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent to listing sources.
func WithUserAgent(ua string) Option {
	return func(cfg *watcherConfig) error {
		cfg.userAgent = ua
		return nil
	}
}

// WithMaxSeen sets how many links are kept per monitor. Defaults to 100.
func WithMaxSeen(n int) Option {
	return func(cfg *watcherConfig) error {
		if n < 1 {
			return errors.New("max seen listings must be at least 1")
		}
		cfg.maxSeen = n
		return nil
	}
}

// WithFetchTimeout bounds a single page request. Defaults to 30 seconds.
func WithFetchTimeout(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("fetch timeout must be positive")
		}
		cfg.fetchTimeout = d
		return nil
	}
}

// WithStoreTimeout bounds a single seen-set read or write. Defaults to 10
// seconds.
func WithStoreTimeout(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("store timeout must be positive")
		}
		cfg.storeTimeout = d
		return nil
	}
}

// WithDispatchTimeout bounds a single notification dispatch. Defaults to 15
// seconds.
func WithDispatchTimeout(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("dispatch timeout must be positive")
		}
		cfg.dispatchTimeout = d
		return nil
	}
}

// WithMaxConcurrency sets how many monitors [Watcher.RunAll] runs at once.
//
// Defaults to 1, which runs monitors strictly one after another. Raising it
// changes the request pattern seen by listing sources. Results are returned
// in monitor order either way.
func WithMaxConcurrency(n int) Option {
	return func(cfg *watcherConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watcherConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithResultCallback registers a function called after every monitor run.
//
// Callbacks run synchronously, in registration order, on the goroutine that
// ran the monitor. With [WithMaxConcurrency] above 1 they may be called
// concurrently. Panics are recovered and logged. Nil callbacks are ignored.
func WithResultCallback(cb func(MonitorRunResult)) Option {
	return func(cfg *watcherConfig) error {
		if cb == nil {
			return nil
		}
		cfg.resultCallbacks = append(cfg.resultCallbacks, cb)
		return nil
	}
}
