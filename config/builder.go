package config

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jpalmerr/listingwatch"
	"github.com/jpalmerr/listingwatch/dispatch"
	"github.com/jpalmerr/listingwatch/kvstore"
)

// BuildMonitors converts the configuration into listingwatch monitors.
//
// Standalone monitors come first, followed by the expansion of each grid.
func BuildMonitors(cfg *Config) ([]listingwatch.Monitor, error) {
	var monitors []listingwatch.Monitor

	for i, mc := range cfg.Monitors {
		opts, err := monitorOptions(mc.Type, mc.MaxPages, mc.Recipients, mc.Filters, mc.Layout)
		if err != nil {
			return nil, fmt.Errorf("monitors[%d] (%s): %w", i, mc.ID, err)
		}
		if mc.District != "" {
			opts = append(opts, listingwatch.WithDistrict(mc.District))
		}

		m, err := listingwatch.NewMonitor(mc.ID, mc.Name, listingwatch.ListingType(mc.Type), mc.URL, opts...)
		if err != nil {
			return nil, fmt.Errorf("monitors[%d] (%s): %w", i, mc.ID, err)
		}
		monitors = append(monitors, m)
	}

	for i, gc := range cfg.Grids {
		opts, err := monitorOptions(gc.Type, gc.MaxPages, gc.Recipients, gc.Filters, gc.Layout)
		if err != nil {
			return nil, fmt.Errorf("grids[%d] (%s): %w", i, gc.ID, err)
		}

		grid, err := listingwatch.NewMonitorGrid(gc.ID, gc.Name, listingwatch.ListingType(gc.Type),
			listingwatch.WithURLTemplate(gc.URLTemplate),
			listingwatch.WithDimensions(gc.Dimensions),
			listingwatch.WithGridMonitorOptions(opts...),
		)
		if err != nil {
			return nil, fmt.Errorf("grids[%d] (%s): %w", i, gc.ID, err)
		}
		monitors = append(monitors, grid...)
	}

	return monitors, nil
}

func monitorOptions(listingType string, maxPages int, recipients []string, f FiltersConfig, l LayoutConfig) ([]listingwatch.MonitorOption, error) {
	opts := []listingwatch.MonitorOption{
		listingwatch.WithMaxPages(maxPages),
		listingwatch.WithCriteria(f.criteria()),
	}
	if len(recipients) > 0 {
		opts = append(opts, listingwatch.WithRecipients(recipients...))
	}

	if !l.isZero() {
		layout, err := l.build(listingwatch.ListingType(listingType))
		if err != nil {
			return nil, err
		}
		opts = append(opts, listingwatch.WithLayout(layout))
	}

	return opts, nil
}

func (f FiltersConfig) criteria() listingwatch.Criteria {
	return listingwatch.Criteria{
		Rooms:      listingwatch.Range{Min: f.MinRooms, Max: f.MaxRooms},
		Area:       listingwatch.Range{Min: f.MinSqMeters, Max: f.MaxSqMeters},
		Floor:      listingwatch.Range{Min: f.MinFloor, Max: f.MaxFloor},
		M2Price:    listingwatch.Range{Min: f.MinM2Price, Max: f.MaxM2Price},
		TotalPrice: listingwatch.Range{Min: f.MinTotalPrice, Max: f.MaxTotalPrice},
		LandArea:   listingwatch.Range{Min: f.MinLandArea, Max: f.MaxLandArea},
		Districts:  f.AllowedDistricts,
	}
}

func (l LayoutConfig) isZero() bool {
	return l.RowSelector == "" && len(l.Columns) == 0
}

// build applies the overrides on top of the type's default layout.
func (l LayoutConfig) build(t listingwatch.ListingType) (listingwatch.Layout, error) {
	layout, err := listingwatch.DefaultLayout(t)
	if err != nil {
		return listingwatch.Layout{}, err
	}
	if l.RowSelector != "" {
		layout.RowSelector = l.RowSelector
	}

	fields := map[string]*int{
		"link":        &layout.Link,
		"description": &layout.Description,
		"address":     &layout.Address,
		"rooms":       &layout.Rooms,
		"area":        &layout.Area,
		"floor":       &layout.Floor,
		"series":      &layout.Series,
		"m2_price":    &layout.M2Price,
		"total_price": &layout.TotalPrice,
		"land_area":   &layout.LandArea,
	}
	for name, idx := range l.Columns {
		p, ok := fields[name]
		if !ok {
			return listingwatch.Layout{}, fmt.Errorf("layout: unknown column %q", name)
		}
		*p = idx
	}
	return layout, nil
}

// Closer is implemented by stores holding network connections.
type Closer interface {
	Close() error
}

// BuildStore opens the configured seen-set backend. The returned store may
// implement [Closer]; callers should close it on shutdown.
func BuildStore(cfg StorageConfig) (kvstore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return kvstore.NewMemory(), nil
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			dir = defaultDataDir
		}
		return kvstore.NewFile(dir)
	case "s3":
		return kvstore.NewS3(kvstore.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
			Prefix:    cfg.S3.Prefix,
		})
	case "redis":
		return kvstore.NewRedis(kvstore.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// BuildDispatcher returns a Resend dispatcher, or nil when no API key is
// configured.
func BuildDispatcher(g GlobalsConfig) (dispatch.Dispatcher, error) {
	if g.ResendAPIKey == "" {
		return nil, nil
	}
	return dispatch.NewResend(g.ResendAPIKey)
}

// BuildOptions converts the whole configuration into watcher options.
//
// The store is built by the caller with [BuildStore] so it can be closed on
// shutdown.
func BuildOptions(cfg *Config, store kvstore.Store, logger *slog.Logger) ([]listingwatch.Option, error) {
	monitors, err := BuildMonitors(cfg)
	if err != nil {
		return nil, err
	}

	dispatcher, err := BuildDispatcher(cfg.Globals)
	if err != nil {
		return nil, err
	}

	g := cfg.Globals
	opts := []listingwatch.Option{
		listingwatch.WithMonitors(monitors...),
		listingwatch.WithNotifyMode(listingwatch.NotifyMode(g.NotifyMode)),
		listingwatch.WithSender(g.EmailSender),
		listingwatch.WithBaseURL(g.BaseURL),
		listingwatch.WithRequestDelay(g.RequestDelay.Duration()),
		listingwatch.WithPageSuffix(g.PageSuffix),
		listingwatch.WithMaxSeen(g.MaxSeenListings),
		listingwatch.WithFetchTimeout(g.FetchTimeout.Duration()),
		listingwatch.WithStoreTimeout(g.StoreTimeout.Duration()),
		listingwatch.WithDispatchTimeout(g.DispatchTimeout.Duration()),
		listingwatch.WithMaxConcurrency(g.MaxConcurrency),
	}
	if g.UserAgent != "" {
		opts = append(opts, listingwatch.WithUserAgent(g.UserAgent))
	}
	if store != nil {
		opts = append(opts, listingwatch.WithStore(store))
	}
	if dispatcher != nil {
		opts = append(opts, listingwatch.WithDispatcher(dispatcher))
	}
	if logger != nil {
		opts = append(opts, listingwatch.WithLogger(logger))
	}

	return opts, nil
}

// MonitorIDs returns the ids of every monitor the configuration expands to,
// sorted. A grid expansion that collides with another id is an error.
func MonitorIDs(cfg *Config) ([]string, error) {
	monitors, err := BuildMonitors(cfg)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(monitors))
	for i, m := range monitors {
		ids[i] = m.ID()
	}
	sort.Strings(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return nil, fmt.Errorf("duplicate monitor id %q", ids[i])
		}
	}
	return ids, nil
}
