package listingwatch

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const defaultMaxPages = 1

// Monitor is one watched listing source.
//
// Monitor is immutable after creation via [NewMonitor]. Getters return copies
// of slices and criteria so a Monitor can be shared between goroutines.
type Monitor struct {
	id         string
	name       string
	typ        ListingType
	url        string
	maxPages   int
	recipients []string
	criteria   Criteria
	district   string
	layout     Layout
}

// ID returns the stable identifier. It keys the monitor's seen set, so
// changing it makes every current listing look new.
func (m Monitor) ID() string {
	return m.id
}

// Name returns the display name.
func (m Monitor) Name() string {
	return m.name
}

// Type returns the listing type.
func (m Monitor) Type() ListingType {
	return m.typ
}

// URL returns the address of the first page.
func (m Monitor) URL() string {
	return m.url
}

// MaxPages returns the number of pages fetched per run.
func (m Monitor) MaxPages() int {
	return m.maxPages
}

// Recipients returns a copy of the notification recipients.
func (m Monitor) Recipients() []string {
	return copyStrings(m.recipients)
}

// Criteria returns a copy of the listing criteria.
func (m Monitor) Criteria() Criteria {
	return m.criteria.clone()
}

// District returns the district label assigned to every listing from this
// source.
func (m Monitor) District() string {
	return m.district
}

// Layout returns the table layout used to parse the source.
func (m Monitor) Layout() Layout {
	return m.layout
}

// NewMonitor creates a [Monitor].
//
// id must be non-empty and free of path separators. name defaults to id.
// rawURL must be an absolute http or https URL. The layout defaults to the
// one of listingType; see [WithLayout].
//
// Example:
//
//	m, err := listingwatch.NewMonitor("riga-centre", "Centrs", listingwatch.Flat,
//	    "https://www.ss.com/lv/real-estate/flats/riga/centre/sell/",
//	    listingwatch.WithMaxPages(5),
//	    listingwatch.WithCriteria(listingwatch.Criteria{Rooms: listingwatch.AtLeast(3)}),
//	)
func NewMonitor(id, name string, listingType ListingType, rawURL string, opts ...MonitorOption) (Monitor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Monitor{}, errors.New("monitor id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) {
		return Monitor{}, fmt.Errorf("monitor id %q must not contain path separators", id)
	}
	if strings.TrimSpace(name) == "" {
		name = id
	}

	layout, err := DefaultLayout(listingType)
	if err != nil {
		return Monitor{}, fmt.Errorf("monitor %s: %w", id, err)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Monitor{}, fmt.Errorf("monitor %s: invalid URL: %w", id, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Monitor{}, fmt.Errorf("monitor %s: URL must use http:// or https://", id)
	}
	if parsedURL.Host == "" {
		return Monitor{}, fmt.Errorf("monitor %s: URL must have a host", id)
	}

	cfg := &monitorConfig{
		maxPages: defaultMaxPages,
		layout:   layout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Monitor{}, fmt.Errorf("monitor %s: %w", id, err)
		}
	}

	return Monitor{
		id:         id,
		name:       name,
		typ:        listingType,
		url:        rawURL,
		maxPages:   cfg.maxPages,
		recipients: cfg.recipients,
		criteria:   cfg.criteria,
		district:   cfg.district,
		layout:     cfg.layout,
	}, nil
}
