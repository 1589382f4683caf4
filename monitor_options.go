package listingwatch

import (
	"errors"
	"strings"
)

// monitorConfig holds mutable state during monitor construction.
type monitorConfig struct {
	maxPages   int
	recipients []string
	criteria   Criteria
	district   string
	layout     Layout
}

// MonitorOption configures a [Monitor] during construction.
type MonitorOption func(*monitorConfig) error

// WithMaxPages sets how many pages are fetched per run. Defaults to 1.
//
// Returns an error if n is less than 1.
func WithMaxPages(n int) MonitorOption {
	return func(cfg *monitorConfig) error {
		if n < 1 {
			return errors.New("max pages must be at least 1")
		}
		cfg.maxPages = n
		return nil
	}
}

// WithRecipients adds notification recipients. Blank addresses are dropped.
// A monitor without recipients still runs; in send mode its notification is
// simply not dispatched.
func WithRecipients(addrs ...string) MonitorOption {
	return func(cfg *monitorConfig) error {
		for _, a := range addrs {
			if a = strings.TrimSpace(a); a != "" {
				cfg.recipients = append(cfg.recipients, a)
			}
		}
		return nil
	}
}

// WithCriteria sets the listing criteria.
//
// Returns an error if any range has min greater than max.
func WithCriteria(c Criteria) MonitorOption {
	return func(cfg *monitorConfig) error {
		if err := c.Validate(); err != nil {
			return err
		}
		cfg.criteria = c.clone()
		return nil
	}
}

// WithDistrict sets the district label given to every listing parsed from
// this monitor's source. Sources are scoped to one district, so the label
// is taken from configuration rather than from the page.
func WithDistrict(d string) MonitorOption {
	return func(cfg *monitorConfig) error {
		cfg.district = strings.TrimSpace(d)
		return nil
	}
}

// WithLayout overrides the column layout derived from the listing type.
//
// Returns an error if the layout has no link or total price column.
func WithLayout(l Layout) MonitorOption {
	return func(cfg *monitorConfig) error {
		if err := l.validate(); err != nil {
			return err
		}
		cfg.layout = l
		return nil
	}
}
