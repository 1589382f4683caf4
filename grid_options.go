package listingwatch

import (
	"errors"
	"fmt"
)

// gridConfig holds configuration during monitor grid construction.
type gridConfig struct {
	urlTemplate string
	dimensions  map[string][]string
	monitorOpts []MonitorOption
}

// GridOption configures [NewMonitorGrid].
type GridOption func(*gridConfig) error

// WithURLTemplate sets the URL template, e.g.
// "https://www.ss.com/lv/real-estate/flats/riga/{{.district}}/sell/".
func WithURLTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("URL template required")
		}
		cfg.urlTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the values expanded into monitors.
//
// Returns an error if the map is empty, a dimension has no values or a value
// is empty.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

// WithGridMonitorOptions applies opts to every generated monitor, for
// example [WithMaxPages], [WithRecipients] or [WithCriteria].
// A district option here is overridden by a "district" dimension.
func WithGridMonitorOptions(opts ...MonitorOption) GridOption {
	return func(cfg *gridConfig) error {
		cfg.monitorOpts = append(cfg.monitorOpts, opts...)
		return nil
	}
}
