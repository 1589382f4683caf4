package listingwatch

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/template"
)

// districtDimension is the grid dimension that also sets a monitor's
// district scope.
const districtDimension = "district"

// NewMonitorGrid creates one monitor per combination of dimension values.
//
// The URL template uses text/template syntax with dimension keys as fields.
// Values are path-escaped before interpolation and missing keys are an
// error. Generated IDs are "baseID-v1-v2" and names "baseName (v1/v2)", with
// values ordered by sorted dimension key. A "district" dimension also becomes
// the monitor's district scope.
//
// Example:
//
//	monitors, err := listingwatch.NewMonitorGrid("riga-houses", "Houses", listingwatch.House,
//	    listingwatch.WithURLTemplate("https://www.ss.com/lv/real-estate/homes-summer-residences/riga/{{.district}}/sell/"),
//	    listingwatch.WithDimensions(map[string][]string{
//	        "district": {"agenskalns", "mezaparks"},
//	    }),
//	)
func NewMonitorGrid(baseID, baseName string, listingType ListingType, opts ...GridOption) ([]Monitor, error) {
	if strings.TrimSpace(baseID) == "" {
		return nil, errors.New("grid id cannot be empty")
	}
	if strings.TrimSpace(baseName) == "" {
		baseName = baseID
	}

	cfg := &gridConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.urlTemplate == "" {
		return nil, errors.New("URL template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	tmpl, err := template.New("url").Option("missingkey=error").Parse(cfg.urlTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}

	combinations := cartesianProduct(cfg.dimensions)
	monitors := make([]Monitor, 0, len(combinations))
	for _, combo := range combinations {
		urlStr, err := executeTemplate(tmpl, pathEscapeMap(combo))
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}

		values := sortedValues(combo)
		id := baseID + "-" + slugify(strings.Join(values, "-"))
		name := fmt.Sprintf("%s (%s)", baseName, strings.Join(values, "/"))

		mOpts := append([]MonitorOption(nil), cfg.monitorOpts...)
		if d, ok := combo[districtDimension]; ok {
			mOpts = append(mOpts, WithDistrict(d))
		}

		m, err := NewMonitor(id, name, listingType, urlStr, mOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create monitor %q: %w", id, err)
		}
		monitors = append(monitors, m)
	}

	return monitors, nil
}

// cartesianProduct generates every combination of dimension values.
// Keys are iterated in sorted order; values keep their slice order.
//
//	{"x": ["a","b"], "y": ["1","2"]} -> [{a 1} {a 2} {b 1} {b 2}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	var result []map[string]string
	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// advance like an odometer, rightmost key first
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

func pathEscapeMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = url.PathEscape(v)
	}
	return out
}

func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sortedValues returns the combo's values ordered by key.
func sortedValues(combo map[string]string) []string {
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = combo[k]
	}
	return values
}

// slugify lower-cases s and replaces anything but letters, digits and '-'
// with '-', so generated IDs are safe storage keys.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
