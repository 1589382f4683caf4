// Package config provides YAML configuration parsing for listingwatch.
//
// This package lets the listingwatch binary run from a configuration file,
// as an alternative to building a Watcher with the SDK.
//
// Example configuration:
//
//	globals:
//	  request_delay: 1500ms
//	  notify_mode: preview
//	  max_seen_listings: 100
//	  email_sender: ${EMAIL_SENDER:-alerts@example.com}
//	  resend_api_key: ${RESEND_API_KEY:-}
//	  storage:
//	    backend: file
//	    dir: ./data
//
//	monitors:
//	  - id: riga-centre-sell
//	    name: Centrs
//	    type: flat
//	    url: https://www.ss.com/lv/real-estate/flats/riga/centre/sell/
//	    district: Centrs
//	    max_pages: 5
//	    recipients: [me@example.com]
//	    filters:
//	      min_rooms: 3
//	      max_total_price: 250000
//
//	grids:
//	  - id: riga-houses
//	    type: house
//	    url_template: "https://www.ss.com/lv/real-estate/homes-summer-residences/riga/{{.district}}/sell/"
//	    dimensions:
//	      district: [agenskalns, mezaparks]
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

// defaults applied by Parse
const (
	defaultRequestDelay    = 1500 * time.Millisecond
	defaultNotifyMode      = "preview"
	defaultMaxSeen         = 100
	defaultBaseURL         = "https://www.ss.com"
	defaultPageSuffix      = "page{page}.html"
	defaultFetchTimeout    = 30 * time.Second
	defaultStoreTimeout    = 10 * time.Second
	defaultDispatchTimeout = 15 * time.Second
	defaultMaxConcurrency  = 1
	defaultBackend         = "file"
	defaultDataDir         = "./data"
	defaultPort            = 8080
)

// Config is the root configuration structure.
//
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	Globals  GlobalsConfig   `yaml:"globals"`
	Server   ServerConfig    `yaml:"server"`
	Monitors []MonitorConfig `yaml:"monitors"`
	Grids    []GridConfig    `yaml:"grids"`

	// Warnings lists non-fatal problems found during validation, such as a
	// monitor without recipients.
	Warnings []string `yaml:"-"`
}

// GlobalsConfig holds settings shared by every monitor.
type GlobalsConfig struct {
	// RequestDelay is the pause between page requests. Defaults to 1500ms;
	// an explicit 0s disables it.
	RequestDelay *Duration `yaml:"request_delay"`

	// NotifyMode is "preview" (default) or "send".
	NotifyMode string `yaml:"notify_mode"`

	// MaxSeenListings bounds each monitor's seen set. Defaults to 100.
	MaxSeenListings int `yaml:"max_seen_listings"`

	// BaseURL is prefixed to relative listing links.
	BaseURL string `yaml:"base_url"`

	// PageSuffix addresses page n>1; "{page}" is replaced by n.
	PageSuffix string `yaml:"page_suffix"`

	UserAgent string `yaml:"user_agent"`

	FetchTimeout    Duration `yaml:"fetch_timeout"`
	StoreTimeout    Duration `yaml:"store_timeout"`
	DispatchTimeout Duration `yaml:"dispatch_timeout"`

	// MaxConcurrency is the number of monitors run at once. Defaults to 1.
	MaxConcurrency int `yaml:"max_concurrency"`

	// EmailSender is the From address of notifications.
	EmailSender string `yaml:"email_sender"`

	// ResendAPIKey enables e-mail dispatch through Resend.
	ResendAPIKey string `yaml:"resend_api_key"`

	// CronSecret, when set, must be presented as a bearer token to trigger
	// a batch run over HTTP.
	CronSecret string `yaml:"cron_secret"`

	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig configures listingwatch serve.
type ServerConfig struct {
	// Port is the HTTP port. Defaults to 8080.
	Port int `yaml:"port"`

	// Schedule is an optional cron expression (e.g. "0 8 * * *") for
	// periodic batch runs.
	Schedule string `yaml:"schedule"`

	// Title is shown on the results page.
	Title string `yaml:"title"`
}

// StorageConfig selects the seen-set backend.
type StorageConfig struct {
	// Backend is one of memory, file (default), s3 or redis.
	Backend string `yaml:"backend"`

	// Dir is the directory of the file backend. Defaults to ./data.
	Dir string `yaml:"dir"`

	S3    S3Config    `yaml:"s3"`
	Redis RedisConfig `yaml:"redis"`
}

// S3Config configures the s3 backend.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// MonitorConfig defines one monitored listing source.
type MonitorConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Type is "flat" or "house".
	Type string `yaml:"type"`

	// URL is the first page. Supports ${VAR} substitution.
	URL string `yaml:"url"`

	// District is assigned to every listing parsed from this source.
	District string `yaml:"district"`

	// MaxPages defaults to 1.
	MaxPages int `yaml:"max_pages"`

	// Recipients may list addresses or comma-separated strings, each with
	// ${VAR} substitution.
	Recipients []string `yaml:"recipients"`

	Filters FiltersConfig `yaml:"filters"`
	Layout  LayoutConfig  `yaml:"layout"`
}

// GridConfig expands into one monitor per dimension combination.
type GridConfig struct {
	ID          string              `yaml:"id"`
	Name        string              `yaml:"name"`
	Type        string              `yaml:"type"`
	URLTemplate string              `yaml:"url_template"`
	Dimensions  map[string][]string `yaml:"dimensions"`
	MaxPages    int                 `yaml:"max_pages"`
	Recipients  []string            `yaml:"recipients"`
	Filters     FiltersConfig       `yaml:"filters"`
	Layout      LayoutConfig        `yaml:"layout"`
}

// FiltersConfig holds the listing criteria. Omitted bounds impose no
// constraint; 0 is a real bound.
type FiltersConfig struct {
	MinRooms         *float64 `yaml:"min_rooms"`
	MaxRooms         *float64 `yaml:"max_rooms"`
	MinSqMeters      *float64 `yaml:"min_sq_meters"`
	MaxSqMeters      *float64 `yaml:"max_sq_meters"`
	MinFloor         *float64 `yaml:"min_floor"`
	MaxFloor         *float64 `yaml:"max_floor"`
	MinM2Price       *float64 `yaml:"min_m2_price"`
	MaxM2Price       *float64 `yaml:"max_m2_price"`
	MinTotalPrice    *float64 `yaml:"min_total_price"`
	MaxTotalPrice    *float64 `yaml:"max_total_price"`
	MinLandArea      *float64 `yaml:"min_land_area"`
	MaxLandArea      *float64 `yaml:"max_land_area"`
	AllowedDistricts []string `yaml:"allowed_districts"`
}

// LayoutConfig overrides the table layout derived from the listing type.
// Column indices are zero-based; -1 removes a column.
type LayoutConfig struct {
	RowSelector string         `yaml:"row_selector"`
	Columns     map[string]int `yaml:"columns"`
}

// layoutColumns lists the keys accepted in LayoutConfig.Columns.
var layoutColumns = map[string]bool{
	"link": true, "description": true, "address": true, "rooms": true,
	"area": true, "floor": true, "series": true, "m2_price": true,
	"total_price": true, "land_area": true,
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
// Group 1: name, group 2: ":-default" when present, group 3: default value.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandAll expands every field in place, stopping at the first error.
func expandAll(fields map[string]*string) error {
	for name, p := range fields {
		expanded, err := expandEnvVars(*p)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*p = expanded
	}
	return nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	g := &c.Globals
	if g.RequestDelay == nil {
		d := Duration(defaultRequestDelay)
		g.RequestDelay = &d
	}
	if g.NotifyMode == "" {
		g.NotifyMode = defaultNotifyMode
	}
	if g.MaxSeenListings == 0 {
		g.MaxSeenListings = defaultMaxSeen
	}
	if g.BaseURL == "" {
		g.BaseURL = defaultBaseURL
	}
	if g.PageSuffix == "" {
		g.PageSuffix = defaultPageSuffix
	}
	if g.FetchTimeout == 0 {
		g.FetchTimeout = Duration(defaultFetchTimeout)
	}
	if g.StoreTimeout == 0 {
		g.StoreTimeout = Duration(defaultStoreTimeout)
	}
	if g.DispatchTimeout == 0 {
		g.DispatchTimeout = Duration(defaultDispatchTimeout)
	}
	if g.MaxConcurrency == 0 {
		g.MaxConcurrency = defaultMaxConcurrency
	}
	if g.Storage.Backend == "" {
		g.Storage.Backend = defaultBackend
	}
	if g.Storage.Dir == "" {
		g.Storage.Dir = defaultDataDir
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	for i := range c.Monitors {
		if c.Monitors[i].MaxPages == 0 {
			c.Monitors[i].MaxPages = 1
		}
	}
	for i := range c.Grids {
		if c.Grids[i].MaxPages == 0 {
			c.Grids[i].MaxPages = 1
		}
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if err := c.validateGlobals(); err != nil {
		return err
	}

	ids := make(map[string]string)
	claim := func(id, where string) error {
		if prev, dup := ids[id]; dup {
			return fmt.Errorf("%s: id %q already used by %s", where, id, prev)
		}
		ids[id] = where
		return nil
	}

	for i := range c.Monitors {
		m := &c.Monitors[i]

		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("monitors[%d]: id is required", i)
		}
		where := fmt.Sprintf("monitors[%d] (%s)", i, m.ID)
		if err := claim(m.ID, where); err != nil {
			return err
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		if err := validateType(m.Type, where); err != nil {
			return err
		}

		if m.URL == "" {
			return fmt.Errorf("%s: url is required", where)
		}
		expanded, err := expandEnvVars(m.URL)
		if err != nil {
			return fmt.Errorf("%s: url: %w", where, err)
		}
		m.URL = expanded
		if err := validateHTTPURL(m.URL, where); err != nil {
			return err
		}

		if m.MaxPages < 1 {
			return fmt.Errorf("%s: max_pages must be at least 1, got %d", where, m.MaxPages)
		}

		recipients, err := expandRecipients(m.Recipients)
		if err != nil {
			return fmt.Errorf("%s: recipients: %w", where, err)
		}
		m.Recipients = recipients
		if len(m.Recipients) == 0 {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s: no recipients configured", where))
		}

		if err := m.Filters.validate(where); err != nil {
			return err
		}
		if err := m.Layout.validate(where); err != nil {
			return err
		}
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		if strings.TrimSpace(g.ID) == "" {
			return fmt.Errorf("grids[%d]: id is required", i)
		}
		where := fmt.Sprintf("grids[%d] (%s)", i, g.ID)
		if err := claim(g.ID, where); err != nil {
			return err
		}
		if g.Name == "" {
			g.Name = g.ID
		}
		if err := validateType(g.Type, where); err != nil {
			return err
		}

		if g.URLTemplate == "" {
			return fmt.Errorf("%s: url_template is required", where)
		}
		expanded, err := expandEnvVars(g.URLTemplate)
		if err != nil {
			return fmt.Errorf("%s: url_template: %w", where, err)
		}
		g.URLTemplate = expanded

		if _, err := template.New("").Parse(g.URLTemplate); err != nil {
			return fmt.Errorf("%s: invalid url_template: %w", where, err)
		}

		if len(g.Dimensions) == 0 {
			return fmt.Errorf("%s: at least one dimension is required", where)
		}
		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("%s: dimension %q has no values", where, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("%s: dimension %q has duplicate value %q", where, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}

		if g.MaxPages < 1 {
			return fmt.Errorf("%s: max_pages must be at least 1, got %d", where, g.MaxPages)
		}

		recipients, err := expandRecipients(g.Recipients)
		if err != nil {
			return fmt.Errorf("%s: recipients: %w", where, err)
		}
		g.Recipients = recipients
		if len(g.Recipients) == 0 {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s: no recipients configured", where))
		}

		if err := g.Filters.validate(where); err != nil {
			return err
		}
		if err := g.Layout.validate(where); err != nil {
			return err
		}
	}

	if len(c.Monitors) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one monitor or grid must be defined")
	}

	return nil
}

func (c *Config) validateGlobals() error {
	g := &c.Globals

	if err := expandAll(map[string]*string{
		"globals.email_sender":           &g.EmailSender,
		"globals.resend_api_key":         &g.ResendAPIKey,
		"globals.cron_secret":            &g.CronSecret,
		"globals.base_url":               &g.BaseURL,
		"globals.user_agent":             &g.UserAgent,
		"globals.storage.dir":            &g.Storage.Dir,
		"globals.storage.s3.endpoint":    &g.Storage.S3.Endpoint,
		"globals.storage.s3.bucket":      &g.Storage.S3.Bucket,
		"globals.storage.s3.access_key":  &g.Storage.S3.AccessKey,
		"globals.storage.s3.secret_key":  &g.Storage.S3.SecretKey,
		"globals.storage.s3.region":      &g.Storage.S3.Region,
		"globals.storage.redis.address":  &g.Storage.Redis.Address,
		"globals.storage.redis.password": &g.Storage.Redis.Password,
	}); err != nil {
		return err
	}

	if g.RequestDelay.Duration() < 0 {
		return fmt.Errorf("globals.request_delay cannot be negative, got %s", g.RequestDelay.Duration())
	}
	switch g.NotifyMode {
	case "preview", "send":
	default:
		return fmt.Errorf("globals.notify_mode must be preview or send, got %q", g.NotifyMode)
	}
	if g.MaxSeenListings < 1 {
		return fmt.Errorf("globals.max_seen_listings must be at least 1, got %d", g.MaxSeenListings)
	}
	if err := validateHTTPURL(g.BaseURL, "globals.base_url"); err != nil {
		return err
	}
	if !strings.Contains(g.PageSuffix, "{page}") {
		return fmt.Errorf(`globals.page_suffix must contain "{page}", got %q`, g.PageSuffix)
	}
	for name, d := range map[string]Duration{
		"fetch_timeout":    g.FetchTimeout,
		"store_timeout":    g.StoreTimeout,
		"dispatch_timeout": g.DispatchTimeout,
	} {
		if d.Duration() < 0 {
			return fmt.Errorf("globals.%s cannot be negative, got %s", name, d.Duration())
		}
	}
	if g.MaxConcurrency < 1 {
		return fmt.Errorf("globals.max_concurrency must be at least 1, got %d", g.MaxConcurrency)
	}
	if g.NotifyMode == "send" && g.ResendAPIKey == "" {
		c.Warnings = append(c.Warnings, "globals: notify_mode is send but resend_api_key is empty; nothing will be dispatched")
	}

	s := g.Storage
	switch s.Backend {
	case "memory", "file":
	case "s3":
		if s.S3.Endpoint == "" || s.S3.Bucket == "" {
			return errors.New("globals.storage.s3: endpoint and bucket are required")
		}
	case "redis":
		if s.Redis.Address == "" {
			return errors.New("globals.storage.redis: address is required")
		}
	default:
		return fmt.Errorf("globals.storage.backend must be memory, file, s3 or redis, got %q", s.Backend)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

func validateType(t, where string) error {
	switch t {
	case "flat", "house":
		return nil
	case "":
		return fmt.Errorf("%s: type is required (flat or house)", where)
	default:
		return fmt.Errorf("%s: type must be flat or house, got %q", where, t)
	}
}

func validateHTTPURL(raw, where string) error {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", where, err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("%s: url must have a scheme (http:// or https://)", where)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s: url scheme must be http or https, got %q", where, parsedURL.Scheme)
	}
	return nil
}

// expandRecipients expands env vars and splits comma-separated entries.
func expandRecipients(in []string) ([]string, error) {
	var out []string
	for _, r := range in {
		expanded, err := expandEnvVars(r)
		if err != nil {
			return nil, err
		}
		for _, addr := range strings.Split(expanded, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out, nil
}

func (f FiltersConfig) validate(where string) error {
	pairs := []struct {
		name     string
		min, max *float64
	}{
		{"rooms", f.MinRooms, f.MaxRooms},
		{"sq_meters", f.MinSqMeters, f.MaxSqMeters},
		{"floor", f.MinFloor, f.MaxFloor},
		{"m2_price", f.MinM2Price, f.MaxM2Price},
		{"total_price", f.MinTotalPrice, f.MaxTotalPrice},
		{"land_area", f.MinLandArea, f.MaxLandArea},
	}
	for _, p := range pairs {
		if p.min != nil && p.max != nil && *p.min > *p.max {
			return fmt.Errorf("%s: filters: min_%s (%v) is greater than max_%s (%v)",
				where, p.name, *p.min, p.name, *p.max)
		}
	}
	return nil
}

func (l LayoutConfig) validate(where string) error {
	for name, idx := range l.Columns {
		if !layoutColumns[name] {
			return fmt.Errorf("%s: layout: unknown column %q", where, name)
		}
		if idx < -1 {
			return fmt.Errorf("%s: layout: column %q index must be -1 or greater, got %d", where, name, idx)
		}
	}
	return nil
}
