package fetcher

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPageSuffix is appended to the base URL for pages after the first.
// "{page}" is replaced by the page number.
const DefaultPageSuffix = "page{page}.html"

// Page is one successfully fetched page of a listing source.
type Page struct {
	Number int
	URL    string
	Body   []byte
}

// PagerConfig controls how a [Pager] walks a listing source.
type PagerConfig struct {
	// Delay is the wait between the end of one request and the start of
	// the next.
	Delay time.Duration

	// Suffix builds the URL of page n>1; defaults to DefaultPageSuffix.
	Suffix string

	UserAgent string

	// Timeout applies to each page request. Zero means no per-request timeout.
	Timeout time.Duration
}

// Pager fetches up to N pages of a listing source sequentially.
type Pager struct {
	client  *Client
	cfg     PagerConfig
	logger  *slog.Logger
	headers map[string]string
}

// NewPager creates a [Pager] using client for requests.
func NewPager(client *Client, cfg PagerConfig, logger *slog.Logger) *Pager {
	if cfg.Suffix == "" {
		cfg.Suffix = DefaultPageSuffix
	}
	if logger == nil {
		logger = slog.Default()
	}
	headers := map[string]string{"Accept": "text/html,application/xhtml+xml"}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	return &Pager{client: client, cfg: cfg, logger: logger, headers: headers}
}

// PageURL returns the URL of page n of the source at base.
// Page 1 is base itself.
func PageURL(base, suffix string, n int) string {
	if n <= 1 {
		return base
	}
	return base + strings.ReplaceAll(suffix, "{page}", strconv.Itoa(n))
}

// Fetch retrieves pages 1..maxPages of baseURL in order.
//
// A page that fails is logged and left out of the result; it is not retried
// and does not stop later pages. After each request completes, successful or
// not, Fetch waits the configured delay before the next one, with no wait
// after the last page. If ctx is cancelled the pages fetched so far are
// returned.
func (p *Pager) Fetch(ctx context.Context, baseURL string, maxPages int) []Page {
	if maxPages < 1 {
		maxPages = 1
	}

	pages := make([]Page, 0, maxPages)
	for n := 1; n <= maxPages; n++ {
		if n > 1 {
			if err := p.pause(ctx); err != nil {
				p.logger.Info("page fetch stopped",
					"url", baseURL,
					"page", n,
					"error", err,
				)
				break
			}
		}

		url := PageURL(baseURL, p.cfg.Suffix, n)
		resp := p.client.Fetch(ctx, url, p.headers, p.cfg.Timeout)
		if resp.Error != nil {
			p.logger.Warn("page fetch failed",
				"url", url,
				"page", n,
				"status", resp.StatusCode,
				"error", resp.Error,
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		p.logger.Debug("page fetched",
			"url", url,
			"page", n,
			"bytes", len(resp.Body),
			"latency_ms", resp.Latency.Milliseconds(),
		)
		pages = append(pages, Page{Number: n, URL: url, Body: resp.Body})
	}

	return pages
}

// pause waits Delay from now. The limiter starts with its single token
// spent, so Wait blocks for one full interval.
func (p *Pager) pause(ctx context.Context) error {
	if p.cfg.Delay <= 0 {
		return ctx.Err()
	}
	limiter := rate.NewLimiter(rate.Every(p.cfg.Delay), 1)
	limiter.Allow()
	return limiter.Wait(ctx)
}
