package listingwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/listingwatch/internal/filter"
	"github.com/jpalmerr/listingwatch/internal/listing"
	"github.com/jpalmerr/listingwatch/internal/notify"
	"github.com/jpalmerr/listingwatch/internal/parser"
)

const (
	msgSuccess   = "Monitor processed successfully."
	msgNoPages   = "Scraping completed, but no pages fetched."
	msgCancelled = "run cancelled"
)

// errRunCancelled marks a run cut short by its context.
var errRunCancelled = errors.New(msgCancelled)

// runMonitor drives one monitor through
// seen-loaded -> fetched -> filtered -> deduped -> notified -> persisted.
//
// It never returns an error or panics: every failure, including a panic in
// any step, becomes an error result. stopped reports whether ctx cut the run
// short.
func (w *Watcher) runMonitor(ctx context.Context, m Monitor) (result MonitorRunResult, stopped bool) {
	start := time.Now()
	log := w.logger.With("monitor_id", m.ID())

	result = MonitorRunResult{
		MonitorID:   m.ID(),
		MonitorName: m.Name(),
		Status:      StatusSuccess,
		StartedAt:   start.UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			log.Error("monitor run panicked",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			result.Status = StatusError
			result.Message = fmt.Sprintf("Error: internal error (correlation_id: %s)", correlationID)
			result.ErrorDetails = fmt.Sprintf("panic: %v (correlation_id: %s)", r, correlationID)
			result.EmailPreviewHTML = ""
		}
		result.DurationMs = time.Since(start).Milliseconds()

		log.Info("monitor run finished",
			"status", result.Status,
			"pages", result.PagesScraped,
			"matching", result.ListingsMatchingCriteria,
			"new", result.NewListingCount,
			"dispatched", result.Dispatched,
			"duration_ms", result.DurationMs,
		)
	}()

	log.Info("monitor run starting", "name", m.Name(), "max_pages", m.MaxPages())

	if err := w.execute(ctx, m, &result, log); err != nil {
		result.Status = StatusError
		result.Message = "Error: " + err.Error()
		result.ErrorDetails = fmt.Sprintf("%v", err)
		result.EmailPreviewHTML = ""
		stopped = errors.Is(err, errRunCancelled)
		log.Error("monitor run failed", "error", err)
		return result, stopped
	}
	return result, false
}

// execute runs the steps of a monitor run, filling in result as it goes.
func (w *Watcher) execute(ctx context.Context, m Monitor, result *MonitorRunResult, log *slog.Logger) error {
	if ctx.Err() != nil {
		return errRunCancelled
	}

	// 1. seen set; read failures degrade to an empty set
	seenSet := w.seen.Read(ctx, m.ID())
	log.Info("seen set loaded", "step", "seen-loaded", "seen", seenSet.Len())

	// 2. fetch
	pages := w.pager.Fetch(ctx, m.URL(), m.MaxPages())
	result.PagesScraped = len(pages)
	if ctx.Err() != nil {
		return errRunCancelled
	}
	if len(pages) == 0 {
		log.Warn("no pages fetched", "step", "fetched")
		result.Message = msgNoPages
		return nil
	}
	log.Info("pages fetched", "step", "fetched", "pages", len(pages))

	// 3. parse and filter
	opts := parser.Options{
		Layout:   m.Layout().toParser(),
		BaseURL:  w.baseURL,
		District: m.District(),
	}
	var all []listing.Listing
	for _, p := range pages {
		listings, skips, err := parser.Parse(p.Body, opts)
		if err != nil {
			log.Warn("page could not be parsed", "page", p.Number, "url", p.URL, "error", err)
			continue
		}
		for _, s := range skips {
			log.Debug("row skipped", "page", p.Number, "row", s.Row, "reason", s.Reason)
		}
		all = append(all, listings...)
	}
	result.ListingsFound = len(all)

	matching := filter.Apply(all, m.Criteria().toFilter())
	result.ListingsMatchingCriteria = len(matching)
	log.Info("listings filtered", "step", "filtered", "parsed", len(all), "matching", len(matching))

	// 4. dedup; a link repeated across pages is only new once
	var fresh []listing.Listing
	var freshLinks []string
	staged := make(map[string]struct{})
	for _, l := range matching {
		if l.Link == "" || seenSet.Contains(l.Link) {
			continue
		}
		if _, dup := staged[l.Link]; dup {
			continue
		}
		staged[l.Link] = struct{}{}
		fresh = append(fresh, l)
		freshLinks = append(freshLinks, l.Link)
	}
	result.NewListingCount = len(fresh)
	log.Info("new listings identified", "step", "deduped", "new", len(fresh))

	if len(fresh) == 0 {
		result.Message = msgSuccess
		return nil
	}

	if ctx.Err() != nil {
		return errRunCancelled
	}

	// 5. notify; dispatch failures are logged by the notifier and never fatal
	out, err := w.notifier.Notify(ctx, notify.Request{
		MonitorID:   m.ID(),
		MonitorName: m.Name(),
		Recipients:  m.Recipients(),
		Listings:    fresh,
	})
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	result.EmailPreviewHTML = out.Body
	result.Dispatched = out.Dispatched
	log.Info("notification handled", "step", "notified", "dispatched", out.Dispatched)

	// 6. persist, even if dispatch failed. A message may already be out, so
	// cancellation no longer applies; the store timeout still bounds the write.
	for _, link := range freshLinks {
		seenSet.Add(link)
	}
	if err := w.seen.Write(context.WithoutCancel(ctx), m.ID(), seenSet); err != nil {
		return fmt.Errorf("persist seen set: %w", err)
	}
	log.Info("seen set persisted", "step", "persisted", "seen", seenSet.Len())

	result.Message = msgSuccess
	return nil
}
