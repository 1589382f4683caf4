package store

import (
	"time"

	"github.com/jpalmerr/listingwatch"
)

// Batch summarises the most recent batch run.
type Batch struct {
	RunID         string                 `json:"runId"`
	OverallStatus listingwatch.RunStatus `json:"overallStatus"`
	Cancelled     bool                   `json:"cancelled"`
	FinishedAt    time.Time              `json:"finishedAt"`
}

// Store defines storage and subscription for run results.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update stores a result keyed by MonitorID and notifies subscribers.
	Update(result listingwatch.MonitorRunResult)

	// RecordBatch remembers the summary of a finished batch. Per-monitor
	// results are expected to arrive through Update.
	RecordBatch(batch listingwatch.BatchResult)

	// LastBatch returns the most recent batch, if any.
	LastBatch() (Batch, bool)

	// GetAll returns a snapshot of the stored results ordered by monitor id.
	GetAll() []listingwatch.MonitorRunResult

	// Subscribe returns a buffered channel of updates. Caller must call
	// Unsubscribe when done.
	Subscribe() <-chan listingwatch.MonitorRunResult

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan listingwatch.MonitorRunResult)
}
