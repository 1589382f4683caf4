package listingwatch

import "time"

// RunStatus is the outcome of a monitor run or a batch of runs.
type RunStatus string

const (
	// StatusSuccess means the run completed. It says nothing about whether
	// new listings were found.
	StatusSuccess RunStatus = "success"

	// StatusError means the monitor run failed at some step.
	StatusError RunStatus = "error"

	// StatusPartialError is a batch status: at least one monitor failed or
	// the batch was cancelled before every monitor ran.
	StatusPartialError RunStatus = "partial_error"
)

// String implements fmt.Stringer.
func (s RunStatus) String() string {
	return string(s)
}

// MonitorRunResult summarises one run of one monitor.
//
// The JSON field names are part of the HTTP API served by listingwatch serve.
type MonitorRunResult struct {
	MonitorID   string    `json:"monitorId"`
	MonitorName string    `json:"monitorName"`
	Status      RunStatus `json:"status"`
	Message     string    `json:"message"`

	// PagesScraped counts pages fetched successfully.
	PagesScraped int `json:"pagesScraped"`

	// ListingsFound counts rows parsed before criteria were applied.
	ListingsFound int `json:"listingsFound"`

	ListingsMatchingCriteria int `json:"listingsMatchingCriteria"`
	NewListingCount          int `json:"newListingCount"`

	// EmailPreviewHTML holds the rendered notification in preview mode.
	// It is empty in send mode and when nothing new was found.
	EmailPreviewHTML string `json:"emailPreviewHtml,omitempty"`

	// Dispatched reports whether a notification was handed to the dispatcher.
	Dispatched bool `json:"dispatched"`

	// ErrorDetails carries the wrapped error chain, or the panic and its
	// correlation ID, when Status is StatusError.
	ErrorDetails string `json:"errorDetails,omitempty"`

	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}

// OK reports whether the run succeeded.
func (r MonitorRunResult) OK() bool {
	return r.Status == StatusSuccess
}

// BatchResult aggregates the results of [Watcher.RunAll].
type BatchResult struct {
	RunID         string             `json:"runId"`
	OverallStatus RunStatus          `json:"overallStatus"`
	Results       []MonitorRunResult `json:"results"`

	// Cancelled is set when the context ended before every monitor ran.
	Cancelled bool `json:"cancelled"`
}

// overallStatus is success only if every result succeeded and the batch ran
// to completion.
func overallStatus(results []MonitorRunResult, cancelled bool) RunStatus {
	if cancelled {
		return StatusPartialError
	}
	for _, r := range results {
		if r.Status != StatusSuccess {
			return StatusPartialError
		}
	}
	return StatusSuccess
}
