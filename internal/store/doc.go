// Package store keeps the latest run result of every monitor and fans
// updates out to subscribers.
//
// The HTTP server reads it for GET /api/results and streams updates from it
// over Server-Sent Events. Seen sets are not kept here; they live in a
// kvstore backend owned by the Watcher.
//
// Subscribers receive updates via buffered channels with non-blocking
// sends: a slow subscriber misses updates rather than stalling a run.
package store
