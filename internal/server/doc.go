// Package server provides the HTTP surface of listingwatch serve.
//
//   - GET /api/run-monitor: runs every monitor; guarded by a bearer token
//     when a cron secret is configured
//   - POST /api/trigger/{id}: runs a single monitor
//   - GET /api/monitors: configured monitors
//   - GET /api/results: latest result per monitor
//   - GET /api/sse: Server-Sent Events stream of results
//   - GET /: embedded results page
//
// At most one run executes at a time; a trigger arriving during a run waits
// for it to finish. The server shuts down gracefully when its context is
// cancelled, with a 5-second timeout for in-flight requests.
package server
