// Package dashboard embeds the results page served by listingwatch serve.
//
// The page lists the latest run result of every monitor, streams updates
// over Server-Sent Events, lets the operator trigger a monitor and shows the
// rendered e-mail preview of preview-mode runs.
package dashboard

import "embed"

// Assets holds assets/index.html. The server replaces "{{.Title}}" in it
// with the configured, HTML-escaped title.
//
//go:embed assets/*
var Assets embed.FS
