// Package fetcher retrieves listing pages over HTTP.
//
// This package is internal to listingwatch. It wraps net/http with per-request
// timeouts, a response size cap and charset normalisation, and adds a
// [Pager] that walks a paginated listing source one page at a time.
//
// The main components are:
//
//   - [Client]: HTTP GET with timeout, size limit and UTF-8 decoding
//   - [Pager]: sequential multi-page fetch with an inter-page delay
//   - [Page]: one successfully fetched page
package fetcher
