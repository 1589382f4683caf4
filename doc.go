// Package listingwatch watches real-estate listing pages and reports new
// listings that match a set of criteria.
//
// A [Monitor] names one paginated listing source, the layout of its table,
// the [Criteria] a listing must meet and who to notify. A [Watcher] runs
// monitors: for each one it fetches up to MaxPages pages, parses every
// listing row, applies the criteria, drops listings already reported in an
// earlier run and sends (or, in preview mode, renders) a summary of the rest.
// Reported links are remembered per monitor in a [kvstore.Store], bounded to
// the newest entries.
//
// # Quick Start
//
//	m, _ := listingwatch.NewMonitor("riga-centre", "Centrs", listingwatch.Flat,
//	    "https://www.ss.com/lv/real-estate/flats/riga/centre/sell/",
//	    listingwatch.WithMaxPages(3),
//	    listingwatch.WithDistrict("Centrs"),
//	    listingwatch.WithCriteria(listingwatch.Criteria{
//	        Rooms:      listingwatch.AtLeast(3),
//	        TotalPrice: listingwatch.AtMost(250000),
//	    }),
//	)
//
//	store, _ := kvstore.NewFile("./data")
//	w, _ := listingwatch.New(
//	    listingwatch.WithMonitor(m),
//	    listingwatch.WithStore(store),
//	)
//
//	batch := w.RunAll(ctx)
//	for _, r := range batch.Results {
//	    fmt.Println(r.MonitorID, r.Status, r.NewListingCount)
//	}
//
// # Failure Handling
//
// Runs never return errors to the caller. A page that fails to load is
// skipped, a row that cannot be parsed is skipped, and an unreadable seen set
// is treated as empty. A failed seen-set write, or a panic anywhere in the
// run, marks that monitor's result as an error. Other monitors still run and
// the batch reports partial_error.
//
// Notifications are at-least-once: links are recorded as seen even if the
// notification could not be dispatched.
//
// # Architecture
//
//   - internal/fetcher: HTTP fetching and pagination with an inter-page delay
//   - internal/parser: goquery-based table row extraction
//   - internal/filter: criteria matching
//   - internal/seen: bounded seen sets over kvstore
//   - internal/notify: HTML rendering and dispatch
//   - kvstore, dispatch: pluggable persistence and transport
//   - config, cmd/listingwatch: YAML configuration and the CLI
package listingwatch
