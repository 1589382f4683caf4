// Package schedule runs a job on a cron schedule.
//
// listingwatch serve --schedule "0 8 * * *" uses it to trigger a batch run
// every morning. Expressions use the standard five fields (minute hour
// day-of-month month day-of-week) or descriptors such as "@daily" and
// "@every 6h". A tick that arrives while the previous job is still running
// is skipped.
package schedule
