// Package core provides the clinic directory's page controller logic.
//
// This package holds the domain flow independent of any transport. Web
// handlers, the CLI and tests all drive it the same way.
//
// # Architecture
//
//   - Relay: returns every raw upstream row (see package relay).
//   - Normalizer: maps raw rows to [clinic.Record] values.
//   - Directory: the explicit state for one page view, holding the
//     normalized clinics and the specialty menu derived from them.
//   - Filter: applies [finder.Search] with the configured default radius.
//
// # Loading
//
// [Service.LoadDirectory] fetches, decodes and normalizes in one call. Rows
// that are not JSON objects are skipped and counted in [Directory.Skipped];
// every other row becomes exactly one clinic, in upstream order.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code prefix for support reference:
//
//   - SRC: the upstream answered with an error or unreadable data
//   - RLY: the upstream request did not complete
//   - REQ: the visitor's search input was rejected
//   - ERR000: anything else
package core
