// Package refresh decides when a cached identity token must be refreshed and
// coalesces concurrent refreshes into one identity-provider round trip.
//
// # Architecture boundaries
//
// This package owns the staleness rule ([Stale]) and the single-flight
// [Group]. Caching the resulting token and tearing down the session on
// failure are handled by the goWallet client.
//
// # What this package must NOT do
//
//   - Hold the token itself between calls.
//   - Import goWallet, idp, or session.
//   - Retry a failed fetch.
package refresh
