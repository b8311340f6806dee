// Package middleware exposes http.RoundTripper decorators that the goWallet
// client stacks under its authorized request executor.
//
// # Decorators
//
//   - [RequestID] stamps every outgoing request with a unique id.
//   - [UserAgent] sets a fixed User-Agent unless the caller set one.
//   - [Logging] writes one structured log line per round trip.
//
// [Chain] composes decorators around a base transport; the first decorator
// listed is the outermost.
//
// # Architecture boundaries
//
// Decorators see requests after the executor attached credentials. They do NOT
// interpret status codes; 401/403 handling belongs to the executor.
//
// # What this package must NOT do
//
//   - Log header values (the Authorization header carries a live token).
//   - Retry, buffer, or rewrite request bodies.
package middleware
