// Package prometheus renders goWallet client metrics in Prometheus text
// exposition format without depending on the Prometheus client library.
//
// Counter names are gowallet_*_total; the request latency histogram is
// gowallet_request_latency_seconds; gowallet_tracked_operations is a gauge.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry. Callers mount the Handler.
//   - Mutate client state.
package prometheus
