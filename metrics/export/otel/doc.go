// Package otel publishes goWallet client metrics through OpenTelemetry
// observable instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per client counter, an
// Int64ObservableGauge per latency bucket, and a gauge for tracked operations.
// A single callback reads [goWallet.Client.MetricsSnapshot] on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate client state.
package otel
