// Package otel exports engine metrics as OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter
// and one Int64ObservableGauge per histogram bucket. A single callback reads
// sessionauth.Engine.MetricsSnapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
