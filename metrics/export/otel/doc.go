// Package otel publishes goSignup engine metrics through an OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter and each latency bucket an
// Int64ObservableGauge; one callback reads the engine snapshot per collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
