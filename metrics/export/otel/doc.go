// Package otel exposes erpauth client counters through an OpenTelemetry Meter.
//
// [NewOTelExporter] registers three instruments:
//
//   - erpauth.flow.events: observable counter, one point per flow/outcome pair.
//   - erpauth.request.latency.buckets: observable gauge, cumulative bucket
//     counts keyed by the "le" attribute.
//   - erpauth.audit.dropped: observable counter.
//
// A single callback reads [erpauth.Client.MetricsSnapshot] on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate client state.
package otel
