// Package prometheus renders erpauth client metrics in Prometheus text format.
//
// [NewPrometheusExporter] reads [erpauth.Client.MetricsSnapshot]. Counters are
// named erpauth_*_total; the single histogram is erpauth_request_latency_seconds.
// A long-running process mounts [PrometheusExporter.Handler]; the CLI writes a
// textfile with [PrometheusExporter.WriteFile] when it exits.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry.
//   - Mutate client state.
package prometheus
