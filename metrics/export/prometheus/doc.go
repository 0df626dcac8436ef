// Package prometheus provides Prometheus collectors for namewrap metrics.
//
// [NewPrometheusExporter] accepts a [namewrap.Engine] and exposes an [http.Handler]
// that renders all namewrap counters and histograms in Prometheus text exposition
// format. Counter names are prefixed namewrap_*_total; the single histogram is
// namewrap_analyze_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
