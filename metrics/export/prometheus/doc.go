// Package prometheus provides Prometheus collectors for portal-auth metrics.
//
// [NewPrometheusExporter] accepts a [portalauth.Engine] and exposes an [http.Handler]
// that renders all engine counters and histograms in Prometheus text exposition
// format. Counter names are prefixed portal_auth_*_total; the single histogram is
// portal_auth_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
