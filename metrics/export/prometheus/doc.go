// Package prometheus exposes goSignup engine metrics as a client_golang
// [prometheus.Collector].
//
// Every collection reads [goSignup.Engine.MetricsSnapshot]; nothing is cached.
// Counters are published as gosignup_*_total and the login latency histogram
// as gosignup_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global default registry; callers choose the registry.
//   - Mutate engine state.
package prometheus
