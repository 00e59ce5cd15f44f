// Package prometheus exports engine metrics through client_golang.
//
// [Collector] implements prometheus.Collector and reads
// sessionauth.Engine.MetricsSnapshot on every scrape. Counters are named
// sessionauth_*_total and the resolve latency histogram is
// sessionauth_resolve_latency_seconds.
//
// # What this package must NOT do
//
//   - Register into the global registry on its own. Callers decide where the
//     Collector is registered.
//   - Mutate engine state.
package prometheus
