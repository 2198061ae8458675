// Package metrics provides operational metrics collection for the admin
// process.
//
// # Metric Categories
//
//   - Action runs: counts by action and outcome
//   - Action latency: handling duration histograms by action
//
// # Integration
//
// Metrics live in a dedicated Prometheus registry owned by the server and are
// exposed in the Prometheus text format on the metrics route.
package metrics
