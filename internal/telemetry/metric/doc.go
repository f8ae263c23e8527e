// Package metric provides Prometheus metrics for minikv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: private Prometheus registry and HTTP handler
//   - collector.go: scrape-time collector for store statistics
//
// Metrics include:
//
//   - Connection gauges and counters
//   - Command counters and latency histograms, labelled by handler
//   - Parse error and rate limit counters
//   - Stored key count
//
// Metrics are exposed at /metrics by the metricsserver package.
package metric
