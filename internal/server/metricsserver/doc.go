// Package metricsserver exposes the Prometheus registry and a liveness
// probe over HTTP.
//
// Routes:
//   - GET /metrics: Prometheus exposition format
//   - GET /health: {"status":"healthy", ...}
package metricsserver
