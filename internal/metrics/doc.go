// Package metrics exposes resolution counters and latency on a private
// Prometheus registry, served by the API at /metrics.
package metrics
