// Package metrics exposes Prometheus counters, gauges, and histograms for
// the migration pipeline: rows moved per phase, PII leaks detected,
// validation findings, and phase/table durations. The report and run
// commands serve these at /metrics.
package metrics
