// Package metric provides Prometheus metrics for worldsave.
//
//   - prometheus.go: the save/load metric set and the /metrics handler
//   - collector.go: a collector reporting the most recent save
//
// All Registry methods are safe on a nil *Registry, so callers that run
// without metrics pass nil.
package metric
