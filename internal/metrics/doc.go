// Package metrics exposes fleet batch activity as Prometheus metrics that can be
// written to a node_exporter textfile after a command finishes.
package metrics
