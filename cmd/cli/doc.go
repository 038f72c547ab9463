// Package cli builds the stackmit command-line interface: a Cobra root command
// that loads layered configuration, creates the zap logger, and registers the
// fleet commands from package repos. Batch progress is logged to standard error
// and optionally exported as Prometheus metrics.
package cli
