// Package registry resolves the latest published version of npm packages and
// compares declared versions against it. Lookups are bounded by a timeout,
// retried on transient failures, and never surface errors to callers.
package registry
