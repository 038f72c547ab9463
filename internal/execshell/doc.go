// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging, per-invocation
// timeouts, and lifecycle notifications. OSCommandRunner is the default
// runner; it always passes an argument vector to the operating system so no
// user-supplied text is ever interpreted by a shell.
package execshell
