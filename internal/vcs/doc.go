// Package vcs adapts the git command-line client to the narrow set of
// queries and mutations the fleet engine needs. It parses porcelain output
// and never decides whether a directory is a repository; callers do that.
package vcs
