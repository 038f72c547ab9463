// Package fleet runs status probes and bulk git operations across many working
// directories with bounded parallelism, and exports their npm dependencies.
//
// Every batch entry point returns exactly one result per requested directory, in
// request order. A failing directory is recorded in its own result and never
// affects its siblings.
package fleet
