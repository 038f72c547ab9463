// Package ui turns git command events and fleet batch events into concise console messages.
//
// Per-command chatter is logged at debug level; unit failures and batch summaries
// surface at warn and info so an operator sees the outcome of a run at a glance.
package ui
