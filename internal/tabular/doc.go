// Package tabular writes row-oriented reports as xlsx workbooks or csv files.
// Documents are saved through a temporary file and a rename so a failed save
// never leaves a partial report behind.
package tabular
