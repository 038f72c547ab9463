package tabular

import (
	"encoding/csv"
	"io"

	"github.com/fulutas/stackmit-app/internal/repos/shared"
)

// delimitedDocument buffers rows and writes them as RFC 4180 CSV on save.
type delimitedDocument struct {
	fileSystem shared.FileSystem
	rows       [][]string
}

func newDelimitedDocument(fileSystem shared.FileSystem, header []string) *delimitedDocument {
	document := &delimitedDocument{fileSystem: fileSystem}
	if len(header) > 0 {
		document.rows = append(document.rows, append([]string{}, header...))
	}
	return document
}

// AddRow appends a copy of cells.
func (document *delimitedDocument) AddRow(cells []string) error {
	document.rows = append(document.rows, append([]string{}, cells...))
	return nil
}

// Save writes all rows atomically.
func (document *delimitedDocument) Save(destination string) error {
	return writeAtomically(document.fileSystem, destination, func(writer io.Writer) error {
		csvWriter := csv.NewWriter(writer)
		return csvWriter.WriteAll(document.rows)
	})
}

// Close drops buffered rows.
func (document *delimitedDocument) Close() error {
	document.rows = nil
	return nil
}
