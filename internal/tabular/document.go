package tabular

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fulutas/stackmit-app/internal/repos/shared"
)

// Format selects the on-disk encoding of a document.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const (
	fileSystemNotConfiguredMessageConstant = "tabular factory requires a filesystem"
	unsupportedFormatMessageConstant       = "unsupported document format"
	documentClosedMessageConstant          = "document already closed"
	unsupportedFormatTemplateConstant      = "%w %q (expected xlsx or csv)"
	temporaryFilePatternTemplateConstant   = ".%s.*.tmp"
	temporaryCreateErrorTemplateConstant   = "unable to create temporary file next to %s: %w"
	documentWriteErrorTemplateConstant     = "unable to write %s: %w"
	temporaryCloseErrorTemplateConstant    = "unable to finalize %s: %w"
	documentRenameErrorTemplateConstant    = "unable to move document into %s: %w"
	extensionSeparatorConstant             = "."
)

// ErrFileSystemNotConfigured indicates the factory was constructed without a filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// ErrDocumentClosed indicates a save after Close.
var ErrDocumentClosed = errors.New(documentClosedMessageConstant)

// ErrUnsupportedFormat indicates a format other than xlsx or csv was requested.
var ErrUnsupportedFormat = errors.New(unsupportedFormatMessageConstant)

// ParseFormat normalizes a user supplied format name.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf(unsupportedFormatTemplateConstant, ErrUnsupportedFormat, value)
	}
}

// FormatFromPath infers the format from the destination extension.
func FormatFromPath(destination string) (Format, bool) {
	extension := strings.TrimPrefix(filepath.Ext(destination), extensionSeparatorConstant)
	parsedFormat, parseError := ParseFormat(extension)
	if parseError != nil {
		return "", false
	}
	return parsedFormat, true
}

// Extension returns the file extension, without a dot, used for the format.
func (format Format) Extension() string {
	return string(format)
}

// Document accumulates rows and writes them to a destination in one step.
// Close releases the document whether or not Save was reached and may be called more than once.
type Document interface {
	AddRow(cells []string) error
	Save(destination string) error
	Close() error
}

// Factory creates documents that save atomically through a shared.FileSystem.
type Factory struct {
	fileSystem shared.FileSystem
}

// NewFactory constructs a document factory.
func NewFactory(fileSystem shared.FileSystem) (*Factory, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &Factory{fileSystem: fileSystem}, nil
}

// NewDocument creates an empty document whose first row is header.
func (factory *Factory) NewDocument(format Format, sheetName string, header []string) (Document, error) {
	switch format {
	case FormatXLSX:
		spreadsheet, creationError := newSpreadsheetDocument(factory.fileSystem, sheetName, header)
		if creationError != nil {
			return nil, creationError
		}
		return spreadsheet, nil
	case FormatCSV:
		return newDelimitedDocument(factory.fileSystem, header), nil
	default:
		return nil, fmt.Errorf(unsupportedFormatTemplateConstant, ErrUnsupportedFormat, string(format))
	}
}

// writeAtomically streams content into a temporary file beside destination and renames it into place.
// The destination is either fully replaced or left untouched.
func writeAtomically(fileSystem shared.FileSystem, destination string, write func(writer io.Writer) error) error {
	destinationDirectory := filepath.Dir(destination)
	temporaryFile, createError := fileSystem.CreateTemp(destinationDirectory, fmt.Sprintf(temporaryFilePatternTemplateConstant, filepath.Base(destination)))
	if createError != nil {
		return fmt.Errorf(temporaryCreateErrorTemplateConstant, destination, createError)
	}
	temporaryPath := temporaryFile.Name()

	if writeError := write(temporaryFile); writeError != nil {
		_ = temporaryFile.Close()
		_ = fileSystem.Remove(temporaryPath)
		return fmt.Errorf(documentWriteErrorTemplateConstant, destination, writeError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		_ = fileSystem.Remove(temporaryPath)
		return fmt.Errorf(temporaryCloseErrorTemplateConstant, destination, closeError)
	}
	if renameError := fileSystem.Rename(temporaryPath, destination); renameError != nil {
		_ = fileSystem.Remove(temporaryPath)
		return fmt.Errorf(documentRenameErrorTemplateConstant, destination, renameError)
	}
	return nil
}
