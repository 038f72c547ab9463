package tabular

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fulutas/stackmit-app/internal/repos/shared"
)

const (
	defaultSheetNameConstant           = "Sheet1"
	headerRowNumberConstant            = 1
	firstColumnNumberConstant          = 1
	columnWidthConstant                = 24
	frozenPaneTopLeftCellConstant      = "A2"
	frozenPaneActivePaneConstant       = "bottomLeft"
	spreadsheetSetupErrorTemplate      = "unable to prepare spreadsheet: %w"
	spreadsheetRowErrorTemplate        = "unable to write spreadsheet row %d: %w"
	spreadsheetColumnNameErrorTemplate = "unable to resolve column %d: %w"
)

// spreadsheetDocument writes rows into a single-sheet workbook.
type spreadsheetDocument struct {
	fileSystem shared.FileSystem
	workbook   *excelize.File
	sheetName  string
	nextRow    int
	closed     bool
}

func newSpreadsheetDocument(fileSystem shared.FileSystem, sheetName string, header []string) (*spreadsheetDocument, error) {
	workbook := excelize.NewFile()
	resolvedSheetName := strings.TrimSpace(sheetName)
	if len(resolvedSheetName) == 0 {
		resolvedSheetName = defaultSheetNameConstant
	}

	if resolvedSheetName != defaultSheetNameConstant {
		if renameError := workbook.SetSheetName(defaultSheetNameConstant, resolvedSheetName); renameError != nil {
			_ = workbook.Close()
			return nil, fmt.Errorf(spreadsheetSetupErrorTemplate, renameError)
		}
	}

	document := &spreadsheetDocument{
		fileSystem: fileSystem,
		workbook:   workbook,
		sheetName:  resolvedSheetName,
		nextRow:    headerRowNumberConstant,
	}
	if len(header) == 0 {
		return document, nil
	}

	if setupError := document.writeHeader(header); setupError != nil {
		_ = workbook.Close()
		return nil, fmt.Errorf(spreadsheetSetupErrorTemplate, setupError)
	}
	return document, nil
}

func (document *spreadsheetDocument) writeHeader(header []string) error {
	if rowError := document.AddRow(header); rowError != nil {
		return rowError
	}

	headerStyle, styleError := document.workbook.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if styleError != nil {
		return styleError
	}
	if styleError := document.workbook.SetRowStyle(document.sheetName, headerRowNumberConstant, headerRowNumberConstant, headerStyle); styleError != nil {
		return styleError
	}

	lastColumnName, columnError := excelize.ColumnNumberToName(len(header))
	if columnError != nil {
		return fmt.Errorf(spreadsheetColumnNameErrorTemplate, len(header), columnError)
	}
	firstColumnName, columnError := excelize.ColumnNumberToName(firstColumnNumberConstant)
	if columnError != nil {
		return fmt.Errorf(spreadsheetColumnNameErrorTemplate, firstColumnNumberConstant, columnError)
	}
	if widthError := document.workbook.SetColWidth(document.sheetName, firstColumnName, lastColumnName, columnWidthConstant); widthError != nil {
		return widthError
	}

	return document.workbook.SetPanes(document.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRowNumberConstant,
		TopLeftCell: frozenPaneTopLeftCellConstant,
		ActivePane:  frozenPaneActivePaneConstant,
	})
}

// AddRow appends cells as the next row; every cell is stored as text.
func (document *spreadsheetDocument) AddRow(cells []string) error {
	cellName, coordinateError := excelize.CoordinatesToCellName(firstColumnNumberConstant, document.nextRow)
	if coordinateError != nil {
		return fmt.Errorf(spreadsheetRowErrorTemplate, document.nextRow, coordinateError)
	}

	rowValues := make([]interface{}, len(cells))
	for index, cell := range cells {
		rowValues[index] = cell
	}
	if writeError := document.workbook.SetSheetRow(document.sheetName, cellName, &rowValues); writeError != nil {
		return fmt.Errorf(spreadsheetRowErrorTemplate, document.nextRow, writeError)
	}
	document.nextRow++
	return nil
}

// Save writes the workbook atomically.
func (document *spreadsheetDocument) Save(destination string) error {
	if document.closed {
		return ErrDocumentClosed
	}
	return writeAtomically(document.fileSystem, destination, func(writer io.Writer) error {
		return document.workbook.Write(writer)
	})
}

// Close releases the workbook's temporary resources.
func (document *spreadsheetDocument) Close() error {
	if document.closed {
		return nil
	}
	document.closed = true
	return document.workbook.Close()
}
