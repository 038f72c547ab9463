package fleet

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fulutas/stackmit-app/internal/manifest"
	"github.com/fulutas/stackmit-app/internal/registry"
	"github.com/fulutas/stackmit-app/internal/tabular"
)

const (
	dependencySheetNameConstant           = "Dependencies"
	defaultExportFileTemplateConstant     = "dependencies-%s.%s"
	exportTimestampLayoutConstant         = "20060102-150405"
	manifestUnreadableLogMessageConstant  = "Skipping unreadable manifest"
	exportCompletedLogMessageConstant     = "Dependency export written"
	exportFailedLogMessageConstant        = "Dependency export failed"
	documentCloseFailedLogMessageConstant = "Unable to release export document"
	destinationFieldNameConstant          = "destination"
	rowCountFieldNameConstant             = "rows"
	versionNotPublishedMessageConstant    = "no published version"
	exportDocumentErrorTemplateConstant   = "unable to prepare %s document: %w"
	exportRowErrorTemplateConstant        = "unable to add row for %s: %w"
	exportSaveErrorTemplateConstant       = "unable to save %s: %w"
)

// DependencyReportHeader is the first row of every dependency export.
var DependencyReportHeader = []string{"Project", "Package", "Declared Version", "Latest Version", "Up To Date", "Type"}

// versionLookupResult is one registry answer.
type versionLookupResult struct {
	PackageName string
	Version     string
	Found       bool
}

func (result versionLookupResult) Succeeded() bool {
	return result.Found
}

func (result versionLookupResult) Summary() string {
	if result.Found {
		return result.Version
	}
	return versionNotPublishedMessageConstant
}

// DefaultExportDestination names an export file after the current time.
func (service *Service) DefaultExportDestination(format tabular.Format) string {
	if len(format) == 0 {
		format = tabular.FormatXLSX
	}
	return fmt.Sprintf(defaultExportFileTemplateConstant, service.clock.Now().Format(exportTimestampLayoutConstant), format.Extension())
}

// ExportDependencies writes one row per declared dependency across directories.
// A missing manifest contributes no rows; a failed registry lookup leaves the row's
// latest version empty and its up-to-date state unknown.
func (service *Service) ExportDependencies(executionContext context.Context, options ExportOptions) ExportResult {
	if len(options.Paths) == 0 {
		return ExportResult{Success: false, Error: ErrNoDirectories.Error()}
	}

	destination := strings.TrimSpace(options.DestinationPath)
	format := options.Format
	if len(format) == 0 {
		inferredFormat, inferred := tabular.FormatFromPath(destination)
		format = tabular.FormatXLSX
		if inferred {
			format = inferredFormat
		}
	}
	if len(destination) == 0 {
		destination = service.DefaultExportDestination(format)
	}

	rows := service.collectDependencyRows(options.Paths)
	if options.CheckLatest {
		service.resolveLatestVersions(executionContext, rows)
	}

	if writeError := service.writeDependencyRows(format, destination, rows); writeError != nil {
		service.logger.Warn(exportFailedLogMessageConstant,
			zap.String(destinationFieldNameConstant, destination),
			zap.Error(writeError))
		return ExportResult{Success: false, RowCount: len(rows), Error: writeError.Error()}
	}

	service.logger.Info(exportCompletedLogMessageConstant,
		zap.String(destinationFieldNameConstant, destination),
		zap.Int(rowCountFieldNameConstant, len(rows)))
	return ExportResult{Success: true, FilePath: destination, RowCount: len(rows)}
}

func (service *Service) collectDependencyRows(directories []string) []DependencyRow {
	rows := make([]DependencyRow, 0)
	for _, directory := range directories {
		projectManifest, found, readError := service.manifests.Read(directory)
		if readError != nil {
			service.logger.Warn(manifestUnreadableLogMessageConstant,
				zap.String(directoryFieldNameConstant, directory),
				zap.Error(readError))
			continue
		}
		if !found {
			continue
		}

		projectName := projectManifest.ProjectName(directory)
		rows = appendDependencyRows(rows, projectName, projectManifest.DirectDependencies(), DependencyKindDirect)
		rows = appendDependencyRows(rows, projectName, projectManifest.DevelopmentDependencies(), DependencyKindDev)
	}
	return rows
}

func appendDependencyRows(rows []DependencyRow, projectName string, declared []manifest.Dependency, kind DependencyKind) []DependencyRow {
	for _, dependency := range declared {
		rows = append(rows, DependencyRow{
			ProjectName:     projectName,
			PackageName:     dependency.Name,
			DeclaredVersion: dependency.Version,
			UpToDate:        registry.UpToDateUnknown,
			Kind:            kind,
		})
	}
	return rows
}

// resolveLatestVersions looks every distinct package up once and annotates rows in place.
func (service *Service) resolveLatestVersions(executionContext context.Context, rows []DependencyRow) {
	packageNames := lo.Uniq(lo.Map(rows, func(row DependencyRow, _ int) string {
		return row.PackageName
	}))
	if len(packageNames) == 0 {
		return
	}

	lookups := RunBounded(executionContext, service.batch(BatchOperationRegistryLookup), packageNames,
		func(unitContext context.Context, packageName string) (versionLookupResult, error) {
			version, found := service.registry.LatestVersion(unitContext, packageName)
			return versionLookupResult{PackageName: packageName, Version: version, Found: found}, nil
		},
		func(packageName string, _ error) versionLookupResult {
			return versionLookupResult{PackageName: packageName}
		},
	)
	lookupsByName := lo.SliceToMap(lookups, func(result versionLookupResult) (string, versionLookupResult) {
		return result.PackageName, result
	})

	for index := range rows {
		lookup := lookupsByName[rows[index].PackageName]
		if lookup.Found {
			latestVersion := lookup.Version
			rows[index].LatestVersion = &latestVersion
		}
		rows[index].UpToDate = registry.CompareVersions(rows[index].DeclaredVersion, lookup.Version, lookup.Found)
	}
}

func (service *Service) writeDependencyRows(format tabular.Format, destination string, rows []DependencyRow) error {
	document, documentError := service.documents.NewDocument(format, dependencySheetNameConstant, DependencyReportHeader)
	if documentError != nil {
		return fmt.Errorf(exportDocumentErrorTemplateConstant, format, documentError)
	}
	defer func() {
		if closeError := document.Close(); closeError != nil {
			service.logger.Debug(documentCloseFailedLogMessageConstant, zap.Error(closeError))
		}
	}()
	for _, row := range rows {
		if rowError := document.AddRow(row.Cells()); rowError != nil {
			return fmt.Errorf(exportRowErrorTemplateConstant, row.PackageName, rowError)
		}
	}
	if saveError := document.Save(destination); saveError != nil {
		return fmt.Errorf(exportSaveErrorTemplateConstant, destination, saveError)
	}
	return nil
}
