package repos

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fulutas/stackmit-app/internal/fleet"
	"github.com/fulutas/stackmit-app/internal/tabular"
	flagutils "github.com/fulutas/stackmit-app/internal/utils/flags"
)

const (
	exportCommandUseConstant              = "export-deps"
	exportCommandShortDescriptionConstant = "Export declared npm dependencies to a spreadsheet"
	exportCommandLongDescriptionConstant  = "export-deps reads package.json in each selected directory and writes one row per declared dependency. With --check-latest each package is looked up in the registry and marked up to date or not."
	checkLatestFlagNameConstant           = "check-latest"
	checkLatestFlagUsageConstant          = "Look up the latest published version of every package"
	outputFileFlagNameConstant            = "output-file"
	outputFileFlagUsageConstant           = "Destination file; defaults to a timestamped name in the working directory"
	formatFlagNameConstant                = "format"
	formatFlagUsageConstant               = "Spreadsheet format; inferred from --output-file when omitted"
)

// ExportCommandBuilder assembles the export-deps command.
type ExportCommandBuilder struct {
	CommandDependencies
}

type exportFlagValues struct {
	checkLatest bool
	outputFile  string
	format      *flagutils.ChoiceValue
}

// Build constructs the export-deps command.
func (builder *ExportCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   exportCommandUseConstant,
		Short: exportCommandShortDescriptionConstant,
		Long:  exportCommandLongDescriptionConstant,
	}
	selectionFlags := bindDirectoryCommand(command)

	exportFlags := &exportFlagValues{}
	command.Flags().BoolVar(&exportFlags.checkLatest, checkLatestFlagNameConstant, false, checkLatestFlagUsageConstant)
	command.Flags().StringVar(&exportFlags.outputFile, outputFileFlagNameConstant, "", outputFileFlagUsageConstant)
	exportFlags.format = flagutils.AddChoiceFlag(command.Flags(), formatFlagNameConstant, "", []string{string(tabular.FormatXLSX), string(tabular.FormatCSV)}, formatFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, arguments, selectionFlags, exportFlags)
	}
	return command, nil
}

func (builder *ExportCommandBuilder) run(command *cobra.Command, arguments []string, selectionFlags *flagutils.SelectionFlagValues, exportFlags *exportFlagValues) error {
	configuration := builder.configuration()
	directories, selectionError := builder.selectDirectories(arguments, configuration.Engine.Roots, selectionFlags.Recursive)
	if selectionError != nil {
		return selectionError
	}

	options, optionsError := resolveExportOptions(directories, exportFlags, configuration.Export)
	if optionsError != nil {
		return optionsError
	}

	service, serviceError := builder.buildService(configuration)
	if serviceError != nil {
		return serviceError
	}

	exportResult := service.ExportDependencies(command.Context(), options)
	if renderError := writeResults(command.OutOrStdout(), selectionFlags.Output.Value(), exportResult); renderError != nil {
		return renderError
	}
	if !exportResult.Success {
		return errors.New(exportResult.Error)
	}
	return nil
}

// resolveExportOptions prefers flags over configured export defaults.
func resolveExportOptions(directories []string, exportFlags *exportFlagValues, exportConfiguration ExportConfiguration) (fleet.ExportOptions, error) {
	destination := exportFlags.outputFile
	if len(destination) == 0 {
		destination = exportConfiguration.Destination
	}

	formatName := exportFlags.format.Value()
	if len(formatName) == 0 {
		formatName = exportConfiguration.Format
	}

	var format tabular.Format
	if len(formatName) > 0 {
		parsedFormat, parseError := tabular.ParseFormat(formatName)
		if parseError != nil {
			return fleet.ExportOptions{}, parseError
		}
		format = parsedFormat
	}

	return fleet.ExportOptions{
		Paths:           directories,
		CheckLatest:     exportFlags.checkLatest,
		DestinationPath: destination,
		Format:          format,
	}, nil
}
