package repos

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fulutas/stackmit-app/internal/fleet"
)

const (
	scanCommandUseConstant              = "scan"
	scanCommandShortDescriptionConstant = "Report repository status for each directory"
	scanCommandLongDescriptionConstant  = "scan inspects every selected directory and reports whether it is a git repository, its remote, branches, and pending changes with per-file diffs."
)

// ScanCommandBuilder assembles the scan command.
type ScanCommandBuilder struct {
	CommandDependencies
}

// Build constructs the scan command.
func (builder *ScanCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   scanCommandUseConstant,
		Short: scanCommandShortDescriptionConstant,
		Long:  scanCommandLongDescriptionConstant,
	}
	selectionFlags := bindDirectoryCommand(command)
	command.RunE = func(command *cobra.Command, arguments []string) error {
		return runDirectoryOperation(command, arguments, selectionFlags, builder.CommandDependencies,
			func(executionContext context.Context, service *fleet.Service, directories []string) ([]fleet.DirectoryStatus, error) {
				return service.Scan(executionContext, directories)
			})
	}
	return command, nil
}
