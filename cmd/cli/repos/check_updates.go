package repos

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fulutas/stackmit-app/internal/fleet"
)

const (
	checkUpdatesCommandUseConstant              = "check-updates"
	checkUpdatesCommandShortDescriptionConstant = "Count upstream commits missing locally"
	checkUpdatesCommandLongDescriptionConstant  = "check-updates fetches from the configured remote in each directory and reports how many commits the current branch is behind its remote counterpart."
)

// CheckUpdatesCommandBuilder assembles the check-updates command.
type CheckUpdatesCommandBuilder struct {
	CommandDependencies
}

// Build constructs the check-updates command.
func (builder *CheckUpdatesCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   checkUpdatesCommandUseConstant,
		Short: checkUpdatesCommandShortDescriptionConstant,
		Long:  checkUpdatesCommandLongDescriptionConstant,
	}
	selectionFlags := bindDirectoryCommand(command)
	command.RunE = func(command *cobra.Command, arguments []string) error {
		return runDirectoryOperation(command, arguments, selectionFlags, builder.CommandDependencies,
			func(executionContext context.Context, service *fleet.Service, directories []string) ([]fleet.UpdateCheckResult, error) {
				return service.CheckUpdatesBatch(executionContext, directories)
			})
	}
	return command, nil
}
