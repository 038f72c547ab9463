package repos

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fulutas/stackmit-app/internal/fleet"
)

const (
	pullCommandUseConstant              = "pull"
	pullCommandShortDescriptionConstant = "Pull upstream changes into each repository"
	pullCommandLongDescriptionConstant  = "pull runs git pull in every selected directory. A failing directory is reported and does not stop the others."
)

// PullCommandBuilder assembles the pull command.
type PullCommandBuilder struct {
	CommandDependencies
}

// Build constructs the pull command.
func (builder *PullCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   pullCommandUseConstant,
		Short: pullCommandShortDescriptionConstant,
		Long:  pullCommandLongDescriptionConstant,
	}
	selectionFlags := bindDirectoryCommand(command)
	command.RunE = func(command *cobra.Command, arguments []string) error {
		return runDirectoryOperation(command, arguments, selectionFlags, builder.CommandDependencies,
			func(executionContext context.Context, service *fleet.Service, directories []string) ([]fleet.OperationResult, error) {
				return service.PullBatch(executionContext, directories)
			})
	}
	return command, nil
}
