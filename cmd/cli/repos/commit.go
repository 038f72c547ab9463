package repos

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fulutas/stackmit-app/internal/fleet"
)

const (
	commitCommandUseConstant              = "commit"
	commitCommandShortDescriptionConstant = "Stage, commit, and push every change"
	commitCommandLongDescriptionConstant  = "commit stages all changes in each selected directory, commits them with one shared message, and pushes the current branch to the configured remote."
	commitMessageFlagNameConstant         = "message"
	commitMessageFlagShorthandConstant    = "m"
	commitMessageFlagUsageConstant        = "Commit message applied to every directory"
)

// CommitCommandBuilder assembles the commit command.
type CommitCommandBuilder struct {
	CommandDependencies
}

// Build constructs the commit command.
func (builder *CommitCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commitCommandUseConstant,
		Short: commitCommandShortDescriptionConstant,
		Long:  commitCommandLongDescriptionConstant,
	}
	selectionFlags := bindDirectoryCommand(command)

	var commitMessage string
	command.Flags().StringVarP(&commitMessage, commitMessageFlagNameConstant, commitMessageFlagShorthandConstant, "", commitMessageFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return runDirectoryOperation(command, arguments, selectionFlags, builder.CommandDependencies,
			func(executionContext context.Context, service *fleet.Service, directories []string) ([]fleet.OperationResult, error) {
				return service.CommitAndPush(executionContext, directories, commitMessage)
			})
	}
	return command, nil
}
