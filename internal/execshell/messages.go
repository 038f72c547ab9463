package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	commandLabelPartsTemplateConstant       = "%s %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitStatusSubcommandNameConstant   = "status"
	gitStatusShortFlagConstant        = "-s"
	gitRemoteSubcommandNameConstant   = "remote"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitBranchSubcommandNameConstant   = "branch"
	gitDiffSubcommandNameConstant     = "diff"
	gitDiffPathSeparatorConstant      = "--"
	gitFetchSubcommandNameConstant    = "fetch"
	gitRevListSubcommandNameConstant  = "rev-list"
	gitPullSubcommandNameConstant     = "pull"
	gitAddSubcommandNameConstant      = "add"
	gitCommitSubcommandNameConstant   = "commit"
	gitPushSubcommandNameConstant     = "push"
	gitMessageFlagConstant            = "-m"
	gitFlagPrefixConstant             = "-"
)

// stageTemplates holds the start, success, failure, and execution-failure templates of one git subcommand.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var gitSubcommandTemplates = map[string]stageTemplates{
	gitStatusSubcommandNameConstant: {
		start:            "Reviewing working tree status in %s",
		success:          "Collected working tree status for %s",
		failure:          "Failed to review working tree status in %s (exit code %d%s)",
		executionFailure: "Unable to review working tree status in %s: %s",
	},
	gitRemoteSubcommandNameConstant: {
		start:            "Checking remote for %s",
		success:          "Read remote for %s",
		failure:          "Failed to read remote for %s (exit code %d%s)",
		executionFailure: "Unable to read remote for %s: %s",
	},
	gitRevParseSubcommandNameConstant: {
		start:            "Identifying current branch in %s",
		success:          "Identified current branch in %s",
		failure:          "Failed to identify current branch in %s (exit code %d%s)",
		executionFailure: "Unable to identify current branch in %s: %s",
	},
	gitBranchSubcommandNameConstant: {
		start:            "Listing local branches in %s",
		success:          "Listed local branches in %s",
		failure:          "Failed to list local branches in %s (exit code %d%s)",
		executionFailure: "Unable to list local branches in %s: %s",
	},
	gitFetchSubcommandNameConstant: {
		start:            "Fetching from remote in %s",
		success:          "Fetched from remote in %s",
		failure:          "Failed to fetch from remote in %s (exit code %d%s)",
		executionFailure: "Unable to fetch from remote in %s: %s",
	},
	gitRevListSubcommandNameConstant: {
		start:            "Counting incoming commits in %s",
		success:          "Counted incoming commits in %s",
		failure:          "Failed to count incoming commits in %s (exit code %d%s)",
		executionFailure: "Unable to count incoming commits in %s: %s",
	},
	gitPullSubcommandNameConstant: {
		start:            "Pulling changes into %s",
		success:          "Pulled changes into %s",
		failure:          "Failed to pull changes into %s (exit code %d%s)",
		executionFailure: "Unable to pull changes into %s: %s",
	},
	gitAddSubcommandNameConstant: {
		start:            "Staging changes in %s",
		success:          "Staged changes in %s",
		failure:          "Failed to stage changes in %s (exit code %d%s)",
		executionFailure: "Unable to stage changes in %s: %s",
	},
	gitPushSubcommandNameConstant: {
		start:            "Pushing %s",
		success:          "Pushed %s",
		failure:          "Failed to push %s (exit code %d%s)",
		executionFailure: "Unable to push %s: %s",
	},
}

const (
	gitWorkingTreeSummaryStartTemplateConstant = "Summarizing pending changes in %s"
	gitDiffStartTemplateConstant               = "Reading diff of %s in %s"
	gitDiffSuccessTemplateConstant             = "Read diff of %s in %s"
	gitDiffFailureTemplateConstant             = "Failed to read diff of %s in %s (exit code %d%s)"
	gitDiffExecutionFailureTemplateConstant    = "Unable to read diff of %s in %s: %s"
	gitCommitStartTemplateConstant             = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant           = "Created commit in %s"
	gitCommitFailureTemplateConstant           = "Failed to create commit in %s (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant  = "Unable to create commit in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitDiffSubcommandNameConstant:
		return formatter.describeGitDiffMessage(command, result, failure, stage)
	case gitCommitSubcommandNameConstant:
		return formatter.describeGitCommitMessage(command, result, failure, stage)
	case gitStatusSubcommandNameConstant:
		if stage == messageStageStart && containsArgument(command.Details.Arguments, gitStatusShortFlagConstant) {
			return fmt.Sprintf(gitWorkingTreeSummaryStartTemplateConstant, formatter.describeWorkingDirectory(command))
		}
	}

	templates, known := gitSubcommandTemplates[subcommand]
	if !known {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitDiffMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	filePath := formatter.extractPathAfterSeparator(command.Details.Arguments)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitDiffStartTemplateConstant, filePath, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitDiffSuccessTemplateConstant, filePath, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitDiffFailureTemplateConstant, filePath, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitDiffExecutionFailureTemplateConstant, filePath, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCommitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCommitStartTemplateConstant, workingDirectory, findFlagValue(command.Details.Arguments, gitMessageFlagConstant))
	case messageStageSuccess:
		return fmt.Sprintf(gitCommitSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitCommitFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCommitExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf(commandLabelPartsTemplateConstant, commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) extractPathAfterSeparator(arguments []string) string {
	for index, argument := range arguments {
		if argument == gitDiffPathSeparatorConstant && index+1 < len(arguments) {
			return arguments[index+1]
		}
	}
	for index := len(arguments) - 1; index > 0; index-- {
		if !strings.HasPrefix(arguments[index], gitFlagPrefixConstant) {
			return arguments[index]
		}
	}
	return fallbackUnknownValueLabelConstant
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index, argument := range arguments {
		if argument == flag && index+1 < len(arguments) {
			return arguments[index+1]
		}
	}
	return emptyStringConstant
}
