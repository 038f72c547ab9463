package vcs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fulutas/stackmit-app/internal/execshell"
	"github.com/fulutas/stackmit-app/internal/repos/shared"
)

const (
	gitStatusSubcommandConstant       = "status"
	gitStatusShortFlagConstant        = "-s"
	gitStatusPorcelainFlagConstant    = "--porcelain"
	gitRemoteSubcommandConstant       = "remote"
	gitRemoteGetURLSubcommandConstant = "get-url"
	gitRevParseSubcommandConstant     = "rev-parse"
	gitAbbrevRefFlagConstant          = "--abbrev-ref"
	gitHeadReferenceConstant          = "HEAD"
	gitBranchSubcommandConstant       = "branch"
	gitBranchFormatFlagConstant       = "--format=%(refname:short)"
	gitDiffSubcommandConstant         = "diff"
	gitNoPrefixFlagConstant           = "--no-prefix"
	gitPathSeparatorConstant          = "--"
	gitFetchSubcommandConstant        = "fetch"
	gitRevListSubcommandConstant      = "rev-list"
	gitCountFlagConstant              = "--count"
	gitIncomingRangeTemplateConstant  = "HEAD..%s/%s"
	gitPullSubcommandConstant         = "pull"
	gitAddSubcommandConstant          = "add"
	gitAllFlagConstant                = "--all"
	gitCommitSubcommandConstant       = "commit"
	gitMessageFlagConstant            = "-m"
	gitPushSubcommandConstant         = "push"
	lineSeparatorConstant             = "\n"
	carriageReturnConstant            = "\r"

	gitExecutorNotConfiguredMessageConstant = "vcs adapter requires a git executor"
	vcsUnavailableMessageConstant           = "git executable is unavailable"
	unavailableWrapTemplateConstant         = "%w: %w"
	incomingCountParseTemplateConstant      = "unable to parse incoming commit count %q: %w"
)

// ErrGitExecutorNotConfigured indicates the adapter was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// ErrVCSUnavailable indicates the git binary could not be started at all.
var ErrVCSUnavailable = errors.New(vcsUnavailableMessageConstant)

// Adapter issues git sub-queries and mutations against a single working directory per call.
// Every call spawns exactly one git process described by an argument vector.
type Adapter struct {
	executor   shared.GitExecutor
	remoteName string
}

// NewAdapter constructs an adapter that talks to remoteName for remote operations.
func NewAdapter(executor shared.GitExecutor, remoteName string) (*Adapter, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		trimmedRemoteName = shared.OriginRemoteNameConstant
	}
	return &Adapter{executor: executor, remoteName: trimmedRemoteName}, nil
}

// RemoteName reports the remote used for fetch, pull, and push.
func (adapter *Adapter) RemoteName() string {
	return adapter.remoteName
}

// WorkingTreeSummary returns the short status text; an empty string means a clean tree.
func (adapter *Adapter) WorkingTreeSummary(executionContext context.Context, directory string) (string, error) {
	output, executionError := adapter.run(executionContext, directory, gitStatusSubcommandConstant, gitStatusShortFlagConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimRight(output, lineSeparatorConstant+carriageReturnConstant), nil
}

// RemoteURL returns the URL configured for the adapter's remote.
func (adapter *Adapter) RemoteURL(executionContext context.Context, directory string) (string, error) {
	output, executionError := adapter.run(executionContext, directory, gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, adapter.remoteName)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(output), nil
}

// CurrentBranch returns the abbreviated name of HEAD; a detached HEAD yields "HEAD".
func (adapter *Adapter) CurrentBranch(executionContext context.Context, directory string) (string, error) {
	output, executionError := adapter.run(executionContext, directory, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(output), nil
}

// LocalBranches lists local branch short names in the order git prints them.
func (adapter *Adapter) LocalBranches(executionContext context.Context, directory string) ([]string, error) {
	output, executionError := adapter.run(executionContext, directory, gitBranchSubcommandConstant, gitBranchFormatFlagConstant)
	if executionError != nil {
		return nil, executionError
	}

	branches := []string{}
	for _, line := range strings.Split(output, lineSeparatorConstant) {
		branchName := strings.TrimSpace(line)
		if len(branchName) > 0 {
			branches = append(branches, branchName)
		}
	}
	return branches, nil
}

// ChangedFiles parses the porcelain status into entries.
func (adapter *Adapter) ChangedFiles(executionContext context.Context, directory string) ([]StatusEntry, error) {
	output, executionError := adapter.run(executionContext, directory, gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant)
	if executionError != nil {
		return nil, executionError
	}
	return ParsePorcelainStatus(output), nil
}

// FileDiff returns the trimmed working tree diff of one path.
func (adapter *Adapter) FileDiff(executionContext context.Context, directory string, filePath string) (string, error) {
	output, executionError := adapter.run(executionContext, directory, gitDiffSubcommandConstant, gitNoPrefixFlagConstant, gitPathSeparatorConstant, filePath)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(output), nil
}

// Fetch updates remote-tracking references from the adapter's remote.
func (adapter *Adapter) Fetch(executionContext context.Context, directory string) error {
	_, executionError := adapter.run(executionContext, directory, gitFetchSubcommandConstant, adapter.remoteName)
	return executionError
}

// CountIncoming counts commits reachable from the remote-tracking branch but not from HEAD.
func (adapter *Adapter) CountIncoming(executionContext context.Context, directory string, branch string) (int, error) {
	incomingRange := fmt.Sprintf(gitIncomingRangeTemplateConstant, adapter.remoteName, branch)
	output, executionError := adapter.run(executionContext, directory, gitRevListSubcommandConstant, gitCountFlagConstant, incomingRange)
	if executionError != nil {
		return 0, executionError
	}

	trimmedOutput := strings.TrimSpace(output)
	incomingCount, parseError := strconv.Atoi(trimmedOutput)
	if parseError != nil {
		return 0, fmt.Errorf(incomingCountParseTemplateConstant, trimmedOutput, parseError)
	}
	return incomingCount, nil
}

// Pull merges upstream changes into the current branch and returns git's summary output.
func (adapter *Adapter) Pull(executionContext context.Context, directory string) (string, error) {
	output, executionError := adapter.run(executionContext, directory, gitPullSubcommandConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(output), nil
}

// StageAll stages every change in the working tree, including deletions and untracked files.
func (adapter *Adapter) StageAll(executionContext context.Context, directory string) error {
	_, executionError := adapter.run(executionContext, directory, gitAddSubcommandConstant, gitAllFlagConstant)
	return executionError
}

// Commit records staged changes. The message travels as a single argument and is never shell-interpreted.
func (adapter *Adapter) Commit(executionContext context.Context, directory string, message string) error {
	_, executionError := adapter.run(executionContext, directory, gitCommitSubcommandConstant, gitMessageFlagConstant, message)
	return executionError
}

// Push publishes HEAD to the adapter's remote under the same branch name.
func (adapter *Adapter) Push(executionContext context.Context, directory string) error {
	_, executionError := adapter.run(executionContext, directory, gitPushSubcommandConstant, adapter.remoteName, gitHeadReferenceConstant)
	return executionError
}

func (adapter *Adapter) run(executionContext context.Context, directory string, arguments ...string) (string, error) {
	executionResult, executionError := adapter.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: directory,
		EnvironmentVariables: map[string]string{
			shared.GitTerminalPromptEnvironmentNameConstant: shared.GitTerminalPromptDisabledValueConstant,
		},
	})
	if executionError != nil {
		if errors.Is(executionError, exec.ErrNotFound) {
			return "", fmt.Errorf(unavailableWrapTemplateConstant, ErrVCSUnavailable, executionError)
		}
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

// FailureDetail extracts the most useful human-readable text from an adapter error.
func FailureDetail(failure error) string {
	if failure == nil {
		return ""
	}
	var commandFailure execshell.CommandFailedError
	if errors.As(failure, &commandFailure) {
		detail := strings.TrimSpace(commandFailure.Result.StandardError)
		if len(detail) == 0 {
			detail = strings.TrimSpace(commandFailure.Result.StandardOutput)
		}
		if len(detail) > 0 {
			return detail
		}
	}
	return failure.Error()
}
