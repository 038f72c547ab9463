package fleet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fulutas/stackmit-app/internal/execshell"
	"github.com/fulutas/stackmit-app/internal/repos/shared"
	"github.com/fulutas/stackmit-app/internal/vcs"
)

const (
	repositoryMarkerErrorTemplateConstant = "unable to inspect %s: %w"
	subQueryFailedLogMessageConstant      = "Git query failed; using empty value"
	diffFailedLogMessageConstant          = "Unable to read diff"
	directoryFieldNameConstant            = "directory"
	queryFieldNameConstant                = "query"
	fileFieldNameConstant                 = "file"
	workingTreeQueryNameConstant          = "working_tree"
	remoteURLQueryNameConstant            = "remote_url"
	currentBranchQueryNameConstant        = "current_branch"
	localBranchesQueryNameConstant        = "branches"
	changedFilesQueryNameConstant         = "changed_files"
)

// RepositoryClient is the VCS surface used by fleet operations.
type RepositoryClient interface {
	RemoteName() string
	WorkingTreeSummary(executionContext context.Context, directory string) (string, error)
	RemoteURL(executionContext context.Context, directory string) (string, error)
	CurrentBranch(executionContext context.Context, directory string) (string, error)
	LocalBranches(executionContext context.Context, directory string) ([]string, error)
	ChangedFiles(executionContext context.Context, directory string) ([]vcs.StatusEntry, error)
	FileDiff(executionContext context.Context, directory string, filePath string) (string, error)
	Fetch(executionContext context.Context, directory string) error
	CountIncoming(executionContext context.Context, directory string, branch string) (int, error)
	Pull(executionContext context.Context, directory string) (string, error)
	StageAll(executionContext context.Context, directory string) error
	Commit(executionContext context.Context, directory string, message string) error
	Push(executionContext context.Context, directory string) error
}

// Prober builds the DirectoryStatus of a single directory.
type Prober struct {
	fileSystem shared.FileSystem
	repository RepositoryClient
	logger     *zap.Logger
}

// NewProber constructs a prober.
func NewProber(fileSystem shared.FileSystem, repository RepositoryClient, logger *zap.Logger) (*Prober, error) {
	if repository == nil {
		return nil, ErrRepositoryClientNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &Prober{fileSystem: fileSystem, repository: repository, logger: logger}, nil
}

// Probe never fails: sub-query failures leave their field empty, while an unusable
// VCS binary, a timed-out query or an unreadable marker is reported through ProbeError.
func (prober *Prober) Probe(executionContext context.Context, directory string) DirectoryStatus {
	status := emptyStatus(directory)

	_, statError := prober.fileSystem.Stat(filepath.Join(directory, shared.GitMetadataDirectoryNameConstant))
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return status
		}
		status.ProbeError = fmt.Errorf(repositoryMarkerErrorTemplateConstant, directory, statError).Error()
		return status
	}
	status.IsRepository = true

	summary, summaryError := prober.repository.WorkingTreeSummary(executionContext, directory)
	if prober.unavailable(directory, workingTreeQueryNameConstant, summaryError) {
		return failedStatus(directory, summaryError)
	}
	status.PendingChangesSummary = summary

	remoteURL, remoteError := prober.repository.RemoteURL(executionContext, directory)
	if prober.unavailable(directory, remoteURLQueryNameConstant, remoteError) {
		return failedStatus(directory, remoteError)
	}
	status.RemoteURL = remoteURL

	branch, branchError := prober.repository.CurrentBranch(executionContext, directory)
	if prober.unavailable(directory, currentBranchQueryNameConstant, branchError) {
		return failedStatus(directory, branchError)
	}
	status.CurrentBranch = branch

	branches, branchesError := prober.repository.LocalBranches(executionContext, directory)
	if prober.unavailable(directory, localBranchesQueryNameConstant, branchesError) {
		return failedStatus(directory, branchesError)
	}
	if branchesError == nil && branches != nil {
		status.Branches = branches
	}

	entries, entriesError := prober.repository.ChangedFiles(executionContext, directory)
	if prober.unavailable(directory, changedFilesQueryNameConstant, entriesError) {
		return failedStatus(directory, entriesError)
	}
	for _, entry := range entries {
		change := FileChange{FilePath: entry.Path, RawStatus: entry.Code, Status: entry.Status()}
		diffText, diffError := prober.repository.FileDiff(executionContext, directory, entry.Path)
		switch {
		case abortsProbe(diffError):
			return failedStatus(directory, diffError)
		case diffError != nil:
			prober.logger.Debug(diffFailedLogMessageConstant,
				zap.String(directoryFieldNameConstant, directory),
				zap.String(fileFieldNameConstant, entry.Path),
				zap.Error(diffError))
			change.DiffError = vcs.FailureDetail(diffError)
		default:
			change.DiffText = diffText
		}
		status.FileChanges = append(status.FileChanges, change)
	}

	return status
}

// unavailable logs a failed sub-query and reports whether the directory must be given up on.
func (prober *Prober) unavailable(directory string, query string, queryError error) bool {
	if queryError == nil {
		return false
	}
	if abortsProbe(queryError) {
		return true
	}
	prober.logger.Debug(subQueryFailedLogMessageConstant,
		zap.String(directoryFieldNameConstant, directory),
		zap.String(queryFieldNameConstant, query),
		zap.Error(queryError))
	return false
}

// abortsProbe reports failures after which no further query against the directory can succeed.
func abortsProbe(queryError error) bool {
	return errors.Is(queryError, vcs.ErrVCSUnavailable) || errors.Is(queryError, execshell.ErrCommandTimedOut)
}

// hasRepositoryMarker reports whether the directory carries VCS metadata.
func (prober *Prober) hasRepositoryMarker(directory string) bool {
	_, statError := prober.fileSystem.Stat(filepath.Join(directory, shared.GitMetadataDirectoryNameConstant))
	return statError == nil
}

func emptyStatus(directory string) DirectoryStatus {
	return DirectoryStatus{
		Path:        directory,
		Name:        filepath.Base(directory),
		Branches:    []string{},
		FileChanges: []FileChange{},
	}
}

// failedStatus keeps only the filesystem verdict, which was positive for every caller.
func failedStatus(directory string, failure error) DirectoryStatus {
	status := emptyStatus(directory)
	status.IsRepository = true
	status.ProbeError = failure.Error()
	return status
}
