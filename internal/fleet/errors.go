package fleet

import "errors"

const (
	noDirectoriesMessageConstant                 = "no directories selected"
	commitMessageRequiredMessageConstant         = "commit message must not be empty"
	repositoryClientNotConfiguredMessageConstant = "fleet service requires a repository client"
	fileSystemNotConfiguredMessageConstant       = "fleet service requires a filesystem"
)

// ErrNoDirectories rejects a batch call with an empty directory list.
var ErrNoDirectories = errors.New(noDirectoriesMessageConstant)

// ErrCommitMessageRequired rejects a commit whose message is empty after trimming.
var ErrCommitMessageRequired = errors.New(commitMessageRequiredMessageConstant)

// ErrRepositoryClientNotConfigured indicates the service was built without a VCS adapter.
var ErrRepositoryClientNotConfigured = errors.New(repositoryClientNotConfiguredMessageConstant)

// ErrFileSystemNotConfigured indicates a component was built without a filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)
