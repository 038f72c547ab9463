package dependencies

import (
	"go.uber.org/zap"

	"github.com/fulutas/stackmit-app/internal/execshell"
	"github.com/fulutas/stackmit-app/internal/repos/discovery"
	"github.com/fulutas/stackmit-app/internal/repos/filesystem"
	"github.com/fulutas/stackmit-app/internal/repos/shared"
	"github.com/fulutas/stackmit-app/internal/vcs"
)

// ResolveRepositoryDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveRepositoryDiscoverer(existing shared.RepositoryDiscoverer) shared.RepositoryDiscoverer {
	if existing != nil {
		return existing
	}
	return discovery.NewFilesystemRepositoryDiscoverer()
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default with options applied.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, options ...execshell.ShellExecutorOption) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), options...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveVersionControlAdapter builds the git adapter for remoteName on top of executor.
func ResolveVersionControlAdapter(executor shared.GitExecutor, remoteName string) (*vcs.Adapter, error) {
	return vcs.NewAdapter(executor, remoteName)
}
