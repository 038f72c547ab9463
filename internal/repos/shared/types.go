package shared

import (
	"context"
	"io"
	"io/fs"
	"time"

	"github.com/fulutas/stackmit-app/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the default remote used for fetch, pull, and push.
	OriginRemoteNameConstant = "origin"
	// GitMetadataDirectoryNameConstant is the marker entry identifying a working tree root.
	GitMetadataDirectoryNameConstant = ".git"
	// GitTerminalPromptEnvironmentNameConstant disables interactive credential prompts when set to "0".
	GitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	// GitTerminalPromptDisabledValueConstant is the value that disables credential prompts.
	GitTerminalPromptDisabledValueConstant = "0"
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// TemporaryFile is a freshly created file that can be written, closed, and later renamed.
type TemporaryFile interface {
	io.WriteCloser
	Name() string
}

// FileSystem exposes the filesystem operations used by the engine.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	Abs(path string) (string, error)
	CreateTemp(directory string, pattern string) (TemporaryFile, error)
	Rename(oldPath string, newPath string) error
	Remove(path string) error
}

// GitExecutor runs git invocations described by argument vectors.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryDiscoverer locates git repositories beneath a set of roots.
type RepositoryDiscoverer interface {
	DiscoverRepositories(roots []string) ([]string, error)
}
