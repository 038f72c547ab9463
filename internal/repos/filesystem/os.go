package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fulutas/stackmit-app/internal/repos/shared"
)

// OSFileSystem implements shared.FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads file contents.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// CreateTemp creates a uniquely named file inside directory.
func (OSFileSystem) CreateTemp(directory string, pattern string) (shared.TemporaryFile, error) {
	temporaryFile, creationError := os.CreateTemp(directory, pattern)
	if creationError != nil {
		return nil, creationError
	}
	return temporaryFile, nil
}

// Rename renames a path, replacing any existing destination.
func (OSFileSystem) Rename(oldPath string, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Remove deletes a single path.
func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}
