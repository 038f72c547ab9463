package filesystem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fulutas/stackmit-app/internal/repos/filesystem"
)

func TestOSFileSystemReplacesDestinationThroughTemporaryFile(testInstance *testing.T) {
	directory := testInstance.TempDir()
	destination := filepath.Join(directory, "report.csv")
	require.NoError(testInstance, os.WriteFile(destination, []byte("stale"), 0o644))

	fileSystem := filesystem.OSFileSystem{}
	temporaryFile, createError := fileSystem.CreateTemp(directory, ".report.*.tmp")
	require.NoError(testInstance, createError)
	_, writeError := temporaryFile.Write([]byte("fresh"))
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, temporaryFile.Close())

	require.NoError(testInstance, fileSystem.Rename(temporaryFile.Name(), destination))
	contents, readError := fileSystem.ReadFile(destination)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "fresh", string(contents))

	_, statError := fileSystem.Stat(temporaryFile.Name())
	require.ErrorIs(testInstance, statError, os.ErrNotExist)
	require.ErrorIs(testInstance, fileSystem.Remove(temporaryFile.Name()), os.ErrNotExist)
}
