package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fulutas/stackmit-app/internal/manifest"
	"github.com/fulutas/stackmit-app/internal/repos/filesystem"
)

func writeManifest(testInstance *testing.T, directory string, contents string) {
	testInstance.Helper()
	require.NoError(testInstance, os.WriteFile(filepath.Join(directory, manifest.FileNameConstant), []byte(contents), 0o644))
}

func TestReaderRead(testInstance *testing.T) {
	testCases := []struct {
		name            string
		contents        *string
		expectFound     bool
		expectError     bool
		expectedProject string
		expectedDirect  []manifest.Dependency
		expectedDev     []manifest.Dependency
	}{
		{
			name:            "missing_manifest",
			expectedProject: "project",
			expectedDirect:  []manifest.Dependency{},
			expectedDev:     []manifest.Dependency{},
		},
		{
			name:            "named_manifest_sorted",
			contents:        pointerTo(`{"name":"web-app","dependencies":{"react":"^18.2.0","axios":"~1.6.0"},"devDependencies":{"vite":"5.0.0"}}`),
			expectFound:     true,
			expectedProject: "web-app",
			expectedDirect:  []manifest.Dependency{{Name: "axios", Version: "~1.6.0"}, {Name: "react", Version: "^18.2.0"}},
			expectedDev:     []manifest.Dependency{{Name: "vite", Version: "5.0.0"}},
		},
		{
			name:            "unnamed_manifest_uses_directory",
			contents:        pointerTo(`{"dependencies":{}}`),
			expectFound:     true,
			expectedProject: "project",
			expectedDirect:  []manifest.Dependency{},
			expectedDev:     []manifest.Dependency{},
		},
		{
			name:        "malformed_manifest",
			contents:    pointerTo(`{"name":`),
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			directory := filepath.Join(testInstance.TempDir(), "project")
			require.NoError(testInstance, os.MkdirAll(directory, 0o755))
			if testCase.contents != nil {
				writeManifest(testInstance, directory, *testCase.contents)
			}

			reader, creationError := manifest.NewReader(filesystem.OSFileSystem{})
			require.NoError(testInstance, creationError)

			parsed, found, readError := reader.Read(directory)
			if testCase.expectError {
				require.Error(testInstance, readError)
				require.False(testInstance, found)
				return
			}
			require.NoError(testInstance, readError)
			require.Equal(testInstance, testCase.expectFound, found)
			require.Equal(testInstance, testCase.expectedProject, parsed.ProjectName(directory))
			require.Equal(testInstance, testCase.expectedDirect, parsed.DirectDependencies())
			require.Equal(testInstance, testCase.expectedDev, parsed.DevelopmentDependencies())
		})
	}
}

func TestNewReaderRequiresFileSystem(testInstance *testing.T) {
	_, creationError := manifest.NewReader(nil)
	require.ErrorIs(testInstance, creationError, manifest.ErrFileSystemNotConfigured)
}

func pointerTo(value string) *string {
	return &value
}
