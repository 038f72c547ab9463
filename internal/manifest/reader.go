package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulutas/stackmit-app/internal/repos/shared"
)

const (
	// FileNameConstant is the manifest file read from each directory.
	FileNameConstant = "package.json"

	fileSystemNotConfiguredMessageConstant = "manifest reader requires a filesystem"
	manifestReadErrorTemplateConstant      = "unable to read %s: %w"
	manifestParseErrorTemplateConstant     = "unable to parse %s: %w"
)

// ErrFileSystemNotConfigured indicates the reader was constructed without a filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// Dependency is one declared package and its version expression.
type Dependency struct {
	Name    string
	Version string
}

// Manifest is the subset of package.json the exporter needs.
type Manifest struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// ProjectName returns the manifest name, or the directory base name when the manifest has none.
func (manifest Manifest) ProjectName(directory string) string {
	trimmedName := strings.TrimSpace(manifest.Name)
	if len(trimmedName) > 0 {
		return trimmedName
	}
	return filepath.Base(directory)
}

// DirectDependencies returns the runtime dependencies sorted by name.
func (manifest Manifest) DirectDependencies() []Dependency {
	return sortedDependencies(manifest.Dependencies)
}

// DevelopmentDependencies returns the development dependencies sorted by name.
func (manifest Manifest) DevelopmentDependencies() []Dependency {
	return sortedDependencies(manifest.DevDependencies)
}

// Reader loads manifests through a shared.FileSystem.
type Reader struct {
	fileSystem shared.FileSystem
}

// NewReader constructs a manifest reader.
func NewReader(fileSystem shared.FileSystem) (*Reader, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &Reader{fileSystem: fileSystem}, nil
}

// Read loads the manifest of directory. found is false when the file does not exist.
func (reader *Reader) Read(directory string) (Manifest, bool, error) {
	manifestPath := filepath.Join(directory, FileNameConstant)
	contents, readError := reader.fileSystem.ReadFile(manifestPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Manifest{}, false, nil
		}
		return Manifest{}, false, fmt.Errorf(manifestReadErrorTemplateConstant, manifestPath, readError)
	}

	var parsed Manifest
	if parseError := json.Unmarshal(contents, &parsed); parseError != nil {
		return Manifest{}, false, fmt.Errorf(manifestParseErrorTemplateConstant, manifestPath, parseError)
	}
	return parsed, true, nil
}

func sortedDependencies(declared map[string]string) []Dependency {
	dependencies := make([]Dependency, 0, len(declared))
	for name, version := range declared {
		dependencies = append(dependencies, Dependency{Name: name, Version: version})
	}
	sort.Slice(dependencies, func(left int, right int) bool {
		return dependencies[left].Name < dependencies[right].Name
	})
	return dependencies
}
