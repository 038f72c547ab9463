package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/fulutas/stackmit-app/internal/repos/shared"
)

const (
	nodeModulesDirectoryNameConstant   = "node_modules"
	discoveryRootErrorTemplateConstant = "unable to discover repositories under %s: %w"
)

// FilesystemRepositoryDiscoverer locates git working trees on disk.
type FilesystemRepositoryDiscoverer struct{}

// NewFilesystemRepositoryDiscoverer constructs a repository discoverer backed by filepath.WalkDir.
func NewFilesystemRepositoryDiscoverer() *FilesystemRepositoryDiscoverer {
	return &FilesystemRepositoryDiscoverer{}
}

// DiscoverRepositories walks the provided roots and returns every directory holding a .git entry.
// Nested repositories are reported; installed package trees are not descended into.
func (discoverer *FilesystemRepositoryDiscoverer) DiscoverRepositories(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var repositories []string

	for _, root := range roots {
		walkError := filepath.WalkDir(root, func(path string, directoryEntry fs.DirEntry, walkError error) error {
			if walkError != nil {
				if path == root {
					return walkError
				}
				return nil
			}

			switch directoryEntry.Name() {
			case nodeModulesDirectoryNameConstant:
				if directoryEntry.IsDir() {
					return fs.SkipDir
				}
				return nil
			case shared.GitMetadataDirectoryNameConstant:
			default:
				return nil
			}

			repositoryPath := filepath.Dir(path)
			if _, alreadySeen := seen[repositoryPath]; !alreadySeen {
				seen[repositoryPath] = struct{}{}
				repositories = append(repositories, repositoryPath)
			}

			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		})
		if walkError != nil {
			return nil, fmt.Errorf(discoveryRootErrorTemplateConstant, root, walkError)
		}
	}

	sort.Strings(repositories)
	return repositories, nil
}
