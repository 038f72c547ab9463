// Package pathutils normalizes operator-supplied directory arguments.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

const homeShortcutConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory.
type HomeDirectoryProvider func() (string, error)

// AbsolutePathResolver turns a relative path into an absolute one.
type AbsolutePathResolver func(string) (string, error)

// DirectorySelection turns raw arguments into the ordered list of directories a command operates on.
type DirectorySelection struct {
	homeDirectory HomeDirectoryProvider
	absolutePath  AbsolutePathResolver
}

// NewDirectorySelection uses the operating system home directory and working directory.
func NewDirectorySelection() *DirectorySelection {
	return NewDirectorySelectionWithResolvers(os.UserHomeDir, filepath.Abs)
}

// NewDirectorySelectionWithResolvers substitutes the home and absolute path lookups; nil keeps the OS default.
func NewDirectorySelectionWithResolvers(homeDirectory HomeDirectoryProvider, absolutePath AbsolutePathResolver) *DirectorySelection {
	if homeDirectory == nil {
		homeDirectory = os.UserHomeDir
	}
	if absolutePath == nil {
		absolutePath = filepath.Abs
	}
	return &DirectorySelection{homeDirectory: homeDirectory, absolutePath: absolutePath}
}

// Normalize trims blanks, expands a leading "~", makes each path absolute and clean,
// and drops repeats while keeping first-seen order. A selection with nothing left is nil.
func (selection *DirectorySelection) Normalize(candidates []string) []string {
	if selection == nil {
		selection = NewDirectorySelection()
	}

	normalized := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		expanded := selection.expandHome(trimmed)
		absolute, absoluteError := selection.absolutePath(expanded)
		if absoluteError != nil {
			absolute = expanded
		}
		normalized = append(normalized, filepath.Clean(absolute))
	}

	if len(normalized) == 0 {
		return nil
	}
	return lo.Uniq(normalized)
}

func (selection *DirectorySelection) expandHome(candidate string) string {
	if !strings.HasPrefix(candidate, homeShortcutConstant) {
		return candidate
	}
	remainder := strings.TrimPrefix(candidate, homeShortcutConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidate
	}

	homeDirectory, homeError := selection.homeDirectory()
	if homeError != nil || len(homeDirectory) == 0 {
		return candidate
	}
	return filepath.Join(homeDirectory, remainder)
}
