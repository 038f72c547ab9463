package vcs

import (
	"strconv"
	"strings"
)

// ChangeStatus classifies a pending change to a single file.
type ChangeStatus string

// Supported change classifications.
const (
	ChangeStatusModified ChangeStatus = "modified"
	ChangeStatusAdded    ChangeStatus = "added"
	ChangeStatusDeleted  ChangeStatus = "deleted"
	ChangeStatusUnknown  ChangeStatus = "unknown"
)

const (
	porcelainCodeLengthConstant      = 2
	porcelainPathOffsetConstant      = 3
	porcelainRenameSeparatorConstant = " -> "
	porcelainQuoteConstant           = `"`
	porcelainRenameCodesConstant     = "RC"
)

// StatusEntry is one parsed porcelain status line.
type StatusEntry struct {
	Code string
	Path string
}

// Status classifies the entry's two-character code.
func (entry StatusEntry) Status() ChangeStatus {
	return ClassifyStatusCode(entry.Code)
}

// ClassifyStatusCode maps a porcelain code to a ChangeStatus using its first non-space character.
// Untracked, renamed, copied, and conflicted codes classify as unknown.
func ClassifyStatusCode(code string) ChangeStatus {
	trimmedCode := strings.TrimSpace(code)
	if len(trimmedCode) == 0 {
		return ChangeStatusUnknown
	}
	switch trimmedCode[0] {
	case 'M':
		return ChangeStatusModified
	case 'A':
		return ChangeStatusAdded
	case 'D':
		return ChangeStatusDeleted
	default:
		return ChangeStatusUnknown
	}
}

// ParsePorcelainStatus parses `git status --porcelain` output.
// Renamed and copied entries resolve to their new path; lines too short to hold a code and a path are skipped.
func ParsePorcelainStatus(output string) []StatusEntry {
	entries := []StatusEntry{}
	for _, rawLine := range strings.Split(output, lineSeparatorConstant) {
		line := strings.TrimRight(rawLine, carriageReturnConstant)
		if len(line) <= porcelainPathOffsetConstant {
			continue
		}

		entryCode := line[:porcelainCodeLengthConstant]
		entryPath := line[porcelainPathOffsetConstant:]
		if strings.ContainsAny(entryCode, porcelainRenameCodesConstant) {
			if separatorIndex := strings.LastIndex(entryPath, porcelainRenameSeparatorConstant); separatorIndex >= 0 {
				entryPath = entryPath[separatorIndex+len(porcelainRenameSeparatorConstant):]
			}
		}
		entries = appendEntry(entries, entryCode, entryPath)
	}
	return entries
}

func appendEntry(entries []StatusEntry, entryCode string, entryPath string) []StatusEntry {
	unquotedPath := unquotePorcelainPath(entryPath)
	if len(unquotedPath) == 0 {
		return entries
	}
	return append(entries, StatusEntry{Code: entryCode, Path: unquotedPath})
}

func unquotePorcelainPath(entryPath string) string {
	if !strings.HasPrefix(entryPath, porcelainQuoteConstant) || !strings.HasSuffix(entryPath, porcelainQuoteConstant) || len(entryPath) < 2 {
		return entryPath
	}
	unquotedPath, unquoteError := strconv.Unquote(entryPath)
	if unquoteError != nil {
		return entryPath
	}
	return unquotedPath
}
