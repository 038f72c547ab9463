package registry

import "strings"

// UpToDate is the tri-state outcome of comparing a declared version against the registry.
type UpToDate string

// Comparison outcomes; UpToDateUnknown means the registry could not answer.
const (
	UpToDateYes     UpToDate = "yes"
	UpToDateNo      UpToDate = "no"
	UpToDateUnknown UpToDate = "unknown"
)

const (
	caretRangePrefixConstant = "^"
	tildeRangePrefixConstant = "~"
	upToDateYesLabelConstant = "Yes"
	upToDateNoLabelConstant  = "No"
)

// Label renders the outcome as a report cell; unknown renders empty.
func (state UpToDate) Label() string {
	switch state {
	case UpToDateYes:
		return upToDateYesLabelConstant
	case UpToDateNo:
		return upToDateNoLabelConstant
	default:
		return ""
	}
}

// CompareVersions strips one leading "^" or "~" from declared and compares it to latest by string equality.
// A failed lookup always yields UpToDateUnknown, never UpToDateNo.
func CompareVersions(declared string, latest string, found bool) UpToDate {
	if !found {
		return UpToDateUnknown
	}
	normalizedDeclared := strings.TrimSpace(declared)
	switch {
	case strings.HasPrefix(normalizedDeclared, caretRangePrefixConstant):
		normalizedDeclared = strings.TrimPrefix(normalizedDeclared, caretRangePrefixConstant)
	case strings.HasPrefix(normalizedDeclared, tildeRangePrefixConstant):
		normalizedDeclared = strings.TrimPrefix(normalizedDeclared, tildeRangePrefixConstant)
	}
	if normalizedDeclared == strings.TrimSpace(latest) {
		return UpToDateYes
	}
	return UpToDateNo
}
