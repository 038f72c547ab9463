package fleet

import (
	"github.com/fulutas/stackmit-app/internal/registry"
	"github.com/fulutas/stackmit-app/internal/tabular"
	"github.com/fulutas/stackmit-app/internal/vcs"
)

// DirectoryStatus is the aggregated view of one operator-selected directory.
// When IsRepository is false every git-derived field is empty.
// When ProbeError is set the git-derived fields are empty and IsRepository reflects only the .git check.
type DirectoryStatus struct {
	Path                  string       `json:"path" yaml:"path"`
	Name                  string       `json:"name" yaml:"name"`
	IsRepository          bool         `json:"is_repository" yaml:"is_repository"`
	PendingChangesSummary string       `json:"pending_changes_summary" yaml:"pending_changes_summary"`
	RemoteURL             string       `json:"remote_url" yaml:"remote_url"`
	CurrentBranch         string       `json:"current_branch" yaml:"current_branch"`
	Branches              []string     `json:"branches" yaml:"branches"`
	FileChanges           []FileChange `json:"file_changes" yaml:"file_changes"`
	ProbeError            string       `json:"probe_error,omitempty" yaml:"probe_error,omitempty"`
}

// IsClean reports whether a repository has no pending changes.
func (status DirectoryStatus) IsClean() bool {
	return status.IsRepository && len(status.ProbeError) == 0 && len(status.PendingChangesSummary) == 0
}

// Succeeded reports whether the probe completed.
func (status DirectoryStatus) Succeeded() bool {
	return len(status.ProbeError) == 0
}

// Summary returns the probe failure, if any.
func (status DirectoryStatus) Summary() string {
	return status.ProbeError
}

// FileChange is one pending change paired with its diff.
// DiffError set implies DiffText is empty.
type FileChange struct {
	FilePath  string           `json:"file_path" yaml:"file_path"`
	RawStatus string           `json:"raw_status" yaml:"raw_status"`
	Status    vcs.ChangeStatus `json:"status" yaml:"status"`
	DiffText  string           `json:"diff_text" yaml:"diff_text"`
	DiffError string           `json:"diff_error,omitempty" yaml:"diff_error,omitempty"`
}

// OperationResult reports the outcome of a mutating operation on one directory.
type OperationResult struct {
	Path    string `json:"path" yaml:"path"`
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message" yaml:"message"`
}

// Succeeded reports the operation outcome.
func (result OperationResult) Succeeded() bool {
	return result.Success
}

// Summary returns the outcome message.
func (result OperationResult) Summary() string {
	return result.Message
}

// UpdateCheckResult reports how many upstream commits are missing locally.
// AheadCount is meaningful only when Success is true.
type UpdateCheckResult struct {
	Path       string `json:"path" yaml:"path"`
	Branch     string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Success    bool   `json:"success" yaml:"success"`
	AheadCount int    `json:"ahead_count" yaml:"ahead_count"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Succeeded reports whether the check completed.
func (result UpdateCheckResult) Succeeded() bool {
	return result.Success
}

// Summary returns the outcome message.
func (result UpdateCheckResult) Summary() string {
	return result.Message
}

// DependencyKind distinguishes runtime from development dependencies.
type DependencyKind string

// Supported dependency kinds.
const (
	DependencyKindDirect DependencyKind = "direct"
	DependencyKindDev    DependencyKind = "dev"
)

// DependencyRow is one exported manifest entry.
// LatestVersion is nil when no lookup was made or the lookup failed.
type DependencyRow struct {
	ProjectName     string
	PackageName     string
	DeclaredVersion string
	LatestVersion   *string
	UpToDate        registry.UpToDate
	Kind            DependencyKind
}

// Cells renders the row in report column order.
func (row DependencyRow) Cells() []string {
	latestVersion := ""
	if row.LatestVersion != nil {
		latestVersion = *row.LatestVersion
	}
	return []string{row.ProjectName, row.PackageName, row.DeclaredVersion, latestVersion, row.UpToDate.Label(), string(row.Kind)}
}

// ExportOptions parameterizes a dependency export.
type ExportOptions struct {
	Paths           []string
	CheckLatest     bool
	DestinationPath string
	Format          tabular.Format
}

// ExportResult reports the outcome of a dependency export.
type ExportResult struct {
	Success  bool   `json:"success" yaml:"success"`
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	RowCount int    `json:"row_count" yaml:"row_count"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}
