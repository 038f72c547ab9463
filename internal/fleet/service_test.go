package fleet_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fulutas/stackmit-app/internal/execshell"
	"github.com/fulutas/stackmit-app/internal/fleet"
	"github.com/fulutas/stackmit-app/internal/vcs"
)

const testCommitMessageConstant = "chore: bump dependencies"

// fleetGitExecutor answers git invocations keyed by "<directory>|<arguments>".
type fleetGitExecutor struct {
	mutex    sync.Mutex
	outputs  map[string]string
	failures map[string]error
	fallback error
	recorded []string
}

func (executor *fleetGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	key := fmt.Sprintf("%s|%s", details.WorkingDirectory, strings.Join(details.Arguments, " "))
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recorded = append(executor.recorded, key)
	if failure, failing := executor.failures[key]; failing {
		return execshell.ExecutionResult{}, failure
	}
	if executor.fallback != nil {
		return execshell.ExecutionResult{}, executor.fallback
	}
	return execshell.ExecutionResult{StandardOutput: executor.outputs[key]}, nil
}

func (executor *fleetGitExecutor) calls() []string {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	return append([]string(nil), executor.recorded...)
}

func commandFailure(standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{StandardError: standardError, ExitCode: 1},
	}
}

func timedOutExecution() error {
	return execshell.CommandExecutionError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Cause:   fmt.Errorf("%w: %w", execshell.ErrCommandTimedOut, context.DeadlineExceeded),
	}
}

type panickingGitExecutor struct{}

func (panickingGitExecutor) ExecuteGit(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	panic("git runner crashed")
}

func newRepositoryDirectory(testInstance *testing.T, root string, name string) string {
	testInstance.Helper()
	directory := filepath.Join(root, name)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(directory, ".git"), 0o755))
	return directory
}

func newFleetService(testInstance *testing.T, executor *fleetGitExecutor, concurrency int) *fleet.Service {
	testInstance.Helper()
	adapter, adapterError := vcs.NewAdapter(executor, "origin")
	require.NoError(testInstance, adapterError)
	service, serviceError := fleet.NewService(fleet.Dependencies{
		Logger:      zap.NewNop(),
		Repository:  adapter,
		Concurrency: concurrency,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func TestNewServiceRequiresRepository(testInstance *testing.T) {
	_, serviceError := fleet.NewService(fleet.Dependencies{})
	require.ErrorIs(testInstance, serviceError, fleet.ErrRepositoryClientNotConfigured)
}

func TestScanAggregatesDirectoryStatus(testInstance *testing.T) {
	root := testInstance.TempDir()
	repositoryDirectory := newRepositoryDirectory(testInstance, root, "api")
	plainDirectory := filepath.Join(root, "notes")
	require.NoError(testInstance, os.MkdirAll(plainDirectory, 0o755))

	executor := &fleetGitExecutor{
		outputs: map[string]string{
			repositoryDirectory + "|status -s":                        " M server.go\n?? todo.md\n",
			repositoryDirectory + "|remote get-url origin":            "git@example.com:team/api.git\n",
			repositoryDirectory + "|rev-parse --abbrev-ref HEAD":      "main\n",
			repositoryDirectory + "|branch --format=%(refname:short)": "main\nrelease\n",
			repositoryDirectory + "|status --porcelain":               " M server.go\n D legacy.go\n?? todo.md\n",
			repositoryDirectory + "|diff --no-prefix -- server.go":    "diff --git server.go server.go\n+handler\n",
		},
		failures: map[string]error{
			repositoryDirectory + "|diff --no-prefix -- legacy.go": commandFailure("fatal: bad object\n"),
		},
	}
	service := newFleetService(testInstance, executor, 2)

	statuses, scanError := service.Scan(context.Background(), []string{plainDirectory, repositoryDirectory})
	require.NoError(testInstance, scanError)
	require.Len(testInstance, statuses, 2)

	require.Equal(testInstance, fleet.DirectoryStatus{
		Path:        plainDirectory,
		Name:        "notes",
		Branches:    []string{},
		FileChanges: []fleet.FileChange{},
	}, statuses[0])

	repositoryStatus := statuses[1]
	require.True(testInstance, repositoryStatus.IsRepository)
	require.Empty(testInstance, repositoryStatus.ProbeError)
	require.Equal(testInstance, "api", repositoryStatus.Name)
	require.Equal(testInstance, " M server.go\n?? todo.md", repositoryStatus.PendingChangesSummary)
	require.Equal(testInstance, "git@example.com:team/api.git", repositoryStatus.RemoteURL)
	require.Equal(testInstance, "main", repositoryStatus.CurrentBranch)
	require.Equal(testInstance, []string{"main", "release"}, repositoryStatus.Branches)
	require.Equal(testInstance, []fleet.FileChange{
		{FilePath: "server.go", RawStatus: " M", Status: vcs.ChangeStatusModified, DiffText: "diff --git server.go server.go\n+handler"},
		{FilePath: "legacy.go", RawStatus: " D", Status: vcs.ChangeStatusDeleted, DiffError: "fatal: bad object"},
		{FilePath: "todo.md", RawStatus: "??", Status: vcs.ChangeStatusUnknown},
	}, repositoryStatus.FileChanges)

	for _, call := range executor.calls() {
		require.True(testInstance, strings.HasPrefix(call, repositoryDirectory+"|"), call)
	}
}

func TestScanKeepsOtherFieldsWhenSubQueryFails(testInstance *testing.T) {
	repositoryDirectory := newRepositoryDirectory(testInstance, testInstance.TempDir(), "web")
	executor := &fleetGitExecutor{
		outputs: map[string]string{
			repositoryDirectory + "|rev-parse --abbrev-ref HEAD": "develop\n",
		},
		failures: map[string]error{
			repositoryDirectory + "|remote get-url origin": commandFailure("error: No such remote 'origin'"),
		},
	}
	service := newFleetService(testInstance, executor, 1)

	statuses, scanError := service.Scan(context.Background(), []string{repositoryDirectory})
	require.NoError(testInstance, scanError)
	require.True(testInstance, statuses[0].IsRepository)
	require.Empty(testInstance, statuses[0].ProbeError)
	require.Empty(testInstance, statuses[0].RemoteURL)
	require.Equal(testInstance, "develop", statuses[0].CurrentBranch)
	require.True(testInstance, statuses[0].IsClean())
}

func TestScanReportsUnavailableVersionControl(testInstance *testing.T) {
	repositoryDirectory := newRepositoryDirectory(testInstance, testInstance.TempDir(), "cli")
	executor := &fleetGitExecutor{fallback: execshell.CommandExecutionError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Cause:   exec.ErrNotFound,
	}}
	service := newFleetService(testInstance, executor, 1)

	statuses, scanError := service.Scan(context.Background(), []string{repositoryDirectory})
	require.NoError(testInstance, scanError)
	require.Len(testInstance, statuses, 1)
	require.True(testInstance, statuses[0].IsRepository)
	require.NotEmpty(testInstance, statuses[0].ProbeError)
	require.Empty(testInstance, statuses[0].CurrentBranch)
	require.Empty(testInstance, statuses[0].FileChanges)
	require.Len(testInstance, executor.calls(), 1)
}

func TestScanStopsOnTimedOutQuery(testInstance *testing.T) {
	testCases := []struct {
		name          string
		outputs       map[string]string
		failures      map[string]error
		fallback      error
		expectedCalls int
	}{
		{
			name:          "first_query",
			fallback:      timedOutExecution(),
			expectedCalls: 1,
		},
		{
			name:          "branch_query",
			failures:      map[string]error{"rev-parse --abbrev-ref HEAD": timedOutExecution()},
			expectedCalls: 3,
		},
		{
			name:          "file_diff",
			outputs:       map[string]string{"status --porcelain": " M server.go\n M client.go\n"},
			failures:      map[string]error{"diff --no-prefix -- server.go": timedOutExecution()},
			expectedCalls: 6,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			repositoryDirectory := newRepositoryDirectory(testInstance, testInstance.TempDir(), "stuck")
			executor := &fleetGitExecutor{
				outputs:  map[string]string{},
				failures: map[string]error{},
				fallback: testCase.fallback,
			}
			for arguments, output := range testCase.outputs {
				executor.outputs[repositoryDirectory+"|"+arguments] = output
			}
			for arguments, failure := range testCase.failures {
				executor.failures[repositoryDirectory+"|"+arguments] = failure
			}
			service := newFleetService(testInstance, executor, 1)

			statuses, scanError := service.Scan(context.Background(), []string{repositoryDirectory})
			require.NoError(testInstance, scanError)
			require.Len(testInstance, statuses, 1)
			require.True(testInstance, statuses[0].IsRepository)
			require.Contains(testInstance, statuses[0].ProbeError, execshell.ErrCommandTimedOut.Error())
			require.Empty(testInstance, statuses[0].FileChanges)
			require.False(testInstance, statuses[0].IsClean())
			require.Len(testInstance, executor.calls(), testCase.expectedCalls)
		})
	}
}

func TestScanKeepsRepositoryVerdictWhenProbePanics(testInstance *testing.T) {
	repositoryDirectory := newRepositoryDirectory(testInstance, testInstance.TempDir(), "api")
	adapter, adapterError := vcs.NewAdapter(panickingGitExecutor{}, "origin")
	require.NoError(testInstance, adapterError)
	service, serviceError := fleet.NewService(fleet.Dependencies{Logger: zap.NewNop(), Repository: adapter, Concurrency: 1})
	require.NoError(testInstance, serviceError)

	statuses, scanError := service.Scan(context.Background(), []string{repositoryDirectory})
	require.NoError(testInstance, scanError)
	require.Len(testInstance, statuses, 1)
	require.True(testInstance, statuses[0].IsRepository)
	require.Contains(testInstance, statuses[0].ProbeError, "git runner crashed")
	require.Equal(testInstance, "api", statuses[0].Name)
}

func TestBatchOperationsRejectEmptyDirectoryList(testInstance *testing.T) {
	service := newFleetService(testInstance, &fleetGitExecutor{}, 1)
	executionContext := context.Background()

	_, scanError := service.Scan(executionContext, nil)
	require.ErrorIs(testInstance, scanError, fleet.ErrNoDirectories)

	_, checkError := service.CheckUpdatesBatch(executionContext, []string{})
	require.ErrorIs(testInstance, checkError, fleet.ErrNoDirectories)

	_, pullError := service.PullBatch(executionContext, nil)
	require.ErrorIs(testInstance, pullError, fleet.ErrNoDirectories)

	_, commitError := service.CommitAndPush(executionContext, nil, testCommitMessageConstant)
	require.ErrorIs(testInstance, commitError, fleet.ErrNoDirectories)

	exportResult := service.ExportDependencies(executionContext, fleet.ExportOptions{})
	require.False(testInstance, exportResult.Success)
	require.Equal(testInstance, fleet.ErrNoDirectories.Error(), exportResult.Error)
}

func TestCheckUpdates(testInstance *testing.T) {
	const directory = "/workspace/api"
	testCases := []struct {
		name     string
		outputs  map[string]string
		failures map[string]error
		expected fleet.UpdateCheckResult
	}{
		{
			name: "up_to_date",
			outputs: map[string]string{
				directory + "|rev-parse --abbrev-ref HEAD":        "main\n",
				directory + "|rev-list --count HEAD..origin/main": "0\n",
			},
			expected: fleet.UpdateCheckResult{Path: directory, Branch: "main", Success: true, AheadCount: 0, Message: "up to date"},
		},
		{
			name: "behind_remote",
			outputs: map[string]string{
				directory + "|rev-parse --abbrev-ref HEAD":        "main\n",
				directory + "|rev-list --count HEAD..origin/main": "3\n",
			},
			expected: fleet.UpdateCheckResult{Path: directory, Branch: "main", Success: true, AheadCount: 3, Message: "3 incoming commit(s) on origin/main"},
		},
		{
			name: "detached_head",
			outputs: map[string]string{
				directory + "|rev-parse --abbrev-ref HEAD": "HEAD\n",
			},
			expected: fleet.UpdateCheckResult{Path: directory, Success: false, Message: "detached HEAD"},
		},
		{
			name: "fetch_failure",
			failures: map[string]error{
				directory + "|fetch origin": commandFailure("fatal: could not read from remote repository\n"),
			},
			expected: fleet.UpdateCheckResult{Path: directory, Success: false, Message: "fetch failed: fatal: could not read from remote repository"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &fleetGitExecutor{outputs: testCase.outputs, failures: testCase.failures}
			service := newFleetService(testInstance, executor, 1)
			require.Equal(testInstance, testCase.expected, service.CheckUpdates(context.Background(), directory))
		})
	}
}

func TestPullBatchReportsEachDirectory(testInstance *testing.T) {
	executor := &fleetGitExecutor{
		outputs: map[string]string{
			"/workspace/api|pull": "Fast-forward\n server.go | 2 +-\n",
		},
		failures: map[string]error{
			"/workspace/web|pull": commandFailure("error: Your local changes would be overwritten by merge"),
		},
	}
	service := newFleetService(testInstance, executor, 2)

	results, pullError := service.PullBatch(context.Background(), []string{"/workspace/api", "/workspace/web", "/workspace/docs"})
	require.NoError(testInstance, pullError)
	require.Equal(testInstance, []fleet.OperationResult{
		{Path: "/workspace/api", Success: true, Message: "Fast-forward\n server.go | 2 +-"},
		{Path: "/workspace/web", Success: false, Message: "pull failed: error: Your local changes would be overwritten by merge"},
		{Path: "/workspace/docs", Success: true, Message: "pulled"},
	}, results)

	require.Equal(testInstance, fleet.OperationResult{Path: "/workspace/api", Success: true, Message: "Fast-forward\n server.go | 2 +-"}, service.Pull(context.Background(), "/workspace/api"))
}

func TestCommitAndPushRejectsBlankMessage(testInstance *testing.T) {
	executor := &fleetGitExecutor{}
	service := newFleetService(testInstance, executor, 1)

	results, commitError := service.CommitAndPush(context.Background(), []string{"/workspace/api"}, " \t\n ")
	require.ErrorIs(testInstance, commitError, fleet.ErrCommitMessageRequired)
	require.Nil(testInstance, results)
	require.Empty(testInstance, executor.calls())
}

func TestCommitAndPushIsolatesDirectories(testInstance *testing.T) {
	executor := &fleetGitExecutor{
		failures: map[string]error{
			"/workspace/web|commit -m " + testCommitMessageConstant: commandFailure("nothing to commit, working tree clean"),
			"/workspace/cli|push origin HEAD":                       commandFailure("! [rejected] main -> main (fetch first)"),
			"/workspace/ops|add --all":                              commandFailure("fatal: Unable to create '.git/index.lock': File exists."),
		},
	}
	service := newFleetService(testInstance, executor, 3)

	results, commitError := service.CommitAndPush(context.Background(), []string{"/workspace/api", "/workspace/web", "/workspace/cli", "/workspace/ops"}, "  "+testCommitMessageConstant+"  ")
	require.NoError(testInstance, commitError)
	require.Equal(testInstance, []fleet.OperationResult{
		{Path: "/workspace/api", Success: true, Message: "committed and pushed to origin"},
		{Path: "/workspace/web", Success: false, Message: "commit failed: nothing to commit, working tree clean"},
		{Path: "/workspace/cli", Success: false, Message: "push failed: ! [rejected] main -> main (fetch first)"},
		{Path: "/workspace/ops", Success: false, Message: "stage failed: fatal: Unable to create '.git/index.lock': File exists."},
	}, results)

	calls := executor.calls()
	require.Contains(testInstance, calls, "/workspace/api|push origin HEAD")
	require.Contains(testInstance, calls, "/workspace/cli|commit -m "+testCommitMessageConstant)
	require.NotContains(testInstance, calls, "/workspace/web|push origin HEAD")
	require.NotContains(testInstance, calls, "/workspace/ops|commit -m "+testCommitMessageConstant)
	require.NotContains(testInstance, calls, "/workspace/ops|push origin HEAD")
}
