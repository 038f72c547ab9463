package repos_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fulutas/stackmit-app/cmd/cli/repos"
	"github.com/fulutas/stackmit-app/internal/execshell"
	"github.com/fulutas/stackmit-app/internal/fleet"
)

// scriptedGitExecutor answers git invocations keyed by "<directory>|<arguments>".
type scriptedGitExecutor struct {
	mutex    sync.Mutex
	outputs  map[string]string
	failures map[string]error
	recorded []string
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	key := fmt.Sprintf("%s|%s", details.WorkingDirectory, strings.Join(details.Arguments, " "))
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recorded = append(executor.recorded, key)
	if failure, failing := executor.failures[key]; failing {
		return execshell.ExecutionResult{}, failure
	}
	return execshell.ExecutionResult{StandardOutput: executor.outputs[key]}, nil
}

func (executor *scriptedGitExecutor) calls() []string {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	return append([]string(nil), executor.recorded...)
}

type fakeRepositoryDiscoverer struct {
	repositories  []string
	receivedRoots []string
}

func (discoverer *fakeRepositoryDiscoverer) DiscoverRepositories(roots []string) ([]string, error) {
	discoverer.receivedRoots = append([]string{}, roots...)
	return append([]string{}, discoverer.repositories...), nil
}

type stubVersionLookup struct {
	versions map[string]string
}

func (lookup stubVersionLookup) LatestVersion(_ context.Context, packageName string) (string, bool) {
	version, found := lookup.versions[packageName]
	return version, found
}

type recordingBatchObserver struct {
	mutex      sync.Mutex
	operations []fleet.BatchOperation
}

func (observer *recordingBatchObserver) BatchStarted(batch fleet.BatchDescriptor) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	observer.operations = append(observer.operations, batch.Operation)
}

func (observer *recordingBatchObserver) UnitStarted(fleet.BatchDescriptor, int, string) {}

func (observer *recordingBatchObserver) UnitFinished(fleet.BatchDescriptor, fleet.UnitOutcome) {}

func (observer *recordingBatchObserver) BatchFinished(fleet.BatchDescriptor, time.Duration) {}

func newCommandDependencies(executor *scriptedGitExecutor, configuration repos.ToolsConfiguration) repos.CommandDependencies {
	return repos.CommandDependencies{
		LoggerProvider: func() *zap.Logger {
			return zap.NewNop()
		},
		ConfigurationProvider: func() repos.ToolsConfiguration {
			return configuration
		},
		GitExecutor: executor,
	}
}

func newRepositoryDirectory(testInstance *testing.T, root string, name string) string {
	testInstance.Helper()
	directory := filepath.Join(root, name)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(directory, ".git"), 0o755))
	return directory
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, error) {
	testInstance.Helper()
	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}
