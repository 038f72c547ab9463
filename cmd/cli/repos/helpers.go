package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fulutas/stackmit-app/internal/execshell"
	"github.com/fulutas/stackmit-app/internal/fleet"
	"github.com/fulutas/stackmit-app/internal/registry"
	"github.com/fulutas/stackmit-app/internal/repos/dependencies"
	"github.com/fulutas/stackmit-app/internal/repos/shared"
	"github.com/fulutas/stackmit-app/internal/ui"
	flagutils "github.com/fulutas/stackmit-app/internal/utils/flags"
	pathutils "github.com/fulutas/stackmit-app/internal/utils/path"
)

const (
	discoveryErrorTemplateConstant   = "unable to discover repositories: %w"
	renderErrorTemplateConstant      = "unable to render results: %w"
	jsonIndentConstant               = "  "
	yamlIndentConstant               = 2
	directoryArgumentsUseConstant    = " [directory...]"
	logFieldDirectoryCountConstant   = "directory_count"
	selectionResolvedMessageConstant = "Resolved directory selection"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider yields the loaded fleet configuration.
type ConfigurationProvider func() ToolsConfiguration

// BatchObserverProvider yields the observer notified about every batch a command runs.
type BatchObserverProvider func() fleet.BatchObserver

// CommandDependencies carries the collaborators shared by the fleet commands.
// Zero fields fall back to the operating system implementations.
type CommandDependencies struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ObserverProvider      BatchObserverProvider
	GitExecutor           shared.GitExecutor
	Discoverer            shared.RepositoryDiscoverer
	FileSystem            shared.FileSystem
	VersionLookup         fleet.VersionLookup
	Clock                 shared.Clock
	DirectorySelection    *pathutils.DirectorySelection
}

func (commandDependencies CommandDependencies) logger() *zap.Logger {
	if commandDependencies.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := commandDependencies.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (commandDependencies CommandDependencies) configuration() ToolsConfiguration {
	if commandDependencies.ConfigurationProvider == nil {
		return DefaultToolsConfiguration()
	}
	return commandDependencies.ConfigurationProvider().sanitize()
}

func (commandDependencies CommandDependencies) observer() fleet.BatchObserver {
	if commandDependencies.ObserverProvider == nil {
		return ui.NewConsoleBatchEventLogger(commandDependencies.logger())
	}
	return commandDependencies.ObserverProvider()
}

// buildService assembles the engine for one command invocation.
func (commandDependencies CommandDependencies) buildService(configuration ToolsConfiguration) (*fleet.Service, error) {
	logger := commandDependencies.logger()

	gitExecutor, executorError := dependencies.ResolveGitExecutor(
		commandDependencies.GitExecutor,
		logger,
		execshell.WithCommandTimeout(configuration.Engine.VCSTimeout),
		execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)),
	)
	if executorError != nil {
		return nil, executorError
	}

	adapter, adapterError := dependencies.ResolveVersionControlAdapter(gitExecutor, configuration.Engine.Remote)
	if adapterError != nil {
		return nil, adapterError
	}

	versionLookup := commandDependencies.VersionLookup
	if versionLookup == nil {
		versionLookup = registry.NewClient(configuration.Registry, logger)
	}

	return fleet.NewService(fleet.Dependencies{
		Logger:      logger,
		Repository:  adapter,
		FileSystem:  dependencies.ResolveFileSystem(commandDependencies.FileSystem),
		Registry:    versionLookup,
		Observer:    commandDependencies.observer(),
		Clock:       commandDependencies.Clock,
		Concurrency: configuration.Engine.Concurrency,
	})
}

// selectDirectories resolves the directories a command works on: the arguments,
// or the configured roots when there are none. With recursive set the selection
// is replaced by the repositories discovered beneath it.
func (commandDependencies CommandDependencies) selectDirectories(arguments []string, configuredRoots []string, recursive bool) ([]string, error) {
	candidates := arguments
	if len(candidates) == 0 {
		candidates = configuredRoots
	}

	selected := commandDependencies.DirectorySelection.Normalize(candidates)
	if recursive && len(selected) > 0 {
		discoverer := dependencies.ResolveRepositoryDiscoverer(commandDependencies.Discoverer)
		discovered, discoveryError := discoverer.DiscoverRepositories(selected)
		if discoveryError != nil {
			return nil, fmt.Errorf(discoveryErrorTemplateConstant, discoveryError)
		}
		selected = discovered
	}

	commandDependencies.logger().Debug(selectionResolvedMessageConstant, zap.Int(logFieldDirectoryCountConstant, len(selected)))
	return selected, nil
}

func writeResults(writer io.Writer, outputFormat string, results any) error {
	var encodeError error
	switch outputFormat {
	case flagutils.OutputFormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		encodeError = encoder.Encode(results)
	default:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndentConstant)
		encodeError = encoder.Encode(results)
		if closeError := encoder.Close(); encodeError == nil {
			encodeError = closeError
		}
	}
	if encodeError != nil {
		return fmt.Errorf(renderErrorTemplateConstant, encodeError)
	}
	return nil
}

func bindDirectoryCommand(command *cobra.Command) *flagutils.SelectionFlagValues {
	command.Use += directoryArgumentsUseConstant
	return flagutils.BindSelectionFlags(command, flagutils.SelectionFlagValues{})
}

// directoryOperation runs one engine operation over the selected directories.
type directoryOperation[Result any] func(executionContext context.Context, service *fleet.Service, directories []string) ([]Result, error)

func runDirectoryOperation[Result any](command *cobra.Command, arguments []string, selectionFlags *flagutils.SelectionFlagValues, commandDependencies CommandDependencies, operation directoryOperation[Result]) error {
	configuration := commandDependencies.configuration()
	directories, selectionError := commandDependencies.selectDirectories(arguments, configuration.Engine.Roots, selectionFlags.Recursive)
	if selectionError != nil {
		return selectionError
	}

	service, serviceError := commandDependencies.buildService(configuration)
	if serviceError != nil {
		return serviceError
	}

	results, operationError := operation(command.Context(), service, directories)
	if operationError != nil {
		return operationError
	}
	return writeResults(command.OutOrStdout(), selectionFlags.Output.Value(), results)
}
