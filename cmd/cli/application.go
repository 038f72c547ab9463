package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/fulutas/stackmit-app/cmd/cli/repos"
	"github.com/fulutas/stackmit-app/internal/fleet"
	"github.com/fulutas/stackmit-app/internal/metrics"
	"github.com/fulutas/stackmit-app/internal/ui"
	"github.com/fulutas/stackmit-app/internal/utils"
)

const (
	applicationNameConstant                 = "stackmit"
	applicationShortDescriptionConstant     = "Run git and dependency chores across many local repositories"
	applicationLongDescriptionConstant      = "stackmit inspects, updates, commits, and audits the npm dependencies of a set of local directories in parallel, reporting every directory's outcome independently."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	concurrencyFlagNameConstant             = "concurrency"
	concurrencyFlagUsageConstant            = "Maximum directories processed at once (0 selects a CPU-based default)."
	metricsTextfileFlagNameConstant         = "metrics-textfile"
	metricsTextfileFlagUsageConstant        = "Write Prometheus metrics for the run to this file."
	environmentPrefixConstant               = "STACKMIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	userConfigurationDirectoryConstant      = ".stackmit"
	defaultConfigurationSearchPathConstant  = "."
	commonLogLevelConfigKeyConstant         = "common.log_level"
	commonLogFormatConfigKeyConstant        = "common.log_format"
	metricsTextfileConfigKeyConstant        = "metrics.textfile"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	metricsWrittenMessageConstant           = "metrics written"
	metricsPathFieldConstant                = "path"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	metricsCollectorErrorTemplateConstant   = "unable to create metrics collector: %w"
	metricsWriteErrorTemplateConstant       = "unable to write metrics: %w"
)

// ApplicationConfiguration describes the persisted configuration for the CLI.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration  `mapstructure:"common"`
	Tools   repos.ToolsConfiguration        `mapstructure:",squash"`
	Metrics ApplicationMetricsConfiguration `mapstructure:"metrics"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=structured console"`
}

// ApplicationMetricsConfiguration controls the Prometheus textfile export.
type ApplicationMetricsConfiguration struct {
	Textfile string `mapstructure:"textfile"`
}

// Application wires the Cobra root command, configuration loader, structured logger, and batch metrics.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	collector             *metrics.Collector
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	concurrencyFlagValue  int
	metricsTextfileValue  string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() (*Application, error) {
	return NewApplicationWithDependencies(repos.CommandDependencies{})
}

// NewApplicationWithDependencies assembles the CLI around the provided collaborators.
// Logger, configuration, and observer providers are always supplied by the application.
func NewApplicationWithDependencies(commandDependencies repos.CommandDependencies) (*Application, error) {
	collector, collectorError := metrics.NewCollector()
	if collectorError != nil {
		return nil, fmt.Errorf(metricsCollectorErrorTemplateConstant, collectorError)
	}

	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		collector:           collector,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		PersistentPostRunE: func(command *cobra.Command, arguments []string) error {
			return application.writeMetrics()
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	persistentFlags.IntVar(&application.concurrencyFlagValue, concurrencyFlagNameConstant, 0, concurrencyFlagUsageConstant)
	persistentFlags.StringVar(&application.metricsTextfileValue, metricsTextfileFlagNameConstant, "", metricsTextfileFlagUsageConstant)

	commandDependencies.LoggerProvider = func() *zap.Logger {
		return application.logger
	}
	commandDependencies.ConfigurationProvider = func() repos.ToolsConfiguration {
		return application.configuration.Tools
	}
	commandDependencies.ObserverProvider = application.batchObserver

	scanBuilder := repos.ScanCommandBuilder{CommandDependencies: commandDependencies}
	checkUpdatesBuilder := repos.CheckUpdatesCommandBuilder{CommandDependencies: commandDependencies}
	pullBuilder := repos.PullCommandBuilder{CommandDependencies: commandDependencies}
	commitBuilder := repos.CommitCommandBuilder{CommandDependencies: commandDependencies}
	exportBuilder := repos.ExportCommandBuilder{CommandDependencies: commandDependencies}

	for _, build := range []func() (*cobra.Command, error){
		scanBuilder.Build,
		checkUpdatesBuilder.Build,
		pullBuilder.Build,
		commitBuilder.Build,
		exportBuilder.Build,
	} {
		subcommand, buildError := build()
		if buildError != nil {
			return nil, buildError
		}
		cobraCommand.AddCommand(subcommand)
	}

	application.rootCommand = cobraCommand
	return application, nil
}

// RootCommand exposes the assembled Cobra hierarchy.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Configuration returns the configuration resolved for the last command.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// Execute runs the command hierarchy under a context cancelled by SIGINT or SIGTERM and flushes the logger.
func (application *Application) Execute() error {
	executionContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	application, applicationError := NewApplication()
	if applicationError != nil {
		return applicationError
	}
	return application.Execute()
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDirectory, userConfigurationDirectoryConstant))
	}
	return searchPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
		metricsTextfileConfigKeyConstant: "",
	}
	for configurationKey, configurationValue := range repos.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if persistentFlagChanged(command, concurrencyFlagNameConstant) {
		application.configuration.Tools.Engine.Concurrency = application.concurrencyFlagValue
	}
	if persistentFlagChanged(command, metricsTextfileFlagNameConstant) {
		application.configuration.Metrics.Textfile = application.metricsTextfileValue
	}

	logLevel, levelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if levelError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, levelError)
	}
	logFormat, formatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if formatError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, formatError)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(logLevel, logFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(logLevel)),
		zap.String(configurationLogFormatFieldConstant, string(logFormat)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
	return nil
}

func (application *Application) batchObserver() fleet.BatchObserver {
	return fleet.MultiObserver{
		ui.NewConsoleBatchEventLogger(application.logger),
		application.collector,
	}
}

func (application *Application) writeMetrics() error {
	textfilePath := application.configuration.Metrics.Textfile
	if len(textfilePath) == 0 {
		return nil
	}
	if writeError := application.collector.WriteTextfile(textfilePath); writeError != nil {
		return fmt.Errorf(metricsWriteErrorTemplateConstant, writeError)
	}
	application.logger.Debug(metricsWrittenMessageConstant, zap.String(metricsPathFieldConstant, textfilePath))
	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
