package repos

import (
	"strings"
	"time"

	"github.com/fulutas/stackmit-app/internal/registry"
	"github.com/fulutas/stackmit-app/internal/repos/shared"
)

const (
	engineConfigurationKeyConstant      = "engine"
	registryConfigurationKeyConstant    = "registry"
	exportConfigurationKeyConstant      = "export"
	configurationConcurrencyKeyConstant = "concurrency"
	configurationVCSTimeoutKeyConstant  = "vcs_timeout"
	configurationRemoteKeyConstant      = "remote"
	configurationRootsKeyConstant       = "roots"
	configurationBaseURLKeyConstant     = "base_url"
	configurationTimeoutKeyConstant     = "timeout"
	configurationRetriesKeyConstant     = "retries"
	configurationFormatKeyConstant      = "format"
	configurationDestinationKeyConstant = "destination"
	configurationKeySeparatorConstant   = "."
	defaultVCSTimeoutConstant           = 60 * time.Second
)

// ToolsConfiguration groups the configuration sections read by the fleet commands.
type ToolsConfiguration struct {
	Engine   EngineConfiguration    `mapstructure:"engine"`
	Registry registry.Configuration `mapstructure:"registry"`
	Export   ExportConfiguration    `mapstructure:"export"`
}

// EngineConfiguration controls how git work is scheduled.
// Concurrency 0 selects the CPU-derived default.
type EngineConfiguration struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=0,lte=64"`
	VCSTimeout  time.Duration `mapstructure:"vcs_timeout" validate:"gt=0"`
	Remote      string        `mapstructure:"remote" validate:"required"`
	Roots       []string      `mapstructure:"roots"`
}

// ExportConfiguration supplies dependency export defaults.
type ExportConfiguration struct {
	Format      string `mapstructure:"format" validate:"omitempty,oneof=xlsx csv"`
	Destination string `mapstructure:"destination"`
}

// DefaultToolsConfiguration returns the values used when nothing is configured.
func DefaultToolsConfiguration() ToolsConfiguration {
	return ToolsConfiguration{
		Engine: EngineConfiguration{
			Concurrency: 0,
			VCSTimeout:  defaultVCSTimeoutConstant,
			Remote:      shared.OriginRemoteNameConstant,
			Roots:       []string{},
		},
		Registry: registry.DefaultConfiguration(),
		Export:   ExportConfiguration{},
	}
}

// DefaultConfigurationValues produces Viper defaults for the fleet command sections.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultToolsConfiguration()
	values := make(map[string]any)
	values[configurationKey(engineConfigurationKeyConstant, configurationConcurrencyKeyConstant)] = defaults.Engine.Concurrency
	values[configurationKey(engineConfigurationKeyConstant, configurationVCSTimeoutKeyConstant)] = defaults.Engine.VCSTimeout
	values[configurationKey(engineConfigurationKeyConstant, configurationRemoteKeyConstant)] = defaults.Engine.Remote
	values[configurationKey(engineConfigurationKeyConstant, configurationRootsKeyConstant)] = defaults.Engine.Roots
	values[configurationKey(registryConfigurationKeyConstant, configurationBaseURLKeyConstant)] = defaults.Registry.BaseURL
	values[configurationKey(registryConfigurationKeyConstant, configurationTimeoutKeyConstant)] = defaults.Registry.Timeout
	values[configurationKey(registryConfigurationKeyConstant, configurationRetriesKeyConstant)] = defaults.Registry.Retries
	values[configurationKey(exportConfigurationKeyConstant, configurationFormatKeyConstant)] = defaults.Export.Format
	values[configurationKey(exportConfigurationKeyConstant, configurationDestinationKeyConstant)] = defaults.Export.Destination
	return values
}

func configurationKey(section string, key string) string {
	return section + configurationKeySeparatorConstant + key
}

// sanitize trims free-form values and restores defaults for blank required ones.
func (configuration ToolsConfiguration) sanitize() ToolsConfiguration {
	defaults := DefaultToolsConfiguration()
	sanitized := configuration
	sanitized.Engine.Remote = strings.TrimSpace(configuration.Engine.Remote)
	if len(sanitized.Engine.Remote) == 0 {
		sanitized.Engine.Remote = defaults.Engine.Remote
	}
	if sanitized.Engine.VCSTimeout <= 0 {
		sanitized.Engine.VCSTimeout = defaults.Engine.VCSTimeout
	}
	sanitized.Engine.Roots = append([]string{}, configuration.Engine.Roots...)
	sanitized.Export.Format = strings.ToLower(strings.TrimSpace(configuration.Export.Format))
	sanitized.Export.Destination = strings.TrimSpace(configuration.Export.Destination)
	return sanitized
}
