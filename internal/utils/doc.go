// Package utils hosts the configuration loader and logger factory shared by the CLI.
//
// ConfigurationLoader layers an embedded YAML document, an optional file and
// prefixed environment variables through Viper, then validates the decoded
// struct. LoggerFactory builds zap loggers for the console or JSON encodings.
package utils
