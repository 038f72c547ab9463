package registry

import (
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// leveledLogger routes retryablehttp diagnostics into zap.
type leveledLogger struct {
	logger *zap.SugaredLogger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func newLeveledLogger(logger *zap.Logger) leveledLogger {
	return leveledLogger{logger: logger.Sugar()}
}

// Error is downgraded: a failed attempt is reported once by the client after retries end.
func (adapter leveledLogger) Error(message string, keysAndValues ...interface{}) {
	adapter.logger.Debugw(message, keysAndValues...)
}

func (adapter leveledLogger) Info(message string, keysAndValues ...interface{}) {
	adapter.logger.Debugw(message, keysAndValues...)
}

func (adapter leveledLogger) Debug(message string, keysAndValues ...interface{}) {
	adapter.logger.Debugw(message, keysAndValues...)
}

func (adapter leveledLogger) Warn(message string, keysAndValues ...interface{}) {
	adapter.logger.Warnw(message, keysAndValues...)
}
