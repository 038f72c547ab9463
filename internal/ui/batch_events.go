package ui

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fulutas/stackmit-app/internal/fleet"
)

const (
	batchStartedMessageTemplateConstant  = "Starting %s across %d unit(s) with concurrency %d"
	unitSucceededMessageTemplateConstant = "%s: %s"
	unitFailedMessageTemplateConstant    = "%s failed: %s"
	batchFinishedMessageTemplateConstant = "Finished %s: %d succeeded, %d failed in %s"
	batchIdentifierFieldNameConstant     = "batch_id"
	unitIndexFieldNameConstant           = "index"
)

type batchTally struct {
	succeeded int
	failed    int
}

// ConsoleBatchEventLogger reports fleet batch progress to the operator.
type ConsoleBatchEventLogger struct {
	logger  *zap.Logger
	mutex   sync.Mutex
	tallies map[string]*batchTally
}

var _ fleet.BatchObserver = (*ConsoleBatchEventLogger)(nil)

// NewConsoleBatchEventLogger constructs a batch event logger.
func NewConsoleBatchEventLogger(logger *zap.Logger) *ConsoleBatchEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleBatchEventLogger{logger: logger, tallies: map[string]*batchTally{}}
}

// BatchStarted implements fleet.BatchObserver.
func (eventLogger *ConsoleBatchEventLogger) BatchStarted(batch fleet.BatchDescriptor) {
	eventLogger.mutex.Lock()
	eventLogger.tallies[batch.ID] = &batchTally{}
	eventLogger.mutex.Unlock()

	eventLogger.logger.Debug(
		fmt.Sprintf(batchStartedMessageTemplateConstant, batch.Operation, batch.UnitCount, batch.Concurrency),
		zap.String(batchIdentifierFieldNameConstant, batch.ID),
	)
}

// UnitStarted implements fleet.BatchObserver.
func (eventLogger *ConsoleBatchEventLogger) UnitStarted(fleet.BatchDescriptor, int, string) {}

// UnitFinished implements fleet.BatchObserver.
func (eventLogger *ConsoleBatchEventLogger) UnitFinished(batch fleet.BatchDescriptor, outcome fleet.UnitOutcome) {
	eventLogger.mutex.Lock()
	tally, tracked := eventLogger.tallies[batch.ID]
	if tracked {
		if outcome.Success {
			tally.succeeded++
		} else {
			tally.failed++
		}
	}
	eventLogger.mutex.Unlock()

	if outcome.Success {
		eventLogger.logger.Debug(
			fmt.Sprintf(unitSucceededMessageTemplateConstant, outcome.Unit, outcome.Message),
			zap.String(batchIdentifierFieldNameConstant, batch.ID),
			zap.Int(unitIndexFieldNameConstant, outcome.Index),
		)
		return
	}
	eventLogger.logger.Warn(
		fmt.Sprintf(unitFailedMessageTemplateConstant, outcome.Unit, outcome.Message),
		zap.String(batchIdentifierFieldNameConstant, batch.ID),
		zap.Int(unitIndexFieldNameConstant, outcome.Index),
	)
}

// BatchFinished implements fleet.BatchObserver.
func (eventLogger *ConsoleBatchEventLogger) BatchFinished(batch fleet.BatchDescriptor, duration time.Duration) {
	eventLogger.mutex.Lock()
	tally, tracked := eventLogger.tallies[batch.ID]
	delete(eventLogger.tallies, batch.ID)
	eventLogger.mutex.Unlock()
	if !tracked {
		tally = &batchTally{}
	}

	eventLogger.logger.Info(
		fmt.Sprintf(batchFinishedMessageTemplateConstant, batch.Operation, tally.succeeded, tally.failed, duration.Round(time.Millisecond)),
		zap.String(batchIdentifierFieldNameConstant, batch.ID),
	)
}
