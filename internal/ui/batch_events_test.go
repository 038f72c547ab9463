package ui_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fulutas/stackmit-app/internal/fleet"
	"github.com/fulutas/stackmit-app/internal/ui"
)

func TestConsoleBatchEventLoggerSummarizesBatch(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	eventLogger := ui.NewConsoleBatchEventLogger(zap.New(observerCore))

	batch := fleet.BatchDescriptor{ID: "batch-1", Operation: fleet.BatchOperationPull, UnitCount: 3, Concurrency: 2}
	eventLogger.BatchStarted(batch)
	eventLogger.UnitStarted(batch, 0, "/workspace/api")
	eventLogger.UnitFinished(batch, fleet.UnitOutcome{Index: 0, Unit: "/workspace/api", Success: true, Message: "pulled"})
	eventLogger.UnitFinished(batch, fleet.UnitOutcome{Index: 1, Unit: "/workspace/web", Success: false, Message: "pull failed: merge conflict"})
	eventLogger.UnitFinished(batch, fleet.UnitOutcome{Index: 2, Unit: "/workspace/cli", Success: true, Message: "pulled"})
	eventLogger.BatchFinished(batch, 1500*time.Millisecond)

	entries := observedLogs.All()
	require.Len(testInstance, entries, 5)
	require.Equal(testInstance, "Starting pull across 3 unit(s) with concurrency 2", entries[0].Message)
	require.Equal(testInstance, zapcore.DebugLevel, entries[0].Level)
	require.Equal(testInstance, "/workspace/api: pulled", entries[1].Message)
	require.Equal(testInstance, zapcore.WarnLevel, entries[2].Level)
	require.Equal(testInstance, "/workspace/web failed: pull failed: merge conflict", entries[2].Message)
	require.Equal(testInstance, zapcore.InfoLevel, entries[4].Level)
	require.Equal(testInstance, "Finished pull: 2 succeeded, 1 failed in 1.5s", entries[4].Message)
	require.Equal(testInstance, "batch-1", entries[4].ContextMap()["batch_id"])
}
