package fleet_test

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fulutas/stackmit-app/internal/fleet"
)

type unitReport struct {
	Unit    int
	Success bool
	Message string
}

func (report unitReport) Succeeded() bool {
	return report.Success
}

func (report unitReport) Summary() string {
	return report.Message
}

func failedUnitReport(unit int, failure error) unitReport {
	return unitReport{Unit: unit, Success: false, Message: failure.Error()}
}

type recordingBatchObserver struct {
	mutex    sync.Mutex
	batches  []fleet.BatchDescriptor
	started  []int
	outcomes []fleet.UnitOutcome
	finished int
}

func (observer *recordingBatchObserver) BatchStarted(batch fleet.BatchDescriptor) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	observer.batches = append(observer.batches, batch)
}

func (observer *recordingBatchObserver) UnitStarted(_ fleet.BatchDescriptor, index int, _ string) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	observer.started = append(observer.started, index)
}

func (observer *recordingBatchObserver) UnitFinished(_ fleet.BatchDescriptor, outcome fleet.UnitOutcome) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	observer.outcomes = append(observer.outcomes, outcome)
}

func (observer *recordingBatchObserver) BatchFinished(fleet.BatchDescriptor, time.Duration) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	observer.finished++
}

func sequentialUnits(count int) []int {
	units := make([]int, count)
	for index := range units {
		units[index] = index
	}
	return units
}

func TestRunBoundedPreservesInputOrder(testInstance *testing.T) {
	units := sequentialUnits(24)
	results := fleet.RunBounded(context.Background(), fleet.Batch{Operation: fleet.BatchOperationScan, Concurrency: 6}, units,
		func(_ context.Context, unit int) (unitReport, error) {
			time.Sleep(time.Duration(len(units)-unit) * time.Millisecond)
			return unitReport{Unit: unit, Success: true, Message: fmt.Sprintf("unit-%d", unit)}, nil
		},
		failedUnitReport,
	)

	require.Len(testInstance, results, len(units))
	for index, result := range results {
		require.Equal(testInstance, index, result.Unit)
		require.Equal(testInstance, fmt.Sprintf("unit-%d", index), result.Message)
	}
}

func TestRunBoundedRespectsConcurrencyLimit(testInstance *testing.T) {
	const concurrencyLimit = 3
	var inFlight atomic.Int32
	var peak atomic.Int32

	results := fleet.RunBounded(context.Background(), fleet.Batch{Operation: fleet.BatchOperationPull, Concurrency: concurrencyLimit}, sequentialUnits(20),
		func(_ context.Context, unit int) (unitReport, error) {
			current := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return unitReport{Unit: unit, Success: true}, nil
		},
		failedUnitReport,
	)

	require.Len(testInstance, results, 20)
	require.LessOrEqual(testInstance, peak.Load(), int32(concurrencyLimit))
	require.GreaterOrEqual(testInstance, peak.Load(), int32(1))
}

func TestRunBoundedIsolatesUnitFailures(testInstance *testing.T) {
	observer := &recordingBatchObserver{}
	results := fleet.RunBounded(context.Background(), fleet.Batch{Operation: fleet.BatchOperationCommitPush, Concurrency: 2, Observer: observer}, sequentialUnits(4),
		func(_ context.Context, unit int) (unitReport, error) {
			switch unit {
			case 1:
				return unitReport{}, errors.New("push rejected")
			case 2:
				panic("corrupted index")
			default:
				return unitReport{Unit: unit, Success: true, Message: "ok"}, nil
			}
		},
		failedUnitReport,
	)

	require.Equal(testInstance, []unitReport{
		{Unit: 0, Success: true, Message: "ok"},
		{Unit: 1, Success: false, Message: "push rejected"},
		{Unit: 2, Success: false, Message: "unexpected failure: corrupted index"},
		{Unit: 3, Success: true, Message: "ok"},
	}, results)

	require.Len(testInstance, observer.batches, 1)
	require.NotEmpty(testInstance, observer.batches[0].ID)
	require.Equal(testInstance, fleet.BatchOperationCommitPush, observer.batches[0].Operation)
	require.Equal(testInstance, 4, observer.batches[0].UnitCount)
	require.Equal(testInstance, 2, observer.batches[0].Concurrency)
	require.ElementsMatch(testInstance, []int{0, 1, 2, 3}, observer.started)
	require.Len(testInstance, observer.outcomes, 4)
	require.Equal(testInstance, 1, observer.finished)

	failures := 0
	for _, outcome := range observer.outcomes {
		if !outcome.Success {
			failures++
		}
	}
	require.Equal(testInstance, 2, failures)
}

func TestMultiObserverFansOut(testInstance *testing.T) {
	first := &recordingBatchObserver{}
	second := &recordingBatchObserver{}
	fleet.RunBounded(context.Background(), fleet.Batch{Operation: fleet.BatchOperationScan, Observer: fleet.MultiObserver{first, nil, second}}, sequentialUnits(3),
		func(_ context.Context, unit int) (unitReport, error) {
			return unitReport{Unit: unit, Success: true}, nil
		},
		failedUnitReport,
	)

	for _, observer := range []*recordingBatchObserver{first, second} {
		require.Len(testInstance, observer.batches, 1)
		require.Len(testInstance, observer.outcomes, 3)
		require.Equal(testInstance, 1, observer.finished)
	}
	require.Equal(testInstance, first.batches[0].ID, second.batches[0].ID)
}

func TestResolveConcurrency(testInstance *testing.T) {
	require.Equal(testInstance, 5, fleet.ResolveConcurrency(5))
	require.Equal(testInstance, 32, fleet.ResolveConcurrency(32))

	expectedDefault := runtime.NumCPU()
	if expectedDefault > 8 {
		expectedDefault = 8
	}
	require.Equal(testInstance, expectedDefault, fleet.ResolveConcurrency(0))
	require.Equal(testInstance, expectedDefault, fleet.ResolveConcurrency(-1))
}
