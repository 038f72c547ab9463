package fleet

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchOperation names the work fanned out by a batch.
type BatchOperation string

// Batch operations reported to observers.
const (
	BatchOperationScan           BatchOperation = "scan"
	BatchOperationCheckUpdates   BatchOperation = "check_updates"
	BatchOperationPull           BatchOperation = "pull"
	BatchOperationCommitPush     BatchOperation = "commit_push"
	BatchOperationRegistryLookup BatchOperation = "registry_lookup"
)

const (
	maximumDefaultConcurrencyConstant = 8
	unitPanicMessageTemplateConstant  = "unexpected failure: %v"
)

// BatchDescriptor identifies one fan-out.
type BatchDescriptor struct {
	ID          string
	Operation   BatchOperation
	UnitCount   int
	Concurrency int
}

// UnitOutcome describes how a single unit of a batch finished.
type UnitOutcome struct {
	Index    int
	Unit     string
	Success  bool
	Message  string
	Duration time.Duration
}

// BatchObserver receives lifecycle notifications for batches and their units.
// Unit callbacks run on worker goroutines and must be safe for concurrent use.
type BatchObserver interface {
	BatchStarted(batch BatchDescriptor)
	UnitStarted(batch BatchDescriptor, index int, unit string)
	UnitFinished(batch BatchDescriptor, outcome UnitOutcome)
	BatchFinished(batch BatchDescriptor, duration time.Duration)
}

type noopBatchObserver struct{}

func (noopBatchObserver) BatchStarted(BatchDescriptor) {}
func (noopBatchObserver) UnitStarted(BatchDescriptor, int, string) {}
func (noopBatchObserver) UnitFinished(BatchDescriptor, UnitOutcome) {}
func (noopBatchObserver) BatchFinished(BatchDescriptor, time.Duration) {}

// MultiObserver fans notifications out to every non-nil observer in order.
type MultiObserver []BatchObserver

// BatchStarted notifies every observer.
func (observers MultiObserver) BatchStarted(batch BatchDescriptor) {
	for _, observer := range observers {
		if observer != nil {
			observer.BatchStarted(batch)
		}
	}
}

// UnitStarted notifies every observer.
func (observers MultiObserver) UnitStarted(batch BatchDescriptor, index int, unit string) {
	for _, observer := range observers {
		if observer != nil {
			observer.UnitStarted(batch, index, unit)
		}
	}
}

// UnitFinished notifies every observer.
func (observers MultiObserver) UnitFinished(batch BatchDescriptor, outcome UnitOutcome) {
	for _, observer := range observers {
		if observer != nil {
			observer.UnitFinished(batch, outcome)
		}
	}
}

// BatchFinished notifies every observer.
func (observers MultiObserver) BatchFinished(batch BatchDescriptor, duration time.Duration) {
	for _, observer := range observers {
		if observer != nil {
			observer.BatchFinished(batch, duration)
		}
	}
}

// ResolveConcurrency returns requested when positive, otherwise the CPU count capped at eight.
func ResolveConcurrency(requested int) int {
	if requested > 0 {
		return requested
	}
	available := runtime.NumCPU()
	if available < 1 {
		return 1
	}
	if available > maximumDefaultConcurrencyConstant {
		return maximumDefaultConcurrencyConstant
	}
	return available
}

// Reportable is implemented by batch results so observers can classify each unit.
type Reportable interface {
	Succeeded() bool
	Summary() string
}

// Worker computes the result for one unit. A returned error is converted by the
// batch's FailureBuilder into a failure-shaped result for that unit only.
type Worker[Unit any, Result Reportable] func(executionContext context.Context, unit Unit) (Result, error)

// FailureBuilder shapes a worker error or panic into the unit's result.
type FailureBuilder[Unit any, Result Reportable] func(unit Unit, failure error) Result

// Batch configures one bounded fan-out.
type Batch struct {
	Operation   BatchOperation
	Concurrency int
	Observer    BatchObserver
}

// RunBounded executes worker over units with at most Batch.Concurrency units in flight.
// results[i] always corresponds to units[i]; a unit failing never cancels the others.
func RunBounded[Unit any, Result Reportable](
	executionContext context.Context,
	batch Batch,
	units []Unit,
	worker Worker[Unit, Result],
	failure FailureBuilder[Unit, Result],
) []Result {
	observer := batch.Observer
	if observer == nil {
		observer = noopBatchObserver{}
	}
	resolvedConcurrency := ResolveConcurrency(batch.Concurrency)
	descriptor := BatchDescriptor{
		ID:          uuid.NewString(),
		Operation:   batch.Operation,
		UnitCount:   len(units),
		Concurrency: resolvedConcurrency,
	}

	results := make([]Result, len(units))
	batchStarted := time.Now()
	observer.BatchStarted(descriptor)

	var group errgroup.Group
	group.SetLimit(resolvedConcurrency)
	for index, unit := range units {
		group.Go(func() error {
			unitLabel := fmt.Sprint(unit)
			observer.UnitStarted(descriptor, index, unitLabel)
			unitStarted := time.Now()
			results[index] = runUnit(executionContext, unit, worker, failure)
			observer.UnitFinished(descriptor, UnitOutcome{
				Index:    index,
				Unit:     unitLabel,
				Success:  results[index].Succeeded(),
				Message:  results[index].Summary(),
				Duration: time.Since(unitStarted),
			})
			return nil
		})
	}
	_ = group.Wait()

	observer.BatchFinished(descriptor, time.Since(batchStarted))
	return results
}

func runUnit[Unit any, Result Reportable](executionContext context.Context, unit Unit, worker Worker[Unit, Result], failure FailureBuilder[Unit, Result]) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = failure(unit, fmt.Errorf(unitPanicMessageTemplateConstant, recovered))
		}
	}()
	computed, workError := worker(executionContext, unit)
	if workError != nil {
		return failure(unit, workError)
	}
	return computed
}
