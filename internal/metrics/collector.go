package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fulutas/stackmit-app/internal/fleet"
)

const (
	namespaceConstant                   = "stackmit"
	subsystemConstant                   = "fleet"
	operationLabelConstant              = "operation"
	outcomeLabelConstant                = "outcome"
	outcomeSuccessConstant              = "success"
	outcomeFailureConstant              = "failure"
	unitsInFlightNameConstant           = "units_in_flight"
	unitsInFlightHelpConstant           = "Units currently executing, by batch operation."
	unitsTotalNameConstant              = "units_total"
	unitsTotalHelpConstant              = "Units completed, by batch operation and outcome."
	unitDurationNameConstant            = "unit_duration_seconds"
	unitDurationHelpConstant            = "Wall time of a single unit, by batch operation."
	batchesTotalNameConstant            = "batches_total"
	batchesTotalHelpConstant            = "Batches started, by operation."
	batchDurationNameConstant           = "batch_duration_seconds"
	batchDurationHelpConstant           = "Wall time of a whole batch, by operation."
	registrationErrorTemplateConstant   = "unable to register %s: %w"
	textfilePathRequiredMessageConstant = "metrics textfile path must not be empty"
	textfileWriteErrorTemplateConstant  = "unable to write metrics to %s: %w"
)

// ErrTextfilePathRequired indicates WriteTextfile was called without a destination.
var ErrTextfilePathRequired = errors.New(textfilePathRequiredMessageConstant)

var _ fleet.BatchObserver = (*Collector)(nil)

// Collector records fleet batch activity as Prometheus metrics on its own registry.
// It satisfies fleet.BatchObserver.
type Collector struct {
	registry      *prometheus.Registry
	unitsInFlight *prometheus.GaugeVec
	unitsTotal    *prometheus.CounterVec
	unitDuration  *prometheus.HistogramVec
	batchesTotal  *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

// NewCollector builds a collector and registers its metrics.
func NewCollector() (*Collector, error) {
	collector := &Collector{
		registry: prometheus.NewRegistry(),
		unitsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespaceConstant,
			Subsystem: subsystemConstant,
			Name:      unitsInFlightNameConstant,
			Help:      unitsInFlightHelpConstant,
		}, []string{operationLabelConstant}),
		unitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceConstant,
			Subsystem: subsystemConstant,
			Name:      unitsTotalNameConstant,
			Help:      unitsTotalHelpConstant,
		}, []string{operationLabelConstant, outcomeLabelConstant}),
		unitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceConstant,
			Subsystem: subsystemConstant,
			Name:      unitDurationNameConstant,
			Help:      unitDurationHelpConstant,
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{operationLabelConstant}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceConstant,
			Subsystem: subsystemConstant,
			Name:      batchesTotalNameConstant,
			Help:      batchesTotalHelpConstant,
		}, []string{operationLabelConstant}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespaceConstant,
			Subsystem: subsystemConstant,
			Name:      batchDurationNameConstant,
			Help:      batchDurationHelpConstant,
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{operationLabelConstant}),
	}

	namedCollectors := map[string]prometheus.Collector{
		unitsInFlightNameConstant: collector.unitsInFlight,
		unitsTotalNameConstant:    collector.unitsTotal,
		unitDurationNameConstant:  collector.unitDuration,
		batchesTotalNameConstant:  collector.batchesTotal,
		batchDurationNameConstant: collector.batchDuration,
	}
	for name, metric := range namedCollectors {
		if registrationError := collector.registry.Register(metric); registrationError != nil {
			return nil, fmt.Errorf(registrationErrorTemplateConstant, name, registrationError)
		}
	}
	return collector, nil
}

// Gatherer exposes the collector's registry.
func (collector *Collector) Gatherer() prometheus.Gatherer {
	return collector.registry
}

// BatchStarted counts the batch.
func (collector *Collector) BatchStarted(batch fleet.BatchDescriptor) {
	collector.batchesTotal.WithLabelValues(string(batch.Operation)).Inc()
}

// UnitStarted marks one more unit in flight.
func (collector *Collector) UnitStarted(batch fleet.BatchDescriptor, _ int, _ string) {
	collector.unitsInFlight.WithLabelValues(string(batch.Operation)).Inc()
}

// UnitFinished records the unit outcome and duration.
func (collector *Collector) UnitFinished(batch fleet.BatchDescriptor, outcome fleet.UnitOutcome) {
	operation := string(batch.Operation)
	collector.unitsInFlight.WithLabelValues(operation).Dec()
	outcomeLabel := outcomeFailureConstant
	if outcome.Success {
		outcomeLabel = outcomeSuccessConstant
	}
	collector.unitsTotal.WithLabelValues(operation, outcomeLabel).Inc()
	collector.unitDuration.WithLabelValues(operation).Observe(outcome.Duration.Seconds())
}

// BatchFinished records the batch duration.
func (collector *Collector) BatchFinished(batch fleet.BatchDescriptor, duration time.Duration) {
	collector.batchDuration.WithLabelValues(string(batch.Operation)).Observe(duration.Seconds())
}

// WriteTextfile writes the current metrics in the node_exporter textfile format.
func (collector *Collector) WriteTextfile(path string) error {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return ErrTextfilePathRequired
	}
	if writeError := prometheus.WriteToTextfile(trimmedPath, collector.registry); writeError != nil {
		return fmt.Errorf(textfileWriteErrorTemplateConstant, trimmedPath, writeError)
	}
	return nil
}
