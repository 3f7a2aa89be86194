// Package metrics provides Prometheus metrics for the obituary registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a registry run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Registry state
	registryRecords prometheus.Gauge
	registryPending prometheus.Gauge
	storeWrites     *prometheus.CounterVec

	// Command handling
	commands    *prometheus.CounterVec
	addOutcomes *prometheus.CounterVec

	// External knowledge sources
	externalCalls   *prometheus.CounterVec
	externalRetries *prometheus.CounterVec
	externalLatency *prometheus.HistogramVec

	// Batch jobs
	enrichments      *prometheus.CounterVec
	historicalEpochs *prometheus.CounterVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "obituary",
		subsystem:        "registry",
		histogramBuckets: []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.registryRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "records",
		Help:        "Number of records in the registry file, sentinels included",
		ConstLabels: labels,
	})

	m.registryPending = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pending_records",
		Help:        "Number of records awaiting moderator approval",
		ConstLabels: labels,
	})

	m.storeWrites = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "store_writes_total",
			Help:        "Total number of file writes by store and result",
			ConstLabels: labels,
		},
		[]string{"store", "result"},
	)

	m.commands = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "commands_total",
			Help:        "Total number of commands handled by kind",
			ConstLabels: labels,
		},
		[]string{"kind"},
	)

	m.addOutcomes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "add_outcomes_total",
			Help:        "Total number of ADD requests by reconciliation outcome",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)

	m.externalCalls = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "external_calls_total",
			Help:        "Total number of calls to external knowledge sources",
			ConstLabels: labels,
		},
		[]string{"source", "result"},
	)

	m.externalRetries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "external_retries_total",
			Help:        "Total number of retried external calls",
			ConstLabels: labels,
		},
		[]string{"source"},
	)

	m.externalLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "external_latency_milliseconds",
			Help:        "External call latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"source"},
	)

	m.enrichments = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "enrichments_total",
			Help:        "Total number of records changed by enrichment jobs",
			ConstLabels: labels,
		},
		[]string{"kind"},
	)

	m.historicalEpochs = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "historical_epochs_total",
			Help:        "Total number of historical import epochs by result",
			ConstLabels: labels,
		},
		[]string{"result"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_component_total",
			Help:        "Total number of errors by component",
			ConstLabels: labels,
		},
		[]string{"component", "error_type"},
	)
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// UpdateRegistryStats sets the registry size gauges.
func UpdateRegistryStats(total, pending int) {
	globalManager.registryRecords.Set(float64(total))
	globalManager.registryPending.Set(float64(pending))
}

// RecordStoreWrite counts one write to the named store.
func RecordStoreWrite(store string, ok bool) {
	globalManager.storeWrites.WithLabelValues(store, resultLabel(ok)).Inc()
}

// RecordCommand counts a handled command.
func RecordCommand(kind string) {
	globalManager.commands.WithLabelValues(kind).Inc()
}

// RecordAddOutcome counts the outcome of one ADD.
func RecordAddOutcome(outcome string) {
	globalManager.addOutcomes.WithLabelValues(outcome).Inc()
}

// RecordExternalCall counts one finished call to source. result is one of
// ok, not_found or error.
func RecordExternalCall(source, result string) {
	globalManager.externalCalls.WithLabelValues(source, result).Inc()
}

// RecordRetry counts a retried call to source.
func RecordRetry(source string) {
	globalManager.externalRetries.WithLabelValues(source).Inc()
}

// ObserveExternalLatency records the latency of one call to source.
func ObserveExternalLatency(source string, latencyMs float64) {
	globalManager.externalLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordEnrichment counts a record changed by an enrichment job.
func RecordEnrichment(kind string) {
	globalManager.enrichments.WithLabelValues(kind).Inc()
}

// RecordHistoricalEpoch counts one processed import epoch.
func RecordHistoricalEpoch(result string) {
	globalManager.historicalEpochs.WithLabelValues(result).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the current metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}
