// Package metrics provides Prometheus metrics for curve evaluation.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Curve kinds used as label values.
const (
	KindROC = "roc"
	KindPR  = "pr"
)

// Manager owns the evaluation metrics.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Evaluation metrics
	curvesComputed     *prometheus.CounterVec
	evaluationLatency  prometheus.Histogram
	rowsTabulated      prometheus.Counter
	horizonsEvaluated  prometheus.Counter
	degenerateHorizons *prometheus.CounterVec
	inflight           prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errors *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "survcurve",
		subsystem:        "evaluation",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.curvesComputed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "curves_computed_total",
		Help:      "Total number of curve tables computed by kind",
	}, []string{"kind"})

	m.evaluationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "latency_milliseconds",
		Help:      "Histogram of evaluation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.rowsTabulated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_tabulated_total",
		Help:      "Total number of tabulated threshold rows",
	})

	m.horizonsEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "horizons_total",
		Help:      "Total number of horizon partitions evaluated",
	})

	m.degenerateHorizons = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "degenerate_horizons_total",
		Help:      "Horizon partitions without positives or without negatives",
		// reason is "no_positives" or "no_negatives"
	}, []string{"reason"})

	m.inflight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inflight",
		Help:      "Evaluations currently running",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Total number of failed evaluations by error kind",
	}, []string{"kind"})
}

// RecordCurve counts one computed curve table of the given kind.
func (m *Manager) RecordCurve(kind string) error {
	if kind != KindROC && kind != KindPR {
		return fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	m.curvesComputed.WithLabelValues(kind).Inc()
	return nil
}

// RecordEvaluationLatency records evaluation latency in milliseconds.
func (m *Manager) RecordEvaluationLatency(latencyMs float64) {
	m.evaluationLatency.Observe(latencyMs)
}

// RecordRowsTabulated adds n tabulated rows.
func (m *Manager) RecordRowsTabulated(n int) {
	m.rowsTabulated.Add(float64(n))
}

// RecordHorizon counts one evaluated horizon and whether it lacked positives
// or negatives.
func (m *Manager) RecordHorizon(noPositives, noNegatives bool) {
	m.horizonsEvaluated.Inc()
	if noPositives {
		m.degenerateHorizons.WithLabelValues("no_positives").Inc()
	}
	if noNegatives {
		m.degenerateHorizons.WithLabelValues("no_negatives").Inc()
	}
}

// AddInflight moves the in-flight gauge by delta.
func (m *Manager) AddInflight(delta int) {
	m.inflight.Add(float64(delta))
}

// RecordHTTPRequest records one HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordError counts a failed evaluation.
func (m *Manager) RecordError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

// Global returns the process-wide manager registered on GetRegistry.
func Global() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by Global.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
