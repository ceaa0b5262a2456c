package metrics

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// documentKinds are the extractor kinds reported as metric labels. Anything
// else collapses into "other" to keep label cardinality bounded.
var documentKinds = map[string]string{
	".pdf":  "pdf",
	".xlsx": "xlsx",
	".txt":  "text",
	".md":   "text",
}

// DocumentKind maps a stored filename to the extractor kind that handles it.
func DocumentKind(filename string) string {
	if filename == "" {
		return "unknown"
	}
	if kind, ok := documentKinds[strings.ToLower(filepath.Ext(filename))]; ok {
		return kind
	}
	return "other"
}

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	queueLag        prometheus.Histogram
	indexedChunks   *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	serviceLabel := prometheus.Labels{"service": service}

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "neura",
			Subsystem:   "worker",
			Name:        "document_process_total",
			Help:        "Processed documents by extractor kind and status.",
			ConstLabels: serviceLabel,
		},
		[]string{"kind", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "neura",
			Subsystem:   "worker",
			Name:        "document_process_duration_seconds",
			Help:        "Extract, chunk, embed and index duration by extractor kind.",
			Buckets:     []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			ConstLabels: serviceLabel,
		},
		[]string{"kind", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "neura",
			Subsystem:   "worker",
			Name:        "document_process_in_flight",
			Help:        "Documents currently being indexed.",
			ConstLabels: serviceLabel,
		},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "neura",
			Subsystem:   "worker",
			Name:        "queue_lag_seconds",
			Help:        "Delay between upload and the start of indexing.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: serviceLabel,
		},
	)
	indexedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "neura",
			Subsystem:   "worker",
			Name:        "document_chunks",
			Help:        "Chunks written to the vector index per ready document.",
			Buckets:     []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			ConstLabels: serviceLabel,
		},
		[]string{"kind"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, queueLag, indexedChunks)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		queueLag:        queueLag,
		indexedChunks:   indexedChunks,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(kind string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "ready"
	if err != nil {
		status = "failed"
	}

	m.processTotal.WithLabelValues(kind, status).Inc()
	m.processDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
}

// ObserveIndexedChunks records how many chunks a ready document produced.
func (m *WorkerMetrics) ObserveIndexedChunks(kind string, chunks int) {
	if chunks < 0 {
		return
	}
	m.indexedChunks.WithLabelValues(kind).Observe(float64(chunks))
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}
