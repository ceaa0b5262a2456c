package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

// RouterMetrics implements ports.AnswerObserver on Prometheus collectors.
type RouterMetrics struct {
	classifications *prometheus.CounterVec
	contextErrors   *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	answers         *prometheus.CounterVec
	retrievedDocs   prometheus.Histogram
	evaluations     *prometheus.CounterVec
}

func NewRouterMetrics(registerer prometheus.Registerer) *RouterMetrics {
	classifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neura",
			Subsystem: "router",
			Name:      "classifications_total",
			Help:      "Queries routed per classification.",
		},
		[]string{"classification"},
	)
	contextErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neura",
			Subsystem: "router",
			Name:      "context_errors_total",
			Help:      "Context fetches that failed, by source.",
		},
		[]string{"source"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neura",
			Subsystem: "router",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each routing stage.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	answers := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neura",
			Subsystem: "router",
			Name:      "answers_total",
			Help:      "Answers produced, ok or degraded.",
		},
		[]string{"status"},
	)
	retrievedDocs := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "neura",
			Subsystem: "router",
			Name:      "retrieved_documents",
			Help:      "Documents retrieved per document-retrieval answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	evaluations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neura",
			Subsystem: "router",
			Name:      "evaluations_total",
			Help:      "Reference-set answers graded by the judge model, by verdict.",
		},
		[]string{"verdict"},
	)

	registerer.MustRegister(classifications, contextErrors, stageDuration, answers, retrievedDocs, evaluations)

	return &RouterMetrics{
		classifications: classifications,
		contextErrors:   contextErrors,
		stageDuration:   stageDuration,
		answers:         answers,
		retrievedDocs:   retrievedDocs,
		evaluations:     evaluations,
	}
}

func (m *RouterMetrics) ObserveClassification(classification domain.Classification) {
	m.classifications.WithLabelValues(string(classification)).Inc()
}

func (m *RouterMetrics) ObserveStage(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *RouterMetrics) ObserveContextError(source domain.Classification) {
	m.contextErrors.WithLabelValues(string(source)).Inc()
}

func (m *RouterMetrics) ObserveAnswer(result domain.AnswerResult) {
	status := "ok"
	if len(result.Metadata.Errors) > 0 {
		status = "degraded"
	}
	m.answers.WithLabelValues(status).Inc()
	if n := result.Metadata.RetrievedDocumentCount; n != nil {
		m.retrievedDocs.Observe(float64(*n))
	}
}

func (m *RouterMetrics) ObserveEvaluation(verdict domain.EvaluationVerdict) {
	m.evaluations.WithLabelValues(string(verdict)).Inc()
}
