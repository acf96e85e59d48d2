package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/document-classifier/internal/core/domain"
)

// ClassificationMetrics counts verdicts and absorbed failures per strategy.
type ClassificationMetrics struct {
	service      string
	verdicts     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

func NewClassificationMetrics(service string, registerer prometheus.Registerer) *ClassificationMetrics {
	verdicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "verdicts_total",
			Help:      "Classification verdicts by strategy and label.",
		},
		[]string{"service", "strategy", "label"},
	)
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "fallbacks_total",
			Help:      "Files degraded to the unknown label by reason.",
		},
		[]string{"service", "strategy", "reason"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scorer",
			Name:      "circuit_state",
			Help:      "Circuit breaker state per operation (0 closed, 1 half-open, 2 open).",
		},
		[]string{"service", "operation"},
	)
	registerer.MustRegister(verdicts, fallbacks, breakerState)

	return &ClassificationMetrics{
		service:      service,
		verdicts:     verdicts,
		fallbacks:    fallbacks,
		breakerState: breakerState,
	}
}

func (m *ClassificationMetrics) ObserveVerdict(strategy domain.Strategy, docType domain.DocumentType) {
	m.verdicts.WithLabelValues(m.service, string(strategy), string(docType)).Inc()
}

func (m *ClassificationMetrics) ObserveFallback(strategy domain.Strategy, reason string) {
	m.fallbacks.WithLabelValues(m.service, string(strategy), reason).Inc()
}

// ObserveBreaker matches resilience.StateObserver.
func (m *ClassificationMetrics) ObserveBreaker(operation string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(m.service, operation).Set(float64(to))
}
