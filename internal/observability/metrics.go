package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. All
// observe methods are nil-safe so tests can run without a registry.
type Metrics struct {
	TurnsTotal       *prometheus.CounterVec
	TurnLatency      prometheus.Histogram
	GeneratorLatency prometheus.Histogram
	StoreErrors      *prometheus.CounterVec
	SaveSuggestions  *prometheus.CounterVec

	stages *turnStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Chat turns by outcome.",
		}, []string{"outcome"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end chat turn latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000},
		}),
		GeneratorLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_latency_ms",
			Help:      "External generator call latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Persistence errors by store and operation.",
		}, []string{"store", "op"}),
		SaveSuggestions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_suggestions_total",
			Help:      "Extractor outcomes per completed turn.",
		}, []string{"outcome"}),
		stages: newTurnStageWindow(256),
	}
}

func (m *Metrics) ObserveTurn(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.TurnLatency.Observe(float64(d.Milliseconds()))
	}
}

func (m *Metrics) ObserveGeneratorLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.GeneratorLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveStoreError(store, op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(store, op).Inc()
}

func (m *Metrics) ObserveSuggestion(suggested bool) {
	if m == nil {
		return
	}
	outcome := "none"
	if suggested {
		outcome = "suggested"
	}
	m.SaveSuggestions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTurnStage(stage string, d time.Duration) {
	if m == nil || m.stages == nil {
		return
	}
	m.stages.Observe(stage, float64(d.Microseconds())/1000.0)
}

func (m *Metrics) SnapshotTurnStages() TurnStageSnapshot {
	if m == nil || m.stages == nil {
		return TurnStageSnapshot{}
	}
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
