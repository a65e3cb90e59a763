package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// insight pipeline.
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec // labels: outcome={ok,fallback}
	FallbacksTotal     *prometheus.CounterVec // labels: tier, reason
	EvaluationDuration prometheus.Histogram
	Confidence         prometheus.Histogram

	// Stream mode metrics.
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	ParseErrors      prometheus.Counter
	StreamRunning    prometheus.Gauge
	BatchSize        prometheus.Histogram
	BatchDuration    prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_insight",
			Name:      "evaluations_total",
			Help:      "Total insight evaluations by outcome.",
		}, []string{"outcome"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_insight",
			Name:      "fallbacks_total",
			Help:      "Degraded responses by fallback tier and reason.",
		}, []string{"tier", "reason"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_insight",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of one full pipeline evaluation.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_insight",
			Name:      "confidence_score",
			Help:      "Computed confidence scores on the normal path.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_insight",
			Name:      "messages_consumed_total",
			Help:      "Total bundle requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_insight",
			Name:      "messages_produced_total",
			Help:      "Total insight results written to the sink topic.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_insight",
			Name:      "parse_errors_total",
			Help:      "Total bundle messages that failed to parse.",
		}),
		StreamRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "city_insight",
			Name:      "stream_running",
			Help:      "1 when the stream loop is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_insight",
			Name:      "batch_size",
			Help:      "Number of bundle requests per extracted batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_insight",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete extract-evaluate-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.EvaluationsTotal,
		m.FallbacksTotal,
		m.EvaluationDuration,
		m.Confidence,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.ParseErrors,
		m.StreamRunning,
		m.BatchSize,
		m.BatchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EvaluationsTotal:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "city_insight", Name: "evaluations_total"}, []string{"outcome"}),
		FallbacksTotal:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "city_insight", Name: "fallbacks_total"}, []string{"tier", "reason"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "city_insight", Name: "evaluation_duration_seconds"}),
		Confidence:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "city_insight", Name: "confidence_score"}),
		MessagesConsumed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "city_insight", Name: "messages_consumed_total"}),
		MessagesProduced:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "city_insight", Name: "messages_produced_total"}),
		ParseErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "city_insight", Name: "parse_errors_total"}),
		StreamRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "city_insight", Name: "stream_running"}),
		BatchSize:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "city_insight", Name: "batch_size"}),
		BatchDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "city_insight", Name: "batch_duration_seconds"}),
	}
}
