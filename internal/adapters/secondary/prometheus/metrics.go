package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ports "insurance-prediction-service/internal/core/ports/output"
)

const namespace = "insurance"

// Metrics exposes prediction and artifact collectors on its own registry.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	loaded      *prometheus.GaugeVec
}

var _ ports.PredictionMetrics = (*Metrics)(nil)

// NewMetrics creates the collectors. withRuntime adds Go runtime and process collectors.
func NewMetrics(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by model version and outcome.",
		}, []string{"model_version", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent handling prediction requests.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"model_version"}),
		loaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_artifact_loaded",
			Help:      "1 if the model version's artifact is loaded, 0 otherwise.",
		}, []string{"model_version"}),
	}

	m.registry.MustRegister(m.predictions, m.latency, m.loaded)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

func (m *Metrics) ObservePrediction(version, outcome string, latency time.Duration) {
	m.predictions.WithLabelValues(version, outcome).Inc()
	m.latency.WithLabelValues(version).Observe(latency.Seconds())
}

func (m *Metrics) SetArtifactLoaded(version string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	m.loaded.WithLabelValues(version).Set(v)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
