// Package monitoring exposes Prometheus metrics and a websocket feed of
// served predictions.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// PredictionsTotal counts served predictions by predicted house.
	PredictionsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "housecast_predictions_total",
		Help: "Predictions served, by predicted house.",
	}, []string{"house"})

	// PredictionFailures counts rejected or failed requests by kind:
	// validation, not_ready, model.
	PredictionFailures = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "housecast_prediction_failures_total",
		Help: "Requests that did not yield a label, by failure kind.",
	}, []string{"kind"})

	// UnknownCategories counts categorical values with no training-time
	// indicator column, by field.
	UnknownCategories = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "housecast_unknown_categories_total",
		Help: "Categorical values outside the training vocabulary, by field.",
	}, []string{"field"})

	// CacheHits counts predictions answered from the LRU cache.
	CacheHits = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "housecast_prediction_cache_hits_total",
		Help: "Predictions answered from the cache.",
	})

	// RequestDuration observes end-to-end predict handler latency.
	RequestDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "housecast_request_duration_seconds",
		Help:    "Predict request latency.",
		Buckets: prometheus.DefBuckets,
	})
)

// MetricsHandler serves the metrics registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
