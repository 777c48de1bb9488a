// Package metrics provides Prometheus metrics collection for the SHDP backend.
// It defines the prediction, model registry and HTTP metrics that are exposed
// on the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shdp"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	Predictions     *prometheus.CounterVec // Predictions served, by disease and risk level
	Failures        *prometheus.CounterVec // Inference failures, by disease
	Latency         prometheus.Histogram   // Inference latency in seconds
	ConfidenceScore prometheus.Histogram   // Distribution of reported confidence percentages
	FallbackUse     prometheus.Counter     // Predictions answered with the placeholder confidence

	// Model registry metrics
	ModelLoads        *prometheus.CounterVec // Successful model loads, by disease
	ModelLoadFailures *prometheus.CounterVec // Failed model loads, by disease
	ModelCacheHits    prometheus.Counter     // Resolutions served from the cache
	ModelAge          *prometheus.GaugeVec   // Age of the loaded model file in seconds, by disease

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec   // Requests, by method, route and status code
	HTTPDuration *prometheus.HistogramVec // Request duration in seconds, by method and route
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of risk predictions served",
		}, []string{"disease", "risk_level"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_failures_total",
			Help:      "Total number of inference failures",
		}, []string{"disease"}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_latency_seconds",
			Help:      "Inference latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		ConfidenceScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_confidence_percent",
			Help:      "Distribution of reported confidence percentages",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		FallbackUse: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_fallback_confidence_total",
			Help:      "Total number of predictions from models without probability output",
		}),
		ModelLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Total number of successful model loads",
		}, []string{"disease"}),
		ModelLoadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_load_failures_total",
			Help:      "Total number of failed model loads",
		}, []string{"disease"}),
		ModelCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_hits_total",
			Help:      "Total number of model resolutions served from the cache",
		}),
		ModelAge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_age_seconds",
			Help:      "Age of the loaded model file in seconds",
		}, []string{"disease"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, statusLabel(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
