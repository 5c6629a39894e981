package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the HTTP surface. Registered against the default
// registerer; cmd/server exposes them on /metrics.
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inference_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	PredictDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inference_predict_duration_seconds",
		Help:    "End-to-end duration of /v1/predict requests.",
		Buckets: prometheus.DefBuckets,
	})

	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inference_predictions_total",
		Help: "Per-label prediction outcomes (resistant/sensitive/error).",
	}, []string{"label", "outcome"})
)
