package receipt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_vault_http_requests_total",
		Help: "HTTP requests handled, by handler and status code.",
	}, []string{"handler", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "receipt_vault_http_request_duration_seconds",
		Help:    "HTTP request latency, by handler.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	uploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "receipt_vault_upload_bytes",
		Help:    "Size of uploaded receipt images.",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 6),
	})

	extractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipt_vault_extraction_failures_total",
		Help: "Amount extraction calls that failed and fell back to the placeholder.",
	})
)
