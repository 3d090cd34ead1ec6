package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	VerificationsTotal  *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	FallbacksTotal      prometheus.Counter
	CacheLookupsTotal   *prometheus.CounterVec
	BatchSize           prometheus.Histogram
)

var initOnce sync.Once

// Init registers every collector with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_verifications_total",
			Help: "Total number of analysed images by verdict.",
		},
		[]string{"verdict"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_analysis_duration_seconds",
			Help:    "Duration of analysing the uncached images of one request.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	FallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_analysis_fallbacks_total",
			Help: "Analyses that failed open instead of producing a score.",
		},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_result_cache_lookups_total",
			Help: "Result cache lookups by outcome.",
		},
		[]string{"outcome"}, // hit, miss, stale, error
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_verification_batch_size",
			Help:    "Number of images per batch request.",
			Buckets: []float64{1, 2, 3, 5, 8, 10, 20},
		},
	)
}
