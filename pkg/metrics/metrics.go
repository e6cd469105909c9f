// Package metrics provides Prometheus metrics for the tagging service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "imagetagger"

// Extraction outcomes. Failures share one wire response, so the status label
// is the only place they are told apart.
const (
	StatusSuccess         = "success"
	StatusMalformedInput  = "malformed_input"
	StatusUpstreamFailure = "upstream_failure"
	StatusMissingInput    = "missing_input"
)

const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	// ExtractionsTotal counts tagging requests by outcome.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Total number of tagging requests by outcome",
		},
		[]string{"status"},
	)

	// UpstreamDuration measures provider calls.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Duration of image analysis provider calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	TagsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tags_returned",
			Help:      "Distribution of the number of tags per response",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 7},
		},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Total number of tag cache lookups by result",
		},
		[]string{"result"},
	)
)

func RecordExtraction(status string) {
	ExtractionsTotal.WithLabelValues(status).Inc()
}

func RecordUpstream(provider string, started time.Time) {
	UpstreamDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

func RecordTags(count int) {
	TagsReturned.Observe(float64(count))
}

func RecordCache(result string) {
	CacheRequestsTotal.WithLabelValues(result).Inc()
}
