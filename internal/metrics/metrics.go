/*
Package metrics registers the Prometheus collectors exposed on /metrics.

Collectors live on the default registry and are recorded through the small
Record* helpers so callers never touch label ordering directly.
*/
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidrank_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidrank_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Queries
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidrank_queries_total",
			Help: "Total number of recommend and search queries by outcome",
		},
		[]string{"kind", "outcome"}, // kind: recommend|search, outcome: found|empty|error
	)

	QueryResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidrank_query_results",
			Help:    "Number of entries returned per query",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10, 25, 50},
		},
		[]string{"kind"},
	)

	// Catalog
	CatalogVideos = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidrank_catalog_videos",
			Help: "Number of videos in the published catalog snapshot",
		},
	)

	CatalogLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidrank_catalog_loads_total",
			Help: "Catalog snapshot builds by result",
		},
		[]string{"result"}, // success|failure
	)

	CatalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vidrank_catalog_load_duration_seconds",
			Help:    "Time to build a catalog snapshot (load, annotate, index)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CatalogLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidrank_catalog_last_success_timestamp",
			Help: "Unix time of the last successful snapshot build",
		},
	)

	// Classifier
	ClassifierCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidrank_classifier_calls_total",
			Help: "Classifier predict calls by result",
		},
		[]string{"classifier", "result"},
	)

	ClassifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidrank_classifier_call_duration_seconds",
			Help:    "Classifier predict call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"classifier"},
	)

	ClassifierBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidrank_classifier_breaker_state",
			Help: "Classifier circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// History
	HistoryDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidrank_history_dropped_total",
			Help: "Search records dropped because the tracker queue was full",
		},
	)

	HistoryFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidrank_history_flushes_total",
			Help: "Search history batch flushes by result",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordQuery records a recommend or search query outcome.
func RecordQuery(kind string, results int, err error) {
	outcome := "found"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "empty"
	}
	QueriesTotal.WithLabelValues(kind, outcome).Inc()
	if err == nil {
		QueryResults.WithLabelValues(kind).Observe(float64(results))
	}
}

// RecordCatalogLoad records a snapshot build attempt.
func RecordCatalogLoad(videos int, duration time.Duration, err error) {
	CatalogLoadDuration.Observe(duration.Seconds())
	if err != nil {
		CatalogLoadsTotal.WithLabelValues("failure").Inc()
		return
	}
	CatalogLoadsTotal.WithLabelValues("success").Inc()
	CatalogVideos.Set(float64(videos))
	CatalogLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordClassifierCall records one classifier predict call.
func RecordClassifierCall(classifier string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ClassifierCalls.WithLabelValues(classifier, result).Inc()
	ClassifierDuration.WithLabelValues(classifier).Observe(duration.Seconds())
}

// RecordHistoryFlush records a tracker batch write.
func RecordHistoryFlush(err error) {
	if err != nil {
		HistoryFlushes.WithLabelValues("failure").Inc()
		return
	}
	HistoryFlushes.WithLabelValues("success").Inc()
}
