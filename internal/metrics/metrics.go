// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quiz
	QuizSessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Quiz sessions started, by session kind",
		},
		[]string{"kind"},
	)

	QuizAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Accepted quiz answers, by session kind",
		},
		[]string{"kind"},
	)

	QuizSequenceRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_sequence_rejections_total",
			Help: "Answers rejected because they were stale or lost a concurrent write",
		},
		[]string{"reason"}, // "stale", "concurrent"
	)

	QuizCompletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_completions_total",
			Help: "Completed quizzes, by resulting type code",
		},
		[]string{"type_code"},
	)

	// Recommendations
	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Recommendation lists served from cache",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Recommendation lists computed on a cache miss",
		},
	)

	PersonalizationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_personalization_fallbacks_total",
			Help: "Rankings served unpersonalized because history was unavailable",
		},
	)

	// Matching
	MatchTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_request_transitions_total",
			Help: "Match request status transitions, by target status",
		},
		[]string{"status"},
	)

	MatchCandidatesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_candidates_returned",
			Help:    "Number of candidates returned per search",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Open quiz stream connections",
		},
	)
)

// RecordHTTPRequest observes one finished request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordSequenceRejection counts a rejected answer.
func RecordSequenceRejection(concurrent bool) {
	reason := "stale"
	if concurrent {
		reason = "concurrent"
	}
	QuizSequenceRejections.WithLabelValues(reason).Inc()
}
