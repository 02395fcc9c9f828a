package recommendation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_lookups_total",
			Help: "Recommendation cache lookups by result (hit, miss, bypass).",
		},
		[]string{"result"},
	)

	GeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_generated_total",
			Help: "Recommendation rows returned by the generation pipeline.",
		},
	)

	CandidatePoolSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidate_pool_size",
			Help:    "Number of candidates retrieved per generation.",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		},
	)

	FeedbackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_feedback_events_total",
			Help: "Feedback events recorded against persisted recommendations.",
		},
		[]string{"event"},
	)

	DegradedLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_degraded_lookups_total",
			Help: "Behavior lookups that failed and were replaced by an empty list.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(
		CacheLookupsTotal,
		GeneratedTotal,
		CandidatePoolSize,
		FeedbackEventsTotal,
		DegradedLookupsTotal,
	)
}
