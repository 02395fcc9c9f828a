package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the recommendation HTTP handlers, by route.
	HandlerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommendation_handler_latency_seconds",
		Help:    "Latency of recommendation HTTP handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// Requests served, by route and status class.
	HandlerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_handler_requests_total",
		Help: "Total number of recommendation HTTP requests",
	}, []string{"route", "code"})
)

func Init() {
	prometheus.MustRegister(
		HandlerLatency,
		HandlerRequests,
	)
}
