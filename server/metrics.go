package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	storeOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoedit_store_operations_total",
			Help: "Feature store operations by kind and outcome.",
		},
		[]string{"op", "outcome"},
	)
	storeFeatures = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geoedit_store_features",
			Help:    "Feature count of a store after a successful mutation.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geoedit_sessions_active",
			Help: "Sessions held in the session cache.",
		},
	)
	sessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geoedit_sessions_evicted_total",
			Help: "Sessions dropped from the session cache.",
		},
	)
)

func ObserveHTTP(method, route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func observeOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeOps.WithLabelValues(op, outcome).Inc()
}
