// Package metrics exposes the Prometheus instrumentation for the game
// server: spin outcomes, feature activity and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotengine_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slotengine_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slotengine_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)

// Game Metrics
var (
	SpinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotengine_spins_total",
			Help: "Spins played by win tier",
		},
		[]string{"tier"},
	)

	CreditsWagered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotengine_credits_wagered_total",
			Help: "Total credits wagered",
		},
	)

	CreditsWon = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slotengine_credits_won_total",
			Help: "Total credits paid out",
		},
	)

	CascadeDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slotengine_cascade_depth",
			Help:    "Cascade chain length per winning spin",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 7, 10, 15, 20},
		},
	)

	FeatureTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotengine_feature_triggers_total",
			Help: "Feature activations by feature name",
		},
		[]string{"feature"},
	)

	GambleRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotengine_gamble_rounds_total",
			Help: "Gamble rounds by outcome",
		},
		[]string{"outcome"},
	)

	SpinFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotengine_spin_failures_total",
			Help: "Failed spins by error category",
		},
		[]string{"category"},
	)
)
