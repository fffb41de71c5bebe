// Package metrics exposes the prometheus counters and gauges the poller
// and alert pipeline update as they run (spec §7 observability surface).
// Grounded on other_examples/…wormhole…processor.go's promauto.New*
// package-level registration style.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flare_emissary_blocks_processed_total",
			Help: "Total number of blocks processed by the poller, by chain.",
		},
		[]string{"chain"},
	)

	ReorgsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flare_emissary_reorgs_detected_total",
			Help: "Total number of chain reorganizations detected, by chain.",
		},
		[]string{"chain"},
	)

	EventsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flare_emissary_events_decoded_total",
			Help: "Total number of logs successfully decoded, by chain and event type.",
		},
		[]string{"chain", "event_type"},
	)

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flare_emissary_alerts_created_total",
			Help: "Total number of alerts created, by event type and severity.",
		},
		[]string{"event_type", "severity"},
	)

	CooldownSuppressions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flare_emissary_cooldown_suppressions_total",
			Help: "Total number of alerts suppressed by an active cooldown window.",
		},
		[]string{"event_type"},
	)

	HysteresisTrackedSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flare_emissary_hysteresis_tracked_subscriptions",
			Help: "Number of subscriptions with an in-progress hysteresis streak.",
		},
		[]string{"chain"},
	)

	BlockProcessingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flare_emissary_block_processing_latency_ms",
			Help:    "End-to-end latency from block fetch through alert processing, in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 1500, 2000, 5000},
		},
		[]string{"chain"},
	)
)
