package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DiscoverySessions counts discovery sessions by terminal outcome
	// (started, captured, timed_out, failed)
	DiscoverySessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livenews_discovery_sessions_total",
		Help: "Total number of discovery sessions by outcome",
	}, []string{"outcome"})

	// DiscoveryActive tracks sessions currently scanning
	DiscoveryActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "livenews_discovery_active",
		Help: "Number of discovery sessions currently scanning",
	})

	// CandidatesRejected counts probe reports that failed the playlist gate
	CandidatesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livenews_candidates_rejected_total",
		Help: "Total number of reported candidates rejected by validation",
	})

	// StoreErrors counts swallowed persistence failures by operation
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livenews_store_errors_total",
		Help: "Total number of key-value store failures",
	}, []string{"store", "op"})

	// Resolutions counts stream resolutions by the source that won
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livenews_stream_resolutions_total",
		Help: "Total number of stream URL resolutions by source",
	}, []string{"region", "source"})
)
