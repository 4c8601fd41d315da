// If you are AI: This file defines the process-wide set of Prometheus
// collectors for the streaming core: claim attempts, dedup hits, hub drops,
// and the active pull-stream count. Every counter/gauge here is registered
// once at process start and shared by value across goroutines — Prometheus
// collectors are already safe for concurrent use, so no locking of our own
// is needed.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ClaimAttempts counts Stream Registry claim attempts by outcome
	// ("won", "contended", "error").
	ClaimAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synctv_registry_claim_attempts_total",
		Help: "Stream ownership claim attempts, by outcome.",
	}, []string{"outcome"})

	// DedupHits counts events the Deduplicator suppressed as already seen.
	DedupHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synctv_dedup_hits_total",
		Help: "Cluster events suppressed by the deduplicator as already processed.",
	})

	// HubDrops counts events dropped from a subscriber's outbound queue
	// because it could not keep up.
	HubDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "synctv_hub_dropped_events_total",
		Help: "Room Message Hub events dropped due to a full subscriber queue.",
	})

	// PullStreamsActive reports the number of cross-node pull relays
	// currently open on this node.
	PullStreamsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synctv_pull_streams_active",
		Help: "Cross-node pull streams currently open from this node.",
	})

	// PublishersActive reports the number of locally-owned publishers.
	PublishersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "synctv_publishers_active",
		Help: "Locally-owned stream publishers currently active on this node.",
	})

	// CacheHits counts cachemgr reads satisfied without invoking the loader.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "synctv_cache_hits_total",
		Help: "Cache reads satisfied from L1 or L2, by tier.",
	}, []string{"tier"})
)

// Handler returns the HTTP handler serving the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
