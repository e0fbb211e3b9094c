package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Mint pipeline metrics
	// ============================================
	MintAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nnm_mint_attempts_total",
			Help: "Total number of mint attempts by result",
		},
		[]string{"result"},
	)

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nnm_card_render_duration_seconds",
		Help:    "Card rendering duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	PinFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nnm_pin_failures_total",
			Help: "Total number of failed pinning uploads by artifact kind",
		},
		[]string{"kind"},
	)

	// ============================================
	// Asset index metrics
	// ============================================
	IndexedAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nnm_indexed_assets",
		Help: "Number of assets currently present in the local index",
	})

	IndexSyncErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nnm_index_sync_errors_total",
		Help: "Total number of failed index sync passes",
	})

	// ============================================
	// Event publishing metrics
	// ============================================
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nnm_events_published_total",
			Help: "Total number of mint lifecycle events published",
		},
		[]string{"state"},
	)
)

// NewTimer starts a duration observation against a histogram.
func NewTimer(o prometheus.Observer) *prometheus.Timer {
	return prometheus.NewTimer(o)
}
