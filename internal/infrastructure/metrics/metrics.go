package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Sync pass metrics
	PassesStarted  prometheus.Counter
	PassesFinished *prometheus.CounterVec
	PassDuration   prometheus.Histogram
	ItemsProcessed *prometheus.CounterVec

	// Account metrics
	AccountsDisabled *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Upstream metrics
	UpstreamErrors *prometheus.CounterVec

	// Batch metrics
	BatchRuns  prometheus.Counter
	BatchUsers prometheus.Histogram

	// Duo metrics
	DuoLinks   prometheus.Counter
	DuoUnlinks prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		PassesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitsync_passes_started_total",
			Help: "Total number of sync passes started",
		}),
		PassesFinished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_passes_finished_total",
				Help: "Total number of sync passes finished by status",
			},
			[]string{"status"},
		),
		PassDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitsync_pass_duration_seconds",
			Help:    "Duration of sync passes",
			Buckets: prometheus.DefBuckets,
		}),
		ItemsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_items_processed_total",
				Help: "Total number of items processed by direction and status",
			},
			[]string{"direction", "status"},
		),
		AccountsDisabled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_accounts_disabled_total",
				Help: "Total number of accounts disabled by error kind",
			},
			[]string{"kind"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_rate_limit_hits_total",
				Help: "Total number of rate limit checks by key and outcome",
			},
			[]string{"key", "outcome"},
		),
		UpstreamErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_upstream_errors_total",
				Help: "Total number of classified upstream errors by operation and kind",
			},
			[]string{"op", "kind"},
		),
		BatchRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitsync_batch_runs_total",
			Help: "Total number of scheduled batch runs",
		}),
		BatchUsers: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitsync_batch_users",
			Help:    "Number of users per batch run",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),
		DuoLinks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitsync_duo_links_total",
			Help: "Total number of duo links created",
		}),
		DuoUnlinks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splitsync_duo_unlinks_total",
			Help: "Total number of duo links removed",
		}),
	}
}
