package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Ingest metrics
	SnapshotsRecorded    prometheus.Counter
	SnapshotsDeduped     prometheus.Counter
	TransactionsRecorded prometheus.Counter
	TransactionsDeduped  prometheus.Counter
	SyncBatches          *prometheus.CounterVec
	SyncBatchDuration    prometheus.Histogram

	// Resolver metrics
	HoldingsQueries prometheus.Counter
	PriceLookups    *prometheus.CounterVec
	PriceLookupTime prometheus.Histogram
	FXLookups       *prometheus.CounterVec
	SummaryPartials prometheus.Counter

	// Reconciliation metrics
	ReconcileRuns          prometheus.Counter
	ReconcileDiscrepancies prometheus.Counter
	ReconcileDuration      prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SnapshotsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_snapshots_recorded_total",
			Help: "Total number of holdings snapshots appended",
		}),
		SnapshotsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_snapshots_deduped_total",
			Help: "Total number of snapshot writes absorbed by the unique key",
		}),
		TransactionsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_transactions_recorded_total",
			Help: "Total number of ledger transactions appended",
		}),
		TransactionsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_transactions_deduped_total",
			Help: "Total number of redelivered provider transactions absorbed",
		}),
		SyncBatches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_sync_batches_total",
				Help: "Total sync batches by status",
			},
			[]string{"status"},
		),
		SyncBatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_sync_batch_duration_seconds",
			Help:    "Duration of sync batch ingestion",
			Buckets: prometheus.DefBuckets,
		}),

		HoldingsQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_holdings_queries_total",
			Help: "Total holdings resolution queries",
		}),
		PriceLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_price_lookups_total",
				Help: "Total price lookups by outcome",
			},
			[]string{"outcome"},
		),
		PriceLookupTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_price_lookup_duration_seconds",
			Help:    "Duration of provider price lookups",
			Buckets: prometheus.DefBuckets,
		}),
		FXLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_fx_lookups_total",
				Help: "Total FX rate lookups by outcome",
			},
			[]string{"outcome"},
		),
		SummaryPartials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_summary_partial_results_total",
			Help: "Total portfolio summaries that returned partial results",
		}),

		ReconcileRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_reconcile_runs_total",
			Help: "Total reconciliation runs",
		}),
		ReconcileDiscrepancies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_reconcile_discrepancies_total",
			Help: "Total discrepancies reported",
		}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_reconcile_duration_seconds",
			Help:    "Duration of reconciliation runs",
			Buckets: prometheus.DefBuckets,
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "folio_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "folio_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}
