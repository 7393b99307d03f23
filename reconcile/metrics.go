package reconcile

import "github.com/prometheus/client_golang/prometheus"

// Result labels of rowsetdb_sync_rows_total.
const (
	Ok       = "ok"
	Conflict = "conflict"
	Fail     = "fail"
)

var (
	SyncRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rowsetdb_sync_rows_total",
		Help: "Cumulative number of pending rows reconciled, by operation and result.",
	}, []string{"op", "result"})
	SyncPassesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rowsetdb_sync_passes_total",
		Help: "Cumulative number of synchronization passes.",
	})
	SyncDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rowsetdb_sync_duration_seconds",
		Help:    "Duration of synchronization passes.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(SyncRowsTotal, SyncPassesTotal, SyncDurationSeconds)
}
