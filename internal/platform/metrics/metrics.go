package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry.
type Metrics struct {
	DeedsRegistered   prometheus.Counter
	DeedsTransferred  prometheus.Counter
	DeedsDeleted      prometheus.Counter
	Verifications     prometheus.Counter
	AuditEntries      *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DeedsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_deeds_registered_total",
			Help: "Total number of deeds registered",
		}),
		DeedsTransferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_deeds_transferred_total",
			Help: "Total number of deed ownership transfers",
		}),
		DeedsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_deeds_deleted_total",
			Help: "Total number of deeds hard-deleted",
		}),
		Verifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deedledger_verifications_total",
			Help: "Total number of public deed verifications",
		}),
		AuditEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "deedledger_audit_entries_total",
			Help: "Audit trail entries written, by action",
		}, []string{"action"}),
		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deedledger_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method", "path"}),
	}
}
