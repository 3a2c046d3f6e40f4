package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Loans
	CheckoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "library_checkouts_total",
			Help: "Total successful book checkouts",
		},
	)
	ReturnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "library_returns_total",
			Help: "Total successful book returns",
		},
	)
	AssignmentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_assignment_failures_total",
			Help: "Rejected or failed checkout/return operations",
		},
		[]string{"reason"}, // error code
	)

	// Reminders
	RemindersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_reminders_total",
			Help: "Reminder delivery attempts",
		},
		[]string{"result"}, // sent|failed
	)

	// HTTP
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"}, // route is the chi pattern, never the raw path
	)

	// Worker pool
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers collectors with the default registry; safe to call twice.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(CheckoutsTotal)
		prometheus.MustRegister(ReturnsTotal)
		prometheus.MustRegister(AssignmentFailures)
		prometheus.MustRegister(RemindersTotal)
		prometheus.MustRegister(WorkerQueueDepth)
		prometheus.MustRegister(HTTPLatency)
	})
}
