package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// StageDuration records timed operations by name and outcome.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_stage_duration_seconds",
			Help:    "Duration of dispatch stages and adapter calls in seconds.",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage", "status"},
	)

	// DeliveriesEnumerated counts candidate deliveries produced per vehicle type.
	DeliveriesEnumerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_deliveries_enumerated_total", Help: "Candidate deliveries produced by enumeration."},
		[]string{"vehicle_type"},
	)

	// OrdersClassified counts orders by final outcome.
	OrdersClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_orders_total", Help: "Orders by dispatch outcome."},
		[]string{"outcome"},
	)

	// MatrixCacheLookups counts matrix cache hits and misses per backend.
	MatrixCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "matrix_cache_lookups_total", Help: "Matrix cache lookups by backend and result."},
		[]string{"backend", "result"},
	)

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(StageDuration)
		Registry.MustRegister(DeliveriesEnumerated)
		Registry.MustRegister(OrdersClassified)
		Registry.MustRegister(MatrixCacheLookups)
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
