package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module: record creation
// counts and per-operation latency on the mutation paths.
type Metrics struct {
	ParcelsCreated    prometheus.Counter
	UnitsCreated      prometheus.Counter
	DisputesRaised    prometheus.Counter
	TransfersApproved prometheus.Counter
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		ParcelsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhoomi_parcels_created_total",
			Help: "Total number of land parcels registered",
		}),
		UnitsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhoomi_units_created_total",
			Help: "Total number of sub-parcel units registered",
		}),
		DisputesRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhoomi_disputes_raised_total",
			Help: "Total number of disputes raised or flagged",
		}),
		TransfersApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bhoomi_transfers_approved_total",
			Help: "Total number of approved ownership transfers",
		}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bhoomi_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		OperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bhoomi_registry_operation_errors_total",
			Help: "Registry operations rejected, by error code",
		}, []string{"op", "code"}),
	}
}

// ObserveOperation records the duration of one registry operation. Call with
// time.Now() captured at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncError records a rejected operation.
func (m *Metrics) IncError(op, code string) {
	if m == nil {
		return
	}
	m.OperationErrors.WithLabelValues(op, code).Inc()
}
