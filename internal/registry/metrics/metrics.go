package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "synapse/pkg/domain"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	PlansPublished     prometheus.Counter
	DuplicatesRejected prometheus.Counter
	Retiers            *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
}

// New creates and registers the registry metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		PlansPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synapse_plans_published_total",
			Help: "Total number of plans stored in the registry",
		}),
		DuplicatesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synapse_plans_duplicate_content_total",
			Help: "Publish attempts rejected because the content hash was already indexed",
		}),
		Retiers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "synapse_plan_retiers_total",
			Help: "Explicit tier changes by target tier",
		}, []string{"tier"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "synapse_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementPublished() {
	m.PlansPublished.Inc()
}

func (m *Metrics) IncrementDuplicate() {
	m.DuplicatesRejected.Inc()
}

func (m *Metrics) IncrementRetier(tier id.Tier) {
	m.Retiers.WithLabelValues(tier.String()).Inc()
}

// ObserveOperation records the duration of op.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
