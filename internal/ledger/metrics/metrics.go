package metrics

import (
	mathbig "math/big"
	"time"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the purchase ledger.
type Metrics struct {
	Purchases        prometheus.Counter
	PurchaseVolume   prometheus.Counter
	PurchaseFailures *prometheus.CounterVec
	PurchaseDuration prometheus.Histogram
}

// New creates and registers the ledger metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		Purchases: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synapse_purchases_total",
			Help: "Total number of settled purchases",
		}),
		PurchaseVolume: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synapse_purchase_volume_total",
			Help: "Gross amount settled across all purchases, in the asset's smallest unit (approximate)",
		}),
		PurchaseFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "synapse_purchase_failures_total",
			Help: "Failed purchases by error code",
		}, []string{"code"}),
		PurchaseDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "synapse_purchase_duration_seconds",
			Help:    "Duration of ExecutePurchase including both transfers",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementPurchase records a settled purchase and its gross amount.
func (m *Metrics) IncrementPurchase(amount big.Int) {
	m.Purchases.Inc()
	f, _ := new(mathbig.Float).SetInt(amount.Int).Float64()
	m.PurchaseVolume.Add(f)
}

func (m *Metrics) IncrementFailure(code string) {
	m.PurchaseFailures.WithLabelValues(code).Inc()
}

// ObservePurchase records the duration of a purchase.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObservePurchase(start time.Time) {
	m.PurchaseDuration.Observe(time.Since(start).Seconds())
}
