package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the outbox relay.
type Metrics struct {
	Relayed      prometheus.Counter
	SendFailures prometheus.Counter
	SendDuration prometheus.Histogram
	BreakerState prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Relayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synapse_relay_events_total",
			Help: "Total number of outbox events delivered downstream",
		}),
		SendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synapse_relay_send_failures_total",
			Help: "Total number of failed outbox batch deliveries",
		}),
		SendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "synapse_relay_send_duration_seconds",
			Help:    "Duration of outbox batch deliveries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "synapse_relay_circuit_breaker_state",
			Help: "Current relay circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

func (m *Metrics) AddRelayed(n int) {
	m.Relayed.Add(float64(n))
}

func (m *Metrics) IncSendFailures() {
	m.SendFailures.Inc()
}

func (m *Metrics) ObserveSendDuration(seconds float64) {
	m.SendDuration.Observe(seconds)
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.BreakerState.Set(1)
		return
	}
	m.BreakerState.Set(0)
}
