package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors shared by the settlement and
// notification layers.
type Metrics struct {
	SettlementRequests  *prometheus.CounterVec
	SettlementDurations *prometheus.HistogramVec
	PushFailures        prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SettlementRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_requests_total",
				Help: "Total number of settlement operation invocations.",
			},
			[]string{"operation", "outcome"},
		),
		SettlementDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settlement_duration_seconds",
				Help:    "Duration of settlement operations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		PushFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "notification_push_failures_total",
				Help: "Count of live notification pushes that failed.",
			},
		),
	}
	reg.MustRegister(m.SettlementRequests, m.SettlementDurations, m.PushFailures)
	return m
}

// NewNop returns unregistered collectors for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
