package vm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's execution counters.
type Metrics struct {
	calls      *prometheus.CounterVec
	arenaBytes *prometheus.HistogramVec
	duration   *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "greeter_contract_calls_total",
				Help: "Total number of contract calls by function and outcome",
			},
			[]string{"function", "outcome"},
		),
		arenaBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "greeter_contract_arena_bytes",
				Help:    "Arena bytes used per contract call",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"function"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "greeter_contract_call_duration_seconds",
				Help: "Duration of contract calls",
			},
			[]string{"function"},
		),
	}

	for _, c := range []prometheus.Collector{m.calls, m.arenaBytes, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(function string, success bool, arenaBytes uint32, seconds float64) {
	outcome := "success"
	if !success {
		outcome = "reverted"
	}
	m.calls.WithLabelValues(function, outcome).Inc()
	m.arenaBytes.WithLabelValues(function).Observe(float64(arenaBytes))
	m.duration.WithLabelValues(function).Observe(seconds)
}
