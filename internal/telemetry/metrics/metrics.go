// Package metrics wires the tick pipeline and connection manager to
// Prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the hub reports to.
type Metrics struct {
	TickDuration    prometheus.Histogram
	Broadcasts      prometheus.Counter
	Connections     prometheus.Gauge
	DroppedActions  *prometheus.CounterVec
	TickOverruns    prometheus.Counter
}

// New registers and returns a fresh Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monotanks",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one simulation tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monotanks",
			Name:      "broadcasts_total",
			Help:      "Total number of per-recipient state broadcasts sent.",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "monotanks",
			Name:      "connections",
			Help:      "Currently open connections (players and spectators).",
		}),
		DroppedActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monotanks",
			Name:      "dropped_actions_total",
			Help:      "Actions rejected by the dispatcher, labeled by reason.",
		}, []string{"reason"}),
		TickOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monotanks",
			Name:      "tick_overruns_total",
			Help:      "Ticks whose processing exceeded the broadcast interval.",
		}),
	}

	reg.MustRegister(m.TickDuration, m.Broadcasts, m.Connections, m.DroppedActions, m.TickOverruns)
	return m
}
