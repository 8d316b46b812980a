package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for the appointment core. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	transitions   *prometheus.CounterVec
	optimistic    *prometheus.CounterVec
	redemptions   *prometheus.CounterVec
	consumption   prometheus.Counter
	remoteLatency *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Status transitions by origin, target and outcome.",
		}, []string{"from", "to", "outcome"}),
		optimistic: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "calendar",
			Name:      "optimistic_mutations_total",
			Help:      "Drag/resize mutations by kind and outcome (committed, rolled_back, rejected).",
		}, []string{"kind", "outcome"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "loyalty",
			Name:      "redemptions_total",
			Help:      "Reward redemptions requested alongside bookings.",
		}, []string{"outcome"}),
		consumption: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agenda",
			Subsystem: "materials",
			Name:      "consumed_cost_total",
			Help:      "Accumulated cost of consumed materials.",
		}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agenda",
			Subsystem: "remote",
			Name:      "request_seconds",
			Help:      "Latency of calls to the remote appointment service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.optimistic, m.redemptions, m.consumption, m.remoteLatency)
	return m
}

func (m *Metrics) ObserveTransition(from, to, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, outcome).Inc()
}

func (m *Metrics) ObserveOptimistic(kind, outcome string) {
	if m == nil {
		return
	}
	m.optimistic.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveRedemption(outcome string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddConsumedCost(v float64) {
	if m == nil || v <= 0 {
		return
	}
	m.consumption.Add(v)
}

func (m *Metrics) ObserveRemote(op, status string, seconds float64) {
	if m == nil {
		return
	}
	m.remoteLatency.WithLabelValues(op, status).Observe(seconds)
}
