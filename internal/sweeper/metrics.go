package sweeper

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	runs  *prometheus.CounterVec
	items *prometheus.CounterVec
}

// NewMetrics registers the sweep counters with reg; nil leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduling_sweep_runs_total",
				Help: "Maintenance sweep runs",
			},
			[]string{"sweep"},
		),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduling_sweep_items_total",
				Help: "Appointments handled by maintenance sweeps, by outcome",
			},
			[]string{"sweep", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.items)
	}
	return m
}

func (m *Metrics) observe(res *Result) {
	m.runs.WithLabelValues(res.Sweep).Inc()
	m.items.WithLabelValues(res.Sweep, "succeeded").Add(float64(res.Succeeded))
	m.items.WithLabelValues(res.Sweep, "skipped").Add(float64(res.Skipped))
	m.items.WithLabelValues(res.Sweep, "failed").Add(float64(res.Failed))
	if res.Err != nil {
		m.items.WithLabelValues(res.Sweep, "query_failed").Inc()
	}
}

// Items exposes one item series, mainly for tests.
func (m *Metrics) Items(sweep, outcome string) prometheus.Counter {
	return m.items.WithLabelValues(sweep, outcome)
}

func (m *Metrics) Runs(sweep string) prometheus.Counter {
	return m.runs.WithLabelValues(sweep)
}
