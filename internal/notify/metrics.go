package notify

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels of scheduling_notifications_total.
const (
	OutcomeQueued  = "queued"
	OutcomeDropped = "dropped"
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type Metrics struct {
	notifications *prometheus.CounterVec
}

// NewMetrics registers the notification counters with reg. A nil reg leaves
// them unregistered, which tests use to avoid the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduling_notifications_total",
				Help: "Appointment notifications by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.notifications)
	}
	return m
}

func (m *Metrics) record(kind, outcome string) {
	m.notifications.WithLabelValues(kind, outcome).Inc()
}

// Counter exposes one series, mainly for tests.
func (m *Metrics) Counter(kind, outcome string) prometheus.Counter {
	return m.notifications.WithLabelValues(kind, outcome)
}
