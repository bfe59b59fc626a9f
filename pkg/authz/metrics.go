package authz

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Decision outcomes recorded by the gate
const (
	outcomeAllowed   = "allowed"
	outcomeDenied    = "denied"
	outcomeNoSession = "no_session"
	outcomeError     = "error"
)

// Metrics holds Prometheus metrics for authorization decisions
type Metrics struct {
	DecisionsTotal       *prometheus.CounterVec
	LastOwnerChecksTotal *prometheus.CounterVec
}

// NewMetrics creates and registers authorization metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gearbox_authz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"action", "outcome"},
		),
		LastOwnerChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gearbox_authz_last_owner_checks_total",
				Help: "Total number of last-owner invariant checks",
			},
			[]string{"result"},
		),
	}

	if registry != nil {
		registry.MustRegister(m.DecisionsTotal, m.LastOwnerChecksTotal)
	}

	return m
}

func (m *Metrics) recordDecision(action Action, outcome string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(string(action), outcome).Inc()
}

func (m *Metrics) recordLastOwnerCheck(last bool) {
	if m == nil {
		return
	}
	result := "not_last"
	if last {
		result = "last"
	}
	m.LastOwnerChecksTotal.WithLabelValues(result).Inc()
}
