// Package metrics exposes Prometheus instrumentation for the dialogue
// engine and transport.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors RecipeDesk registers.
type Metrics struct {
	// DispatchTotal counts dispatched events by flow and outcome.
	// Outcomes: continued, started, ended, aborted, dropped, failed.
	DispatchTotal *prometheus.CounterVec
	// ActiveSessions tracks the number of live conversation sessions.
	ActiveSessions prometheus.Gauge
	// InboundTotal counts inbound transport events by trigger kind.
	InboundTotal *prometheus.CounterVec
	// OutboundTotal counts outbound replies by delivery result.
	OutboundTotal *prometheus.CounterVec
}

// Dispatch outcome labels.
const (
	OutcomeContinued = "continued"
	OutcomeStarted   = "started"
	OutcomeEnded     = "ended"
	OutcomeAborted   = "aborted"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"
)

// New creates the collectors and registers them with the registerer.
// Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipedesk_dispatch_total",
				Help: "Dispatched conversation events by flow and outcome.",
			},
			[]string{"flow", "outcome"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recipedesk_active_sessions",
				Help: "Number of live conversation sessions.",
			},
		),
		InboundTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipedesk_inbound_events_total",
				Help: "Inbound transport events by trigger kind.",
			},
			[]string{"kind"},
		),
		OutboundTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipedesk_outbound_replies_total",
				Help: "Outbound replies by delivery result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.DispatchTotal, m.ActiveSessions, m.InboundTotal, m.OutboundTotal)
	return m
}
