package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/monitoring"
)

// Metrics holds all Prometheus metrics for the Towncrier engine.
type Metrics struct {
	// Simulation throughput
	CascadeRuns  *prometheus.CounterVec // mode, status
	Posts        *prometheus.CounterVec // kind, origin
	Engagements  *prometheus.CounterVec // type
	Fallbacks    *prometheus.CounterVec // stage
	TickDuration *prometheus.HistogramVec

	// Crisis lifecycle
	CrisisPhase       *prometheus.GaugeVec   // phase, one-hot
	PhaseTransitions  *prometheus.CounterVec // from, to
	ActiveSimulations *prometheus.GaugeVec   // type

	// Fan-out
	HubConnections *prometheus.GaugeVec   // channel
	EventsDropped  *prometheus.CounterVec // channel

	// Kafka egress, assigned in main only when a producer is configured
	KafkaMessages *prometheus.CounterVec   // topic, operation, status
	KafkaDuration *prometheus.HistogramVec // operation
}

// New registers the engine's metric families on the shared collector.
func New(collector *monitoring.MetricsCollector) *Metrics {
	return &Metrics{
		CascadeRuns:  collector.NewCounter("cascade_runs_total", "Cascade generation runs", []string{"mode", "status"}),
		Posts:        collector.NewCounter("simulation_posts_total", "Posts created by the simulation", []string{"kind", "origin"}),
		Engagements:  collector.NewCounter("simulation_engagements_total", "Synthetic engagements recorded", []string{"type"}),
		Fallbacks:    collector.NewCounter("content_fallbacks_total", "Content generations served from canned templates", []string{"stage"}),
		TickDuration: collector.NewHistogram("cascade_tick_duration_seconds", "Wall-clock duration of cascade ticks", []string{"mode"}, nil),

		CrisisPhase:       collector.NewGauge("crisis_phase", "Current crisis phase as a one-hot gauge", []string{"phase"}),
		PhaseTransitions:  collector.NewCounter("crisis_phase_transitions_total", "Crisis phase transitions", []string{"from", "to"}),
		ActiveSimulations: collector.NewGauge("active_simulations", "Active simulation entities", []string{"type"}),

		HubConnections: collector.NewGauge("websocket_hub_connections_active", "Active WebSocket hub connections", []string{"channel"}),
		EventsDropped:  collector.NewCounter("realtime_events_dropped_total", "Events dropped by slow subscribers", []string{"channel"}),
	}
}

// SetPhase flips the one-hot phase gauge to the given phase. A nil receiver
// or empty phase clears nothing and is safe.
func (m *Metrics) SetPhase(phase models.CrisisPhase) {
	if m == nil || m.CrisisPhase == nil {
		return
	}
	for _, p := range []models.CrisisPhase{
		models.PhaseDormant, models.PhaseEmerging, models.PhaseEscalating,
		models.PhasePeak, models.PhaseDeclining, models.PhaseResolved,
	} {
		value := 0.0
		if p == phase {
			value = 1.0
		}
		m.CrisisPhase.WithLabelValues(string(p)).Set(value)
	}
}
