// Package metrics exposes tracker state and activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/solar-tracker/internal/logic"
)

const namespace = "solar_tracker"

// States lists every controller state, in the order they are exported.
var States = []logic.State{
	logic.StateIdle,
	logic.StateTracking,
	logic.StateNightReset,
	logic.StateDormancy,
	logic.StateRedundant,
	logic.StateHazardSafety,
	logic.StateError,
}

// Collector owns a private registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	state      *prometheus.GaugeVec
	light      *prometheus.GaugeVec
	hazard     prometheus.Gauge
	lighting   prometheus.Gauge
	commands   *prometheus.CounterVec
	events     *prometheus.CounterVec
	sinkErrors *prometheus.CounterVec
}

// New creates a Collector with all series registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "1 for the active controller state, 0 otherwise.",
		}, []string{"state"}),
		light: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "light_level",
			Help:      "Last raw ADC reading per light sensor.",
		}, []string{"channel"}),
		hazard: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hazard",
			Help:      "1 while the hazard switch is active.",
		}),
		lighting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lighting_on",
			Help:      "1 while the lighting output is on.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuator_commands_total",
			Help:      "Actuator commands sent, by command.",
		}, []string{"command"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Audit events emitted, by tag.",
		}, []string{"event"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed writes, by sink.",
		}, []string{"sink"}),
	}

	c.registry.MustRegister(c.state, c.light, c.hazard, c.lighting, c.commands, c.events, c.sinkErrors)
	c.registry.MustRegister(collectors.NewGoCollector())
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records the state and inputs of one control loop cycle.
func (c *Collector) ObserveCycle(state logic.State, r logic.Reading, hazard, lighting bool) {
	for _, s := range States {
		v := 0.0
		if s == state {
			v = 1
		}
		c.state.WithLabelValues(string(s)).Set(v)
	}
	c.light.WithLabelValues("east").Set(float64(r.East))
	c.light.WithLabelValues("west").Set(float64(r.West))
	c.hazard.Set(boolFloat(hazard))
	c.lighting.Set(boolFloat(lighting))
}

// ObserveCommand counts an actuator command sent to the hardware.
func (c *Collector) ObserveCommand(cmd logic.Command) {
	if cmd == logic.CommandNone {
		return
	}
	c.commands.WithLabelValues(string(cmd)).Inc()
}

// ObserveEvents counts audit events by tag.
func (c *Collector) ObserveEvents(events []logic.Event) {
	for _, e := range events {
		c.events.WithLabelValues(string(e.Tag)).Inc()
	}
}

// SinkError counts a failed write to sink ("datalog", "mqtt", "gpio", "console").
func (c *Collector) SinkError(sink string) {
	c.sinkErrors.WithLabelValues(sink).Inc()
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
