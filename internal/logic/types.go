// Package logic contains the pure decision core of the solar tracker.
// This package has NO external dependencies (no GPIO, ADC, MQTT, OS, or time.Sleep).
// Calendar time and monotonic uptime are always injected via Input.
package logic

import "time"

// State is the active variant of the tracker state machine.
type State string

const (
	StateIdle         State = "IDLE"
	StateTracking     State = "TRACKING"
	StateNightReset   State = "NIGHT_RESET"
	StateDormancy     State = "DORMANCY"
	StateRedundant    State = "REDUNDANT"
	StateHazardSafety State = "HAZARD_SAFETY"
	StateError        State = "ERROR"
)

// NightPhase tracks progress through the night reset sequence.
// It is only meaningful while the state is StateNightReset.
type NightPhase string

const (
	PhaseNone         NightPhase = ""
	PhaseEntering     NightPhase = "ENTERING"
	PhaseRetracting   NightPhase = "RETRACTING"
	PhaseLit          NightPhase = "LIT"
	PhaseAwaitingDawn NightPhase = "AWAITING_DAWN"
)

// Command is an actuator directive. Extend moves the collector west,
// Retract moves it east.
type Command string

const (
	CommandNone    Command = ""
	CommandExtend  Command = "EXTEND"
	CommandRetract Command = "RETRACT"
	CommandStop    Command = "STOP"
)

// Lighting is a lighting output change requested by a decision.
type Lighting string

const (
	LightingUnchanged Lighting = ""
	LightingOn        Lighting = "ON"
	LightingOff       Lighting = "OFF"
)

// EventTag identifies an audit log record.
type EventTag string

const (
	EventSystemStart    EventTag = "SYSTEM_START"
	EventError          EventTag = "ERROR"
	EventTracking       EventTag = "TRACKING"
	EventSensorFault    EventTag = "SENSOR_FAULT"
	EventRedundantMove  EventTag = "REDUNDANT_MOVE"
	EventNightResetInit EventTag = "NIGHT_RESET_INIT"
	EventLightingOff    EventTag = "LIGHTING_OFF"
	EventWakeUp         EventTag = "WAKE_UP"
	EventDormancyEnter  EventTag = "DORMANCY_ENTER"
	EventDormant        EventTag = "DORMANT"
	EventDormancyExit   EventTag = "DORMANCY_EXIT"
	EventHazardSafety   EventTag = "HAZARD_SAFETY"
	EventHazardClear    EventTag = "HAZARD_CLEAR"
)

// Reading is one east/west light sensor pair taken in a single cycle.
type Reading struct {
	East int
	West int
}

// Difference returns east minus west.
func (r Reading) Difference() int {
	return r.East - r.West
}

// Input is everything the controller observes in one cycle.
type Input struct {
	Reading Reading
	// Hazard is the wind/weather switch. Ignored without the hazard capability.
	Hazard bool
	// Clock is the local calendar time.
	Clock time.Time
	// Elapsed is monotonic uptime. Timers are measured against it, never against Clock.
	Elapsed time.Duration
}

// Directive is a single actuator instruction.
type Directive struct {
	Command Command
	// Pulse bounds a move: the command is held for Pulse and then stopped.
	// Zero means the command is latched until a later directive.
	Pulse time.Duration
}

// Event is an audit record for the event sink.
type Event struct {
	Timestamp  time.Time
	Tag        EventTag
	State      State
	East       int
	West       int
	Difference int
}

// Decision is the outcome of one controller cycle.
type Decision struct {
	From     State
	To       State
	Phase    NightPhase
	Actuator Directive
	Lighting Lighting
	Events   []Event
}

// Transitioned reports whether the cycle changed state.
func (d Decision) Transitioned() bool {
	return d.From != d.To
}

// Timers is a copy of the controller's monotonic timestamps.
type Timers struct {
	LastTrack     time.Duration
	RetractStart  time.Duration
	LightingStart time.Duration
	StowStart     time.Duration
}

// Capabilities lists the optional hardware fitted to this unit.
type Capabilities struct {
	Hazard   bool
	Lighting bool
}
