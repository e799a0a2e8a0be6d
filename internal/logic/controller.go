package logic

import "time"

var stop = Directive{Command: CommandStop}

// Controller owns the tracker state machine, its timers and thresholds.
// Not safe for concurrent use: the control loop is its only caller.
type Controller struct {
	cfg  Config
	caps Capabilities

	state  State
	phase  NightPhase
	timers Timers

	// Night reset and hazard progress.
	retracting bool
	lit        bool
	stowing    bool
	// degraded marks a night reset entered from Redundant: only the dawn
	// time ends it.
	degraded bool

	// Start of the calendar hour of the last dormancy heartbeat.
	lastHeartbeat time.Time
}

// NewController creates a controller in StateIdle. Call Start before Step.
func NewController(cfg Config, caps Capabilities) *Controller {
	return &Controller{
		cfg:   cfg,
		caps:  caps,
		state: StateIdle,
	}
}

// State returns the active state.
func (c *Controller) State() State {
	return c.state
}

// Phase returns the night reset phase, or PhaseNone outside StateNightReset.
func (c *Controller) Phase() NightPhase {
	return c.phase
}

// Timers returns a copy of the monotonic timers.
func (c *Controller) Timers() Timers {
	return c.timers
}

// Config returns the thresholds the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

// Capabilities returns the optional hardware the controller drives.
func (c *Controller) Capabilities() Capabilities {
	return c.caps
}

// Start runs the boot checks. A non-nil initErr (clock or persistent store
// failed to initialise) puts the controller in StateError for the rest of the
// session. Otherwise it starts Idle, or Dormancy outside the active season.
func (c *Controller) Start(now time.Time, initErr error) Decision {
	from := c.state
	d := Decision{Actuator: stop}
	if c.caps.Lighting {
		d.Lighting = LightingOff
	}

	c.phase = PhaseNone
	c.retracting, c.lit, c.stowing, c.degraded = false, false, false, false

	if initErr != nil {
		c.state = StateError
		d.Events = append(d.Events, c.event(now, EventError, Reading{}))
	} else {
		c.state = StateIdle
		d.Events = append(d.Events, c.event(now, EventSystemStart, Reading{}))
		if !c.cfg.InSeason(now.Month()) {
			c.state = StateDormancy
		}
	}

	d.From = from
	d.To = c.state
	return d
}

// Step runs one cycle: hazard override first, then the handler for the
// active state. StateError ignores every input.
func (c *Controller) Step(in Input) Decision {
	from := c.state

	var d Decision
	switch {
	case c.state == StateError:
		d = Decision{Actuator: stop}
	case c.caps.Hazard && in.Hazard:
		d = c.runHazard(in)
	default:
		d = c.dispatch(in)
	}

	return c.finish(from, d)
}

func (c *Controller) dispatch(in Input) Decision {
	switch c.state {
	case StateIdle:
		return c.runIdle(in)
	case StateTracking:
		return c.runTracking(in)
	case StateRedundant:
		return c.runRedundant(in)
	case StateDormancy:
		return c.runDormancy(in)
	case StateNightReset:
		return c.runNightReset(in)
	case StateHazardSafety:
		return c.clearHazard(in)
	}
	return Decision{Actuator: stop}
}

// finish applies the rules shared by every transition: an exit that does not
// start a move stops the actuator, and leaving the night reset turns the
// lights off.
func (c *Controller) finish(from State, d Decision) Decision {
	d.From = from
	d.To = c.state

	if d.Transitioned() {
		if d.Actuator.Command == CommandNone {
			d.Actuator = stop
		}
		switch from {
		case StateNightReset:
			c.retracting, c.lit, c.degraded = false, false, false
			if c.caps.Lighting {
				d.Lighting = LightingOff
			}
		case StateHazardSafety:
			c.stowing = false
		}
		if d.To == StateNightReset {
			c.phase = PhaseEntering
		} else {
			c.phase = PhaseNone
		}
	}

	d.Phase = c.phase
	return d
}

func (c *Controller) runIdle(in Input) Decision {
	var d Decision
	r := in.Reading

	if c.cfg.Dark(r) {
		if in.Clock.Hour() > c.cfg.EveningHour {
			c.state = StateNightReset
			return d
		}
		// Dark in daytime: storm or heavy cloud, not night.
		d.Events = append(d.Events, c.event(in.Clock, EventDormancyEnter, r))
		c.state = StateDormancy
		return d
	}

	if !c.cfg.Operational(r) {
		d.Events = append(d.Events, c.event(in.Clock, EventSensorFault, r))
		c.state = StateRedundant
		return d
	}

	if in.Elapsed-c.timers.LastTrack > c.cfg.TrackingInterval {
		c.state = StateTracking
	}
	return d
}

func (c *Controller) runTracking(in Input) Decision {
	r := in.Reading
	diff := r.Difference()
	d := Decision{Events: []Event{c.event(in.Clock, EventTracking, r)}}

	switch {
	case !c.cfg.Operational(r):
		d.Events = append(d.Events, c.event(in.Clock, EventSensorFault, r))
		d.Actuator = stop
		c.state = StateRedundant
	case abs(diff) <= c.cfg.BalanceThreshold:
		d.Actuator = stop
		c.timers.LastTrack = in.Elapsed
		c.state = StateIdle
	case diff > c.cfg.BalanceThreshold:
		// East brighter: pulse west, re-measure next cycle.
		d.Actuator = Directive{Command: CommandExtend, Pulse: c.cfg.TrackPulse}
	default:
		d.Actuator = Directive{Command: CommandRetract, Pulse: c.cfg.TrackPulse}
	}
	return d
}

// runRedundant dead-reckons westward on the tracking cadence. Once degraded
// the controller stays here until night; healthy readings are only noticed
// again from Idle. The night hour is only checked after a move.
func (c *Controller) runRedundant(in Input) Decision {
	var d Decision

	if in.Elapsed-c.timers.LastTrack <= c.cfg.TrackingInterval {
		return d
	}

	d.Events = append(d.Events, c.event(in.Clock, EventRedundantMove, Reading{}))
	d.Actuator = Directive{Command: CommandExtend, Pulse: c.cfg.DeadReckoningPulse}
	c.timers.LastTrack = in.Elapsed

	if in.Clock.Hour() >= c.cfg.NightHour {
		c.state = StateNightReset
		c.degraded = true
	}
	return d
}

func (c *Controller) runDormancy(in Input) Decision {
	d := Decision{Actuator: stop}
	now := in.Clock

	if c.cfg.InSeason(now.Month()) {
		if level, ok := c.cfg.LightLevel(in.Reading); ok && level > c.cfg.DormancyRecoveryThreshold {
			d.Events = append(d.Events, c.event(now, EventDormancyExit, in.Reading))
			c.state = StateIdle
			return d
		}
	}

	if now.Minute() == 0 && now.Second() == 0 {
		hour := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
		if !hour.Equal(c.lastHeartbeat) {
			c.lastHeartbeat = hour
			d.Events = append(d.Events, c.event(now, EventDormant, Reading{}))
		}
	}
	return d
}

func (c *Controller) runHazard(in Input) Decision {
	var d Decision

	if c.state != StateHazardSafety {
		d.Events = append(d.Events, c.event(in.Clock, EventHazardSafety, in.Reading))
		c.state = StateHazardSafety
		c.timers.StowStart = in.Elapsed
		c.stowing = c.cfg.StowDuration > 0
		if c.caps.Lighting {
			d.Lighting = LightingOff
		}
		if c.stowing {
			d.Actuator = Directive{Command: CommandRetract}
		} else {
			d.Actuator = stop
		}
		return d
	}

	if c.stowing && in.Elapsed-c.timers.StowStart < c.cfg.StowDuration {
		return d
	}
	c.stowing = false
	d.Actuator = stop
	return d
}

func (c *Controller) clearHazard(in Input) Decision {
	d := Decision{Actuator: stop}
	d.Events = append(d.Events, c.event(in.Clock, EventHazardClear, in.Reading))
	c.state = StateIdle
	return d
}

func (c *Controller) event(now time.Time, tag EventTag, r Reading) Event {
	return Event{
		Timestamp:  now,
		Tag:        tag,
		State:      c.state,
		East:       r.East,
		West:       r.West,
		Difference: r.Difference(),
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
