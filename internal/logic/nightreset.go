package logic

// runNightReset advances the night sequence by one cycle. Retraction and
// lighting run side by side from entry; the wake check runs every cycle.
// Each call returns immediately so the hazard override stays responsive.
func (c *Controller) runNightReset(in Input) Decision {
	var d Decision
	now := in.Clock

	if c.phase == PhaseEntering {
		d.Events = append(d.Events, c.event(now, EventNightResetInit, Reading{}))
		c.timers.RetractStart = in.Elapsed
		c.retracting = true
		d.Actuator = Directive{Command: CommandRetract}

		if c.caps.Lighting && now.Hour() != c.cfg.LightingCutoffHour {
			c.timers.LightingStart = in.Elapsed
			c.lit = true
			d.Lighting = LightingOn
		}
	}

	if c.retracting && in.Elapsed-c.timers.RetractStart >= c.cfg.RetractDuration {
		c.retracting = false
		d.Actuator = stop
	}

	if c.lit {
		expired := in.Elapsed-c.timers.LightingStart >= c.cfg.LightingDuration
		midnight := now.Hour() == c.cfg.LightingCutoffHour
		if expired || midnight {
			c.lit = false
			d.Lighting = LightingOff
			d.Events = append(d.Events, c.event(now, EventLightingOff, Reading{}))
		}
	}

	c.phase = c.nightPhase()

	// After dead reckoning the sensors are untrusted; wake by time only.
	level, ok := c.cfg.LightLevel(in.Reading)
	lightWake := !c.degraded && ok && level > c.cfg.WakeThreshold
	dawn := now.Hour() == c.cfg.DawnHour && now.Minute() == c.cfg.DawnMinute
	if lightWake || dawn {
		d.Events = append(d.Events, c.event(now, EventWakeUp, in.Reading))
		d.Actuator = stop
		c.state = StateIdle
	}

	return d
}

func (c *Controller) nightPhase() NightPhase {
	switch {
	case c.retracting:
		return PhaseRetracting
	case c.lit:
		return PhaseLit
	default:
		return PhaseAwaitingDawn
	}
}
