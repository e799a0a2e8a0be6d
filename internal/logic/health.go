package logic

// ChannelOperational reports whether a single raw reading lies inside the
// valid range. Readings at or near the ADC rails mean a disconnected or
// shorted sensor, never extreme light.
func (c Config) ChannelOperational(v int) bool {
	return v >= c.SensorMinValid && v <= c.SensorMaxValid
}

// Operational reports whether both channels of r are valid. A single bad
// pair is enough: there is no debounce.
func (c Config) Operational(r Reading) bool {
	return c.ChannelOperational(r.East) && c.ChannelOperational(r.West)
}

// Dark reports whether both channels are below the darkness threshold.
// This is independent of the valid range check.
func (c Config) Dark(r Reading) bool {
	return r.East < c.DarkThreshold && r.West < c.DarkThreshold
}

// LightLevel returns the brighter of the operational channels. ok is false
// when neither channel is operational.
func (c Config) LightLevel(r Reading) (level int, ok bool) {
	if c.ChannelOperational(r.East) {
		level, ok = r.East, true
	}
	if c.ChannelOperational(r.West) && (!ok || r.West > level) {
		level, ok = r.West, true
	}
	return level, ok
}
