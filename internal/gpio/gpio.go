// Package gpio drives the actuator relays and lighting output and reads the
// hazard switch. The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// Actuator drives the linear actuator. Extend moves the collector west,
// Retract moves it east. Both relays are never energised together.
type Actuator interface {
	Move(cmd logic.Command) error
}

// Lighting switches the lighting output.
type Lighting interface {
	SetLighting(on bool) error
}

// HazardSensor reads the wind/weather switch. true = hazard present.
type HazardSensor interface {
	Hazard() (bool, error)
}

// Board is the full set of tracker I/O.
type Board interface {
	Actuator
	Lighting
	HazardSensor

	// Capabilities reports which optional lines are fitted.
	Capabilities() logic.Capabilities

	// Close stops the actuator, turns the lights off and releases resources.
	Close() error
}

// ErrNotFitted is returned when an optional line has no pin assigned.
var ErrNotFitted = errors.New("gpio: line not fitted")

// Pins holds BCM line offsets. A negative offset means not fitted.
type Pins struct {
	Extend   int `yaml:"extend"`
	Retract  int `yaml:"retract"`
	Lighting int `yaml:"lighting"`
	Hazard   int `yaml:"hazard"`
	// HazardActiveLow inverts the hazard input (switch pulls the line to ground).
	HazardActiveLow bool `yaml:"hazard_active_low"`
}

// Pin definitions (BCM numbering)
const (
	PinExtend   = 17
	PinRetract  = 27
	PinLighting = 22
	PinHazard   = 5
)

// DefaultPins returns the standard wiring with every optional line fitted.
func DefaultPins() Pins {
	return Pins{
		Extend:          PinExtend,
		Retract:         PinRetract,
		Lighting:        PinLighting,
		Hazard:          PinHazard,
		HazardActiveLow: true,
	}
}

// Capabilities derives the optional hardware from the pin assignment.
func (p Pins) Capabilities() logic.Capabilities {
	return logic.Capabilities{
		Lighting: p.Lighting >= 0,
		Hazard:   p.Hazard >= 0,
	}
}

// relayLevels maps an actuator command to (extend, retract) line values.
// ok is false for CommandNone, which leaves the relays as they are.
func relayLevels(cmd logic.Command) (extend, retract int, ok bool) {
	switch cmd {
	case logic.CommandExtend:
		return 1, 0, true
	case logic.CommandRetract:
		return 0, 1, true
	case logic.CommandStop:
		return 0, 0, true
	}
	return 0, 0, false
}
