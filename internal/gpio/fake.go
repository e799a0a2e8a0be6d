package gpio

import (
	"sync"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// FakeBoard is a test double that records outputs and returns scripted hazard values.
type FakeBoard struct {
	mu sync.Mutex

	// Caps is returned by Capabilities.
	Caps logic.Capabilities

	// Moves records every command passed to Move, CommandNone excluded.
	Moves []logic.Command
	// Extend and Retract mirror the relay lines.
	Extend, Retract bool

	// LightingCalls records every SetLighting value.
	LightingCalls []bool
	Lit           bool

	// HazardSamples contains scripted hazard values. Each call to Hazard()
	// consumes the next sample; the last repeats once exhausted.
	HazardSamples []bool
	hazardIndex   int

	// MoveError and HazardError, if set, are returned by Move and Hazard.
	MoveError   error
	HazardError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeBoard creates a FakeBoard with the given capabilities.
func NewFakeBoard(caps logic.Capabilities) *FakeBoard {
	return &FakeBoard{Caps: caps}
}

// Move records cmd and updates the relay mirror.
func (f *FakeBoard) Move(cmd logic.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.MoveError != nil {
		return f.MoveError
	}
	ext, ret, ok := relayLevels(cmd)
	if !ok {
		return nil
	}
	f.Moves = append(f.Moves, cmd)
	f.Extend, f.Retract = ext == 1, ret == 1
	return nil
}

// SetLighting records on.
func (f *FakeBoard) SetLighting(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.Caps.Lighting {
		return ErrNotFitted
	}
	f.LightingCalls = append(f.LightingCalls, on)
	f.Lit = on
	return nil
}

// Hazard returns the next scripted sample, false when none are configured.
func (f *FakeBoard) Hazard() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.Caps.Hazard {
		return false, ErrNotFitted
	}
	if f.HazardError != nil {
		return false, f.HazardError
	}
	if len(f.HazardSamples) == 0 {
		return false, nil
	}
	v := f.HazardSamples[f.hazardIndex]
	if f.hazardIndex < len(f.HazardSamples)-1 {
		f.hazardIndex++
	}
	return v, nil
}

// Capabilities returns Caps.
func (f *FakeBoard) Capabilities() logic.Capabilities {
	return f.Caps
}

// Close releases the relays, turns the lights off and marks the board closed.
func (f *FakeBoard) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Extend, f.Retract, f.Lit = false, false, false
	f.Closed = true
	return nil
}

// MoveHistory returns a copy of the recorded moves.
func (f *FakeBoard) MoveHistory() []logic.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Command(nil), f.Moves...)
}

// LightingHistory returns a copy of the recorded lighting calls.
func (f *FakeBoard) LightingHistory() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.LightingCalls...)
}
