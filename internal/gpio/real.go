//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/solar-tracker/internal/logic"
)

const consumer = "solar-tracker"

// RealBoard drives the tracker from actual hardware using Linux GPIO character device.
type RealBoard struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
	pins Pins

	extend   *gpiocdev.Line
	retract  *gpiocdev.Line
	lighting *gpiocdev.Line // nil when not fitted
	hazard   *gpiocdev.Line // nil when not fitted
}

// NewRealBoard requests the tracker lines on the named chip (e.g. "gpiochip0").
// Outputs start de-energised.
func NewRealBoard(chip string, pins Pins) (*RealBoard, error) {
	c, err := gpiocdev.NewChip(chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealBoard{chip: c, pins: pins}

	if b.extend, err = c.RequestLine(pins.Extend, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request extend pin %d: %w", pins.Extend, err)
	}
	if b.retract, err = c.RequestLine(pins.Retract, gpiocdev.AsOutput(0)); err != nil {
		b.Close()
		return nil, fmt.Errorf("request retract pin %d: %w", pins.Retract, err)
	}

	if pins.Lighting >= 0 {
		if b.lighting, err = c.RequestLine(pins.Lighting, gpiocdev.AsOutput(0)); err != nil {
			b.Close()
			return nil, fmt.Errorf("request lighting pin %d: %w", pins.Lighting, err)
		}
	}

	if pins.Hazard >= 0 {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
		if pins.HazardActiveLow {
			opts = []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow}
		}
		if b.hazard, err = c.RequestLine(pins.Hazard, opts...); err != nil {
			b.Close()
			return nil, fmt.Errorf("request hazard pin %d: %w", pins.Hazard, err)
		}
	}

	return b, nil
}

// Move sets the relays for cmd. The relay being released is always written
// before the one being energised.
func (b *RealBoard) Move(cmd logic.Command) error {
	ext, ret, ok := relayLevels(cmd)
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	first, firstVal, second, secondVal := b.extend, ext, b.retract, ret
	if ext == 1 {
		first, firstVal, second, secondVal = b.retract, ret, b.extend, ext
	}
	if err := first.SetValue(firstVal); err != nil {
		return fmt.Errorf("move %s: %w", cmd, err)
	}
	if err := second.SetValue(secondVal); err != nil {
		return fmt.Errorf("move %s: %w", cmd, err)
	}
	return nil
}

// SetLighting switches the lighting output.
func (b *RealBoard) SetLighting(on bool) error {
	if b.lighting == nil {
		return ErrNotFitted
	}
	v := 0
	if on {
		v = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.lighting.SetValue(v); err != nil {
		return fmt.Errorf("set lighting: %w", err)
	}
	return nil
}

// Hazard returns the logical state of the hazard switch.
func (b *RealBoard) Hazard() (bool, error) {
	if b.hazard == nil {
		return false, ErrNotFitted
	}
	v, err := b.hazard.Value()
	if err != nil {
		return false, fmt.Errorf("read hazard pin: %w", err)
	}
	return v == 1, nil
}

// Capabilities reports the fitted optional lines.
func (b *RealBoard) Capabilities() logic.Capabilities {
	return b.pins.Capabilities()
}

// Close de-energises every output and releases GPIO resources.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing so the relays stay released through a reboot.
func (b *RealBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	release := func(name string, l *gpiocdev.Line, output bool) {
		if l == nil {
			return
		}
		if output {
			if err := l.SetValue(0); err != nil {
				errs = append(errs, fmt.Errorf("release %s pin: %w", name, err))
			}
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}

	release("extend", b.extend, true)
	release("retract", b.retract, true)
	release("lighting", b.lighting, true)
	release("hazard", b.hazard, false)
	b.extend, b.retract, b.lighting, b.hazard = nil, nil, nil, nil

	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
