//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(chip string, pins Pins) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Move is not implemented on non-Linux platforms.
func (b *RealBoard) Move(cmd logic.Command) error {
	return errors.New("gpio: not supported")
}

// SetLighting is not implemented on non-Linux platforms.
func (b *RealBoard) SetLighting(on bool) error {
	return errors.New("gpio: not supported")
}

// Hazard is not implemented on non-Linux platforms.
func (b *RealBoard) Hazard() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Capabilities reports nothing fitted on non-Linux platforms.
func (b *RealBoard) Capabilities() logic.Capabilities {
	return logic.Capabilities{}
}

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}
