// Package adc reads the east and west light sensors through an analog to
// digital converter. The real implementation drives an MCP3008 over SPI.
// The fake implementation allows testing without hardware.
package adc

import (
	"errors"
	"fmt"

	"github.com/sweeney/solar-tracker/internal/logic"
)

// Reader reads raw 10-bit conversions (0-1023).
type Reader interface {
	Read(channel int) (int, error)
	Close() error
}

// Channel definitions on the MCP3008
const (
	ChannelEast = 0
	ChannelWest = 1
)

// Failed is the value substituted for a channel that could not be read. It
// sits below any valid range so the controller treats it as a sensor fault.
const Failed = -1

// ReadPair samples east then west. A channel that fails to read is reported
// as Failed; the returned error describes every failed channel.
func ReadPair(r Reader, east, west int) (logic.Reading, error) {
	var errs []error

	e, err := r.Read(east)
	if err != nil {
		e = Failed
		errs = append(errs, fmt.Errorf("read east channel %d: %w", east, err))
	}

	w, err := r.Read(west)
	if err != nil {
		w = Failed
		errs = append(errs, fmt.Errorf("read west channel %d: %w", west, err))
	}

	return logic.Reading{East: e, West: w}, errors.Join(errs...)
}
