//go:build linux

package adc

import (
	"fmt"

	"gobot.io/x/gobot/v2/drivers/spi"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// MCP3008 reads an MCP3008 on the Raspberry Pi SPI bus.
type MCP3008 struct {
	adaptor *raspi.Adaptor
	driver  *spi.MCP3008Driver
}

// NewMCP3008 opens the converter on the given SPI bus and chip select.
func NewMCP3008(bus, chip int) (*MCP3008, error) {
	a := raspi.NewAdaptor()
	if err := a.Connect(); err != nil {
		return nil, fmt.Errorf("connect raspi adaptor: %w", err)
	}

	d := spi.NewMCP3008Driver(a, spi.WithBusNumber(bus), spi.WithChipNumber(chip))
	if err := d.Start(); err != nil {
		a.Finalize()
		return nil, fmt.Errorf("start mcp3008 on bus %d chip %d: %w", bus, chip, err)
	}

	return &MCP3008{adaptor: a, driver: d}, nil
}

// Read returns the single-ended conversion of channel.
func (m *MCP3008) Read(channel int) (int, error) {
	v, err := m.driver.Read(channel)
	if err != nil {
		return 0, fmt.Errorf("mcp3008 channel %d: %w", channel, err)
	}
	return v, nil
}

// Close halts the driver and releases the SPI device.
func (m *MCP3008) Close() error {
	var errs []error
	if err := m.driver.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("halt mcp3008: %w", err))
	}
	if err := m.adaptor.Finalize(); err != nil {
		errs = append(errs, fmt.Errorf("finalize adaptor: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
