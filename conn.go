package rlcd

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/rlcd/conn"
)

// Conn is the connection interface for communicating with hardware.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// HasReset reports whether a reset pin is wired.
	HasReset() bool

	// Reset sets the reset pin to the provided level.
	Reset(gpio.Level) error

	// Command sends a command byte in one bus selection.
	Command(byte) error

	// Data sends data bytes in one bus selection.
	Data(...byte) error

	// Write sends a command byte followed by its data, keeping the device
	// selected across both.
	Write(byte, ...byte) error
}

// SPIConfig describes the SPI bus configuration.
type SPIConfig struct {
	// Bus is the SPI port name, such as "/dev/spidev0.0" or "SPI0.0". Empty for the first port.
	Bus string

	// SpeedHz is the maximum clock speed.
	SpeedHz physic.Frequency

	// BatchSize limits the size of a single bus write.
	BatchSize int

	// Reset pin, optional.
	Reset gpio.PinOut

	// DC is the data/command pin, required.
	DC gpio.PinOut

	// CS is the chip select pin. When nil the SPI port drives chip select.
	CS gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	SpeedHz:   10 * physic.MegaHertz,
	BatchSize: conn.DefaultBatchSize,
}

// OpenSPI opens a SPI connection to the panel.
func OpenSPI(config *SPIConfig) (Conn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	dc := optionalPin(config.DC)
	if dc == nil {
		return nil, ErrDCPin
	}
	if config.SpeedHz == 0 {
		config.SpeedHz = DefaultSPIConfig.SpeedHz
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultSPIConfig.BatchSize
	}

	bus, err := conn.OpenSPI(config.Bus, config.SpeedHz, optionalPin(config.CS))
	if err != nil {
		return nil, err
	}
	bus.SetBatchSize(config.BatchSize)

	return NewConn(bus, dc, optionalPin(config.Reset))
}

func optionalPin(p gpio.PinOut) conn.Pin {
	if p == nil || p == gpio.INVALID {
		return nil
	}
	return p
}

type busConn struct {
	bus     conn.Bus
	dc      conn.Pin
	dcLevel gpio.Level
	dcSet   bool
	reset   conn.Pin
}

// NewConn returns a connection on bus, using dc to tell commands (low) from data (high).
// The reset pin is optional.
func NewConn(bus conn.Bus, dc, reset conn.Pin) (Conn, error) {
	if dc == nil {
		return nil, ErrDCPin
	}
	return &busConn{
		bus:   bus,
		dc:    dc,
		reset: reset,
	}, nil
}

func (c *busConn) String() string {
	return c.bus.String()
}

func (c *busConn) Close() error {
	return c.bus.Close()
}

func (c *busConn) HasReset() bool {
	return c.reset != nil
}

func (c *busConn) Reset(level gpio.Level) error {
	if c.reset == nil {
		return nil
	}
	return c.reset.Out(level)
}

func (c *busConn) updateDC(level gpio.Level) error {
	if c.dcSet && c.dcLevel == level {
		return nil
	}
	if err := c.dc.Out(level); err != nil {
		return fmt.Errorf("DC pin: %w", err)
	}
	c.dcLevel, c.dcSet = level, true
	return nil
}

func (c *busConn) Command(cmnd byte) (err error) {
	if err = c.updateDC(gpio.Low); err != nil {
		return
	}
	if err = c.bus.Select(); err != nil {
		return
	}
	defer c.deselect(&err)
	return c.bus.TransferByte(cmnd)
}

func (c *busConn) Data(data ...byte) (err error) {
	if len(data) == 0 {
		return
	}
	if err = c.updateDC(gpio.High); err != nil {
		return
	}
	if err = c.bus.Select(); err != nil {
		return
	}
	defer c.deselect(&err)
	return c.bus.Transfer(data)
}

func (c *busConn) Write(cmnd byte, data ...byte) (err error) {
	if len(data) == 0 {
		return c.Command(cmnd)
	}
	if err = c.updateDC(gpio.Low); err != nil {
		return
	}
	if err = c.bus.Select(); err != nil {
		return
	}
	defer c.deselect(&err)

	if err = c.bus.TransferByte(cmnd); err != nil {
		return
	}
	if err = c.bus.Flush(); err != nil {
		return
	}
	if err = c.updateDC(gpio.High); err != nil {
		return
	}
	return c.bus.Transfer(data)
}

func (c *busConn) deselect(err *error) {
	if derr := c.bus.Deselect(); *err == nil {
		*err = derr
	}
}
