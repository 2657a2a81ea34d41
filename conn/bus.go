// Package conn provides the serial bus transports used to talk to display controllers.
//
// A [Bus] is shared with other peripherals: a device is only addressed between
// [Bus.Select] and [Bus.Deselect], and drivers must never leave their device
// selected when they return.
package conn

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
)

// Errors
var (
	ErrNotSelected = errors.New("conn: transfer without device selected")
)

// Bus is a half-duplex serial bus.
type Bus interface {
	String() string

	// Close the bus.
	Close() error

	// Select the device (chip select active).
	Select() error

	// Deselect the device (chip select inactive).
	Deselect() error

	// TransferByte writes a single byte.
	TransferByte(b byte) error

	// Transfer writes a burst of bytes.
	Transfer(p []byte) error

	// Flush sends buffered writes while keeping the device selected, so that
	// pins such as data/command can change within one selection.
	Flush() error
}

// Pin is an output pin. Every [gpio.PinOut] is a Pin.
type Pin interface {
	Out(l gpio.Level) error
}
