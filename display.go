// Package rlcd drives reflective LCD panels built on the Sitronix ST7305 controller.
//
// The driver keeps a packed 1-bit framebuffer in memory, tracks which scan lines
// changed since the last transfer and pushes only those lines to the panel when
// it is refreshed. Panels are connected through a [Conn], usually a SPI bus with
// a data/command line and an optional reset line.
package rlcd

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/BeatGlow/rlcd/internal/log"
)

func init() {
	if os.Getenv("DISPLAY_DEBUG") != "" {
		log.SetLevel(log.LevelDebug)
	}
}

// Errors
var (
	ErrDCPin          = errors.New("rlcd: data/command (DC) GPIO pin is invalid")
	ErrFaulted        = errors.New("rlcd: display faulted")
	ErrNotInitialized = errors.New("rlcd: display not initialized")
	ErrClosed         = errors.New("rlcd: display closed")
)

// ConfigurationError reports an invalid or missing panel setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rlcd: invalid %s: %s", e.Field, e.Reason)
}

// TransportError is a failed bus or pin operation. It faults the display and
// matches [ErrFaulted] with errors.Is.
type TransportError struct {
	// Op is the driver operation that was running.
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rlcd: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrFaulted
}

// State of the refresh state machine.
type State uint8

// Supported states.
const (
	Uninitialized State = iota
	Initializing
	Idle
	Refreshing
	Faulted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Surface is the drawing surface handed to a [Writer].
type Surface interface {
	draw.Image

	// Fill the whole surface with a single color.
	Fill(color.Color)

	// FillRect fills the part of the rectangle that overlaps the surface.
	FillRect(image.Rectangle, color.Color)

	// Clear turns all pixels off.
	Clear()
}

// Writer draws a frame. It is called once per refresh, before the transfer, and
// must only draw on the surface it is given.
type Writer func(Surface)

// Display is a bilevel reflective LCD.
type Display interface {
	Surface

	// Close the display driver.
	Close() error

	// Show toggles the display on or off.
	Show(bool) error

	// Refresh pushes the changed part of the framebuffer to the panel.
	Refresh() error

	// State of the driver.
	State() State

	// Err is the fault that stopped the driver, if any.
	Err() error
}
