package rlcd

import (
	"fmt"
	"strings"

	"github.com/BeatGlow/rlcd/framebuffer"
	"github.com/BeatGlow/rlcd/internal/log"
)

// MaxSize is the largest supported width or height, in pixels.
const MaxSize = 800

// Model is a supported panel.
type Model uint8

// Supported models.
const (
	Waveshare400x300 Model = iota // Waveshare 4.2" 400×300, landscape
	Osptek200x200                 // Osptek 1.54" 200×200, portrait
	Custom                        // user supplied geometry
)

func (m Model) String() string {
	switch m {
	case Waveshare400x300:
		return "WAVESHARE_400X300"
	case Osptek200x200:
		return "OSPTEK_200X200"
	case Custom:
		return "CUSTOM"
	default:
		return fmt.Sprintf("Model(%d)", uint8(m))
	}
}

// ParseModel parses a model name such as "WAVESHARE_400X300", case insensitive.
func ParseModel(s string) (Model, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WAVESHARE_400X300":
		return Waveshare400x300, nil
	case "OSPTEK_200X200":
		return Osptek200x200, nil
	case "CUSTOM":
		return Custom, nil
	default:
		return 0, &ConfigurationError{Field: "model", Reason: fmt.Sprintf("unknown model %q", s)}
	}
}

// Orientation of the panel scan lines relative to the logical image.
type Orientation uint8

// Supported orientations.
const (
	NoOrientation Orientation = iota // not set
	Landscape                        // scan lines follow logical rows
	Portrait                         // scan lines follow logical columns
)

func (o Orientation) String() string {
	switch o {
	case Landscape:
		return "LANDSCAPE"
	case Portrait:
		return "PORTRAIT"
	default:
		return "unset"
	}
}

// ParseOrientation parses "LANDSCAPE" or "PORTRAIT", case insensitive.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LANDSCAPE":
		return Landscape, nil
	case "PORTRAIT":
		return Portrait, nil
	default:
		return NoOrientation, &ConfigurationError{Field: "orientation", Reason: fmt.Sprintf("unknown orientation %q", s)}
	}
}

// PanelConfig selects a panel. Width, Height and Orientation are only used by
// the Custom model, and are required there.
type PanelConfig struct {
	Model       Model
	Width       int
	Height      int
	Orientation Orientation
}

// Profile is the resolved geometry and controller parameters of a panel.
type Profile struct {
	Model       Model
	Width       int
	Height      int
	Orientation Orientation

	// GateLines is the gate line setting (GATESET).
	GateLines byte

	// ColumnStart and ColumnEnd are the fixed column address window (CASET).
	ColumnStart byte
	ColumnEnd   byte

	// RowStart and RowEnd are the fixed row address window (RASET).
	RowStart byte
	RowEnd   byte
}

// ResolveProfile validates c and returns the panel profile. Built-in models use
// their own geometry and ignore the geometry in c.
func ResolveProfile(c PanelConfig) (Profile, error) {
	switch c.Model {
	case Waveshare400x300:
		warnIgnored(c)
		return Profile{
			Model:       Waveshare400x300,
			Width:       400,
			Height:      300,
			Orientation: Landscape,
			GateLines:   0x64,
			ColumnStart: 0x12,
			ColumnEnd:   0x2A,
			RowEnd:      0xC7,
		}, nil
	case Osptek200x200:
		warnIgnored(c)
		return Profile{
			Model:       Osptek200x200,
			Width:       200,
			Height:      200,
			Orientation: Portrait,
			GateLines:   0x32,
			ColumnStart: 0x13,
			ColumnEnd:   0x25,
			RowEnd:      0x63,
		}, nil
	case Custom:
		return customProfile(c)
	default:
		return Profile{}, &ConfigurationError{Field: "model", Reason: fmt.Sprintf("unsupported %s", c.Model)}
	}
}

func warnIgnored(c PanelConfig) {
	if c.Width != 0 || c.Height != 0 || c.Orientation != NoOrientation {
		log.Debug("ignoring panel geometry for built-in model",
			"model", c.Model, "width", c.Width, "height", c.Height, "orientation", c.Orientation)
	}
}

func customProfile(c PanelConfig) (Profile, error) {
	if c.Width == 0 {
		return Profile{}, &ConfigurationError{Field: "width", Reason: "required for CUSTOM model"}
	}
	if c.Height == 0 {
		return Profile{}, &ConfigurationError{Field: "height", Reason: "required for CUSTOM model"}
	}
	if c.Orientation == NoOrientation {
		return Profile{}, &ConfigurationError{Field: "orientation", Reason: "required for CUSTOM model"}
	}

	p := Profile{
		Model:       Custom,
		Width:       c.Width,
		Height:      c.Height,
		Orientation: c.Orientation,
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}

	p.GateLines = byte(clamp(p.Height/3, 1, 0xFF))
	p.ColumnEnd = byte(clamp(p.Stride()-1, 0, 0xFF))
	// Two controller rows per gate line, as on the built-in panels.
	p.RowEnd = byte(clamp(2*int(p.GateLines)-1, 0, 0xFF))
	return p, nil
}

// Validate checks the profile invariants.
func (p Profile) Validate() error {
	if p.Width < 1 || p.Width > MaxSize {
		return &ConfigurationError{Field: "width", Reason: fmt.Sprintf("%d is outside 1..%d", p.Width, MaxSize)}
	}
	if p.Height < 1 || p.Height > MaxSize {
		return &ConfigurationError{Field: "height", Reason: fmt.Sprintf("%d is outside 1..%d", p.Height, MaxSize)}
	}
	if p.Orientation != Landscape && p.Orientation != Portrait {
		return &ConfigurationError{Field: "orientation", Reason: fmt.Sprintf("%s is not LANDSCAPE or PORTRAIT", p.Orientation)}
	}
	if p.ColumnEnd < p.ColumnStart {
		return &ConfigurationError{Field: "columns", Reason: fmt.Sprintf("window %#02x..%#02x is empty", p.ColumnStart, p.ColumnEnd)}
	}
	if p.RowEnd < p.RowStart {
		return &ConfigurationError{Field: "rows", Reason: fmt.Sprintf("window %#02x..%#02x is empty", p.RowStart, p.RowEnd)}
	}
	return nil
}

// Lines is the number of scan lines.
func (p Profile) Lines() int {
	if p.Orientation == Portrait {
		return p.Width
	}
	return p.Height
}

// Stride is the number of bytes in one scan line.
func (p Profile) Stride() int {
	if p.Orientation == Portrait {
		return (p.Height + 7) / 8
	}
	return (p.Width + 7) / 8
}

// BufferSize is the framebuffer size in bytes.
func (p Profile) BufferSize() int {
	return p.Lines() * p.Stride()
}

// Rows is the number of controller rows in the row address window.
func (p Profile) Rows() int {
	return int(p.RowEnd) - int(p.RowStart) + 1
}

// RowSize is the number of framebuffer bytes in one controller row. It is zero
// when the framebuffer does not divide into whole rows, and only full frames
// can then be written.
func (p Profile) RowSize() int {
	if n := p.Rows(); n > 0 && p.BufferSize()%n == 0 {
		return p.BufferSize() / n
	}
	return 0
}

func (p Profile) layout() framebuffer.Layout {
	if p.Orientation == Portrait {
		return framebuffer.ColumnMajor
	}
	return framebuffer.RowMajor
}

func (p Profile) String() string {
	return fmt.Sprintf("%s %dx%d %s", p.Model, p.Width, p.Height, p.Orientation)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
