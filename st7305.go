package rlcd

import (
	"fmt"
	"strings"
	"time"

	"github.com/BeatGlow/rlcd/framebuffer"
)

// Registers (from ST7305 datasheet).
const (
	st7305NOP      = 0x00
	st7305SWRESET  = 0x01 // Software Reset
	st7305SLPIN    = 0x10 // Sleep In
	st7305SLPOUT   = 0x11 // Sleep Out
	st7305INVOFF   = 0x20 // Display Inversion Off
	st7305INVON    = 0x21 // Display Inversion On
	st7305DISPOFF  = 0x28 // Display Off
	st7305DISPON   = 0x29 // Display On
	st7305CASET    = 0x2A // Column Address Set
	st7305RASET    = 0x2B // Row Address Set
	st7305RAMWR    = 0x2C // Memory Write
	st7305TEON     = 0x35 // Tearing Effect Line On
	st7305MADCTL   = 0x36 // Memory Data Access Control
	st7305HPM      = 0x38 // High Power Mode
	st7305LPM      = 0x39 // Low Power Mode
	st7305DTFORM   = 0x3A // Data Format Select
	st7305GTCON    = 0x62 // Gate Timing Control
	st7305GATESET  = 0xB0 // Gate Line Setting
	st7305FRCTRL   = 0xB2 // Frame Rate Control
	st7305GTUPEQH  = 0xB3 // Update Period Gate EQ Control in HPM
	st7305GTUPEQL  = 0xB4 // Update Period Gate EQ Control in LPM
	st7305SOUEQ    = 0xB7 // Source EQ Enable
	st7305PNLSET   = 0xB8 // Panel Setting
	st7305GAMAMS   = 0xB9 // Gamma Mode Setting
	st7305GCTRL    = 0xC0 // Gate Voltage Control
	st7305VSHPCTRL = 0xC1 // Source High Positive Voltage Control
	st7305VSLPCTRL = 0xC2 // Source Low Positive Voltage Control
	st7305VSHNCTRL = 0xC4 // Source High Negative Voltage Control
	st7305VSLNCTRL = 0xC5 // Source Low Negative Voltage Control
	st7305VSIKSEL  = 0xC9 // Source Voltage Select
	st7305AUTOPWR  = 0xD0 // Auto Power Down Control
	st7305BSTEN    = 0xD1 // Booster Enable
	st7305NVMLOAD  = 0xD6 // NVM Load Control
	st7305OSCSET   = 0xD8 // OSC Setting
)

// Datasheet timings.
const (
	resetHold     = 50 * time.Millisecond  // reset high before and after the pulse
	resetPulse    = 20 * time.Millisecond  // reset low
	resetSettle   = 120 * time.Millisecond // after SWRESET
	sleepOutDelay = 200 * time.Millisecond // after SLPOUT during setup
	wakeDelay     = 120 * time.Millisecond // after SLPOUT before the next command
)

// Step is one command with its parameter or pixel bytes. The command and its
// data are sent in separate bus selections unless Hold is set.
type Step struct {
	Cmd  byte
	Data []byte

	// Hold keeps the device selected across the command and its data.
	Hold bool

	// Delay is the settle time after the step.
	Delay time.Duration
}

func (s Step) String() string {
	if len(s.Data) > 8 {
		return fmt.Sprintf("%#02x +%d bytes", s.Cmd, len(s.Data))
	}
	if len(s.Data) == 0 {
		return fmt.Sprintf("%#02x", s.Cmd)
	}
	return fmt.Sprintf("%#02x % x", s.Cmd, s.Data)
}

// TransferPlan is an ordered bus transaction sequence.
type TransferPlan []Step

// Bytes is the total number of bytes in the plan.
func (p TransferPlan) Bytes() (n int) {
	for _, s := range p {
		n += 1 + len(s.Data)
	}
	return
}

func (p TransferPlan) String() string {
	steps := make([]string, len(p))
	for i, s := range p {
		steps[i] = s.String()
	}
	return "[" + strings.Join(steps, ", ") + "]"
}

// encoder translates panel state to ST7305 command sequences.
type encoder struct {
	profile  Profile
	inverted bool
}

// initPlan is the power-on register setup, ending with the display on.
// The order is significant.
func (e encoder) initPlan() TransferPlan {
	inversion := byte(st7305INVOFF)
	if e.inverted {
		inversion = st7305INVON
	}

	plan := TransferPlan{
		{Cmd: st7305NVMLOAD, Data: []byte{0x17, 0x02}},              // NVM load: enable
		{Cmd: st7305BSTEN, Data: []byte{0x01}},                      // Booster: on
		{Cmd: st7305GCTRL, Data: []byte{0x11, 0x04}},                // Gate voltage
		{Cmd: st7305VSHPCTRL, Data: []byte{0x69, 0x69, 0x69, 0x69}}, // VSHP
		{Cmd: st7305VSLPCTRL, Data: []byte{0x19, 0x19, 0x19, 0x19}}, // VSLP
		{Cmd: st7305VSHNCTRL, Data: []byte{0x4B, 0x4B, 0x4B, 0x4B}}, // VSHN
		{Cmd: st7305VSLNCTRL, Data: []byte{0x19, 0x19, 0x19, 0x19}}, // VSLN
		{Cmd: st7305OSCSET, Data: []byte{0x80, 0xE9}},               // OSC
		{Cmd: st7305FRCTRL, Data: []byte{0x02}},                     // Frame rate
		{Cmd: st7305GTUPEQH, Data: []byte{0xE5, 0xF6, 0x05, 0x46, 0x77, 0x77, 0x77, 0x77, 0x76, 0x45}},
		{Cmd: st7305GTUPEQL, Data: []byte{0x05, 0x46, 0x77, 0x77, 0x77, 0x77, 0x76, 0x45}},
		{Cmd: st7305GTCON, Data: []byte{0x32, 0x03, 0x1F}},
		{Cmd: st7305SOUEQ, Data: []byte{0x13}},
		{Cmd: st7305GATESET, Data: []byte{e.profile.GateLines}},
		{Cmd: st7305SLPOUT, Delay: sleepOutDelay},
		{Cmd: st7305VSIKSEL, Data: []byte{0x00}}, // VSHP1/VSLP1/VSHN1/VSLN1
		{Cmd: st7305MADCTL, Data: []byte{0x48}},  // MX=1, DO=1
		{Cmd: st7305DTFORM, Data: []byte{0x11}},  // 1-bit monochrome
		{Cmd: st7305GAMAMS, Data: []byte{0x20}},  // monochrome gamma
		{Cmd: st7305PNLSET, Data: []byte{0x29}},  // 1-dot and frame inversion, interlace
		{Cmd: inversion},
	}
	plan = append(plan, e.window(0, e.profile.Rows()-1)...)
	return append(plan,
		Step{Cmd: st7305TEON, Data: []byte{0x00}},
		Step{Cmd: st7305AUTOPWR, Data: []byte{0xFF}},
		Step{Cmd: st7305HPM},
		Step{Cmd: st7305DISPON},
	)
}

// window addresses controller rows first through last, each spanning the full column window.
func (e encoder) window(first, last int) TransferPlan {
	return TransferPlan{
		{Cmd: st7305CASET, Data: []byte{e.profile.ColumnStart, e.profile.ColumnEnd}},
		{Cmd: st7305RASET, Data: []byte{e.profile.RowStart + byte(first), e.profile.RowStart + byte(last)}},
	}
}

// refreshPlan writes the controller rows holding the dirty scan lines of f, then
// triggers the display update. It is empty when nothing changed.
func (e encoder) refreshPlan(f *framebuffer.Frame) TransferPlan {
	first, last, ok := f.DirtyLines()
	if !ok {
		return nil
	}

	r0, r1 := 0, e.profile.Rows()-1
	data := f.Span(0, f.Lines()-1)
	if n := e.profile.RowSize(); n > 0 {
		stride := f.LineSize()
		r0 = first * stride / n
		r1 = ((last+1)*stride - 1) / n
		data = data[r0*n : (r1+1)*n]
	}

	plan := TransferPlan{{Cmd: st7305HPM}}
	plan = append(plan, e.window(r0, r1)...)
	return append(plan,
		Step{Cmd: st7305RAMWR, Data: append([]byte(nil), data...), Hold: true},
		Step{Cmd: st7305DISPON},
	)
}

func softResetPlan() TransferPlan {
	return TransferPlan{{Cmd: st7305SWRESET, Delay: resetSettle}}
}

func sleepPlan() TransferPlan {
	return TransferPlan{{Cmd: st7305SLPIN}}
}

func wakePlan() TransferPlan {
	return TransferPlan{{Cmd: st7305SLPOUT, Delay: wakeDelay}}
}

func powerModePlan(low bool) TransferPlan {
	if low {
		return TransferPlan{{Cmd: st7305LPM}}
	}
	return TransferPlan{{Cmd: st7305HPM}}
}

func showPlan(show bool) TransferPlan {
	if show {
		return TransferPlan{{Cmd: st7305DISPON}}
	}
	return TransferPlan{{Cmd: st7305DISPOFF}}
}
