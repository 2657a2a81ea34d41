package rlcd

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/rlcd/framebuffer"
	"github.com/BeatGlow/rlcd/internal/log"
	"github.com/BeatGlow/rlcd/pixel"
)

// sleep is replaced in tests.
var sleep = time.Sleep

// Config is the display configuration.
type Config struct {
	// Panel selects the model and, for Custom, its geometry.
	Panel PanelConfig

	// UpdateInterval is the period of automatic refreshes, zero for manual refreshes only.
	// The driver does not run a timer itself, see [Device.UpdateInterval].
	UpdateInterval time.Duration

	// Writer is called once per refresh to draw the frame, optional.
	Writer Writer

	// Inverted selects display inversion.
	Inverted bool
}

// Device is an ST7305 reflective LCD.
type Device struct {
	mu       sync.Mutex
	c        Conn
	profile  Profile
	frame    *framebuffer.Frame
	enc      encoder
	interval time.Duration
	writer   Writer
	state    State
	err      error
	closed   bool
}

// ST7305 sets up the panel on c: it resolves the profile, resets the controller,
// plays the initialization sequence and clears the panel.
func ST7305(c Conn, config *Config) (*Device, error) {
	d, err := New(c, config)
	if err != nil {
		return nil, err
	}
	if err = d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// New resolves the profile and allocates the framebuffer without touching the bus.
func New(c Conn, config *Config) (*Device, error) {
	if config == nil {
		config = new(Config)
	}
	profile, err := ResolveProfile(config.Panel)
	if err != nil {
		return nil, err
	}
	if err = profile.Validate(); err != nil {
		return nil, err
	}
	if config.UpdateInterval < 0 {
		return nil, &ConfigurationError{Field: "update interval", Reason: fmt.Sprintf("negative duration %s", config.UpdateInterval)}
	}

	return &Device{
		c:        c,
		profile:  profile,
		frame:    framebuffer.New(profile.Width, profile.Height, profile.layout()),
		enc:      encoder{profile: profile, inverted: config.Inverted},
		interval: config.UpdateInterval,
		writer:   config.Writer,
	}, nil
}

// Init resets the controller, plays the initialization sequence and pushes the
// (blank) framebuffer.
func (d *Device) Init() (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	switch d.state {
	case Uninitialized:
	case Faulted:
		return d.err
	default:
		return nil
	}

	d.state = Initializing
	log.Info("initializing display",
		"model", d.profile.Model,
		"width", d.profile.Width,
		"height", d.profile.Height,
		"orientation", d.profile.Orientation,
		"buffer", d.profile.BufferSize())

	if err = d.reset(); err != nil {
		return
	}
	if err = d.play("init", d.enc.initPlan()); err != nil {
		return
	}

	d.frame.Clear()
	if err = d.play("clear", d.enc.refreshPlan(d.frame)); err != nil {
		return
	}
	d.frame.ResetDirty()

	d.state = Idle
	return nil
}

func (d *Device) reset() error {
	if !d.c.HasReset() {
		log.Debug("no reset pin, using software reset")
		return d.play("reset", softResetPlan())
	}
	for _, step := range []struct {
		level gpio.Level
		delay time.Duration
	}{
		{gpio.High, resetHold},
		{gpio.Low, resetPulse},
		{gpio.High, resetHold},
	} {
		if err := d.c.Reset(step.level); err != nil {
			return d.fault("reset", err)
		}
		sleep(step.delay)
	}
	return nil
}

// play dispatches plan, stopping at the first transport error.
func (d *Device) play(op string, plan TransferPlan) error {
	for _, step := range plan {
		var err error
		if step.Hold {
			err = d.c.Write(step.Cmd, step.Data...)
		} else if err = d.c.Command(step.Cmd); err == nil {
			err = d.c.Data(step.Data...)
		}
		if err != nil {
			return d.fault(op, err)
		}
		if step.Delay > 0 {
			sleep(step.Delay)
		}
	}
	return nil
}

func (d *Device) fault(op string, err error) error {
	var te *TransportError
	if !errors.As(err, &te) {
		te = &TransportError{Op: op, Err: err}
	}
	d.state, d.err = Faulted, te
	log.Error("display faulted", te.Err, "op", te.Op)
	return te
}

// ready checks that commands may be sent, the lock must be held.
func (d *Device) ready() error {
	switch {
	case d.closed:
		return ErrClosed
	case d.state == Faulted:
		return d.err
	case d.state == Uninitialized:
		return ErrNotInitialized
	default:
		return nil
	}
}

func (d *Device) command(op string, plan TransferPlan) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	return d.play(op, plan)
}

// Refresh runs the writer, if any, then pushes the dirty scan lines to the panel.
// Nothing is sent when nothing changed.
func (d *Device) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}

	d.state = Refreshing
	if d.writer != nil {
		d.writer(d.frame)
	}

	plan := d.enc.refreshPlan(d.frame)
	if len(plan) == 0 {
		d.state = Idle
		return nil
	}
	log.Debug("refresh", "region", d.frame.Dirty(), "bytes", plan.Bytes())
	if err := d.play("refresh", plan); err != nil {
		return err
	}
	d.frame.ResetDirty()
	d.state = Idle
	return nil
}

// Update is an alias of Refresh.
func (d *Device) Update() error {
	return d.Refresh()
}

// Plan returns the transfer plan the next refresh would send, without running the writer.
func (d *Device) Plan() TransferPlan {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enc.refreshPlan(d.frame)
}

// Dirty is the region changed since the last refresh.
func (d *Device) Dirty() framebuffer.Region {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame.Dirty()
}

func (d *Device) At(x, y int) color.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame.At(x, y)
}

// Set the pixel at (x, y). Writes outside the panel are ignored.
func (d *Device) Set(x, y int, c color.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame.Set(x, y, c)
}

func (d *Device) Fill(c color.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame.Fill(c)
}

func (d *Device) FillRect(r image.Rectangle, c color.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame.FillRect(r, c)
}

func (d *Device) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame.Clear()
}

func (d *Device) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.profile.Width, d.profile.Height)
}

func (d *Device) ColorModel() color.Model {
	return pixel.MonoModel
}

// State of the driver.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err is the fault that stopped the driver, if any.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Profile is the resolved panel profile.
func (d *Device) Profile() Profile {
	return d.profile
}

// UpdateInterval is the configured refresh period, zero when refreshes are manual.
func (d *Device) UpdateInterval() time.Duration {
	return d.interval
}

// Sleep puts the controller in sleep mode, the panel keeps its image.
func (d *Device) Sleep() error {
	if err := d.command("sleep", sleepPlan()); err != nil {
		return err
	}
	log.Debug("entered sleep mode")
	return nil
}

// Wake takes the controller out of sleep mode.
func (d *Device) Wake() error {
	if err := d.command("wake", wakePlan()); err != nil {
		return err
	}
	log.Debug("exited sleep mode")
	return nil
}

// LowPowerMode lowers the panel refresh rate.
func (d *Device) LowPowerMode() error {
	if err := d.command("low power mode", powerModePlan(true)); err != nil {
		return err
	}
	log.Debug("switched to low power mode")
	return nil
}

// HighPowerMode restores the normal panel refresh rate.
func (d *Device) HighPowerMode() error {
	if err := d.command("high power mode", powerModePlan(false)); err != nil {
		return err
	}
	log.Debug("switched to high power mode")
	return nil
}

// Show toggles the display on or off.
func (d *Device) Show(show bool) error {
	return d.command("show", showPlan(show))
}

// Close puts a healthy controller to sleep and closes the connection.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var err error
	if d.state == Idle {
		err = d.play("close", sleepPlan())
	}
	if cerr := d.c.Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *Device) String() string {
	return fmt.Sprintf("ST7305 %s", d.profile)
}

// DumpConfig describes the panel and connection, one setting per line.
func (d *Device) DumpConfig() string {
	var b strings.Builder
	b.WriteString("ST7305 RLCD\n")
	fmt.Fprintf(&b, "  Model: %s\n", d.profile.Model)
	fmt.Fprintf(&b, "  Resolution: %dx%d\n", d.profile.Width, d.profile.Height)
	fmt.Fprintf(&b, "  Orientation: %s\n", d.profile.Orientation)
	fmt.Fprintf(&b, "  Buffer: %d bytes (%d lines of %d bytes)\n", d.profile.BufferSize(), d.profile.Lines(), d.profile.Stride())
	fmt.Fprintf(&b, "  Window: columns %#02x..%#02x, rows %#02x..%#02x\n", d.profile.ColumnStart, d.profile.ColumnEnd, d.profile.RowStart, d.profile.RowEnd)
	fmt.Fprintf(&b, "  Connection: %s\n", d.c)
	fmt.Fprintf(&b, "  Reset pin: %t\n", d.c.HasReset())
	if d.interval > 0 {
		fmt.Fprintf(&b, "  Update interval: %s\n", d.interval)
	} else {
		b.WriteString("  Update interval: never\n")
	}
	return b.String()
}

var (
	_ Display = (*Device)(nil)
	_ Surface = (*framebuffer.Frame)(nil)
)
