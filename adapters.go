package rlcd

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"
	"tinygo.org/x/drivers"
)

// Draw copies src onto the framebuffer and refreshes the panel.
func (d *Device) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	draw.Draw(d.frame, r, src, sp, draw.Src)
	d.mu.Unlock()
	return d.Refresh()
}

// Halt turns the display off.
func (d *Device) Halt() error {
	return d.Show(false)
}

// Size is the panel size in pixels.
func (d *Device) Size() (x, y int16) {
	return int16(d.profile.Width), int16(d.profile.Height)
}

// SetPixel sets the pixel at (x, y), dark colors are on.
func (d *Device) SetPixel(x, y int16, c color.RGBA) {
	d.Set(int(x), int(y), c)
}

// Display pushes the changed part of the framebuffer to the panel.
func (d *Device) Display() error {
	return d.Refresh()
}

var (
	_ display.Drawer    = (*Device)(nil)
	_ drivers.Displayer = (*Device)(nil)
)
