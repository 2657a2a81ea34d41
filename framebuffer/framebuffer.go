// Package framebuffer holds the packed pixel memory of a bilevel panel and tracks
// which part of it changed since the last transfer.
//
// A [Frame] is addressed in logical (x, y) pixels. Its [Layout] decides how those
// map onto the panel's scan lines: row-major frames scan along logical rows,
// column-major frames along logical columns. Every write grows the dirty [Region]
// until the owner calls [Frame.ResetDirty] after a successful transfer.
package framebuffer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/BeatGlow/rlcd/pixel"
)

// Layout selects the scan direction of a frame.
type Layout uint8

// Supported layouts.
const (
	RowMajor    Layout = iota // one scan line per logical row
	ColumnMajor               // one scan line per logical column
)

func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row-major"
	case ColumnMajor:
		return "column-major"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

// Region is the part of a frame changed since the last transfer.
type Region struct {
	// Rect is the union of all changed pixels, in logical coordinates.
	Rect image.Rectangle

	// Full marks the whole frame as changed, regardless of Rect.
	Full bool
}

// Empty reports whether nothing changed.
func (r Region) Empty() bool {
	return !r.Full && r.Rect.Empty()
}

// Contains reports whether (x, y) is part of the region.
func (r Region) Contains(x, y int) bool {
	return r.Full || (image.Point{X: x, Y: y}).In(r.Rect)
}

func (r Region) String() string {
	switch {
	case r.Full:
		return "full"
	case r.Rect.Empty():
		return "empty"
	default:
		return r.Rect.String()
	}
}

// Frame is a packed 1-bit framebuffer with dirty region tracking.
type Frame struct {
	pixel.Image
	layout Layout
	dirty  Region
}

// New allocates a zero-filled (all pixels off) frame of w×h logical pixels.
func New(w, h int, layout Layout) *Frame {
	f := &Frame{layout: layout}
	switch layout {
	case ColumnMajor:
		f.Image = pixel.NewMonoColumnImage(w, h)
	default:
		f.layout = RowMajor
		f.Image = pixel.NewMonoImage(w, h)
	}
	return f
}

// Layout of the frame.
func (f *Frame) Layout() Layout {
	return f.layout
}

// Size is the number of bytes in the frame.
func (f *Frame) Size() int {
	return f.Lines() * f.LineSize()
}

// Set the pixel at (x, y). Writes outside the frame are ignored.
func (f *Frame) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(f.Bounds()) {
		return
	}
	f.Image.Set(x, y, c)
	f.mark(image.Rect(x, y, x+1, y+1))
}

// Fill the whole frame with a single color.
func (f *Frame) Fill(c color.Color) {
	f.Image.Fill(c)
	f.MarkAll()
}

// Clear turns all pixels off.
func (f *Frame) Clear() {
	f.Image.Clear()
	f.MarkAll()
}

// FillRect fills the part of r that overlaps the frame.
func (f *Frame) FillRect(r image.Rectangle, c color.Color) {
	r = r.Canon().Intersect(f.Bounds())
	if r.Empty() {
		return
	}
	on := pixel.MonoModel.Convert(c)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.Image.Set(x, y, on)
		}
	}
	f.mark(r)
}

// Dirty returns the region changed since the last [Frame.ResetDirty].
func (f *Frame) Dirty() Region {
	return f.dirty
}

// MarkAll marks the whole frame as changed.
func (f *Frame) MarkAll() {
	f.dirty = Region{Full: true}
}

// ResetDirty empties the dirty region.
func (f *Frame) ResetDirty() {
	f.dirty = Region{}
}

// DirtyLines returns the first and last scan line touched by the dirty region.
func (f *Frame) DirtyLines() (first, last int, ok bool) {
	if f.dirty.Empty() || f.Lines() == 0 {
		return 0, 0, false
	}
	if f.dirty.Full {
		return 0, f.Lines() - 1, true
	}
	if f.layout == ColumnMajor {
		return f.dirty.Rect.Min.X, f.dirty.Rect.Max.X - 1, true
	}
	return f.dirty.Rect.Min.Y, f.dirty.Rect.Max.Y - 1, true
}

func (f *Frame) mark(r image.Rectangle) {
	if f.dirty.Full {
		return
	}
	if f.dirty.Rect.Empty() {
		f.dirty.Rect = r
	} else {
		f.dirty.Rect = f.dirty.Rect.Union(r)
	}
	if f.dirty.Rect.Eq(f.Bounds()) {
		f.dirty = Region{Full: true}
	}
}
