package pixel

import (
	"image"
	"image/color"
	"image/draw"
)

// Image is a packed bilevel image that is sent to a panel one scan line at a time.
type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)

	// Lines is the number of scan lines.
	Lines() int

	// LineSize is the number of bytes in one scan line.
	LineSize() int

	// Span returns the packed bytes of scan lines first through last (inclusive).
	Span(first, last int) []byte
}

// Buffer holds the pixel values and is a container that is used by the image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between adjacent scan lines.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0x00
	}
}

func (p *Buffer) Lines() int {
	if p.Stride == 0 {
		return 0
	}
	return len(p.Pix) / p.Stride
}

func (p *Buffer) LineSize() int {
	return p.Stride
}

func (p *Buffer) Span(first, last int) []byte {
	if first < 0 {
		first = 0
	}
	if n := p.Lines(); last >= n {
		last = n - 1
	}
	if last < first {
		return nil
	}
	return p.Pix[first*p.Stride : (last+1)*p.Stride]
}

func (p *Buffer) fill(c color.Color) {
	var value byte
	if monoModel(c).(Mono).On {
		value = 0xff
	}
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

func makeBuffer(w, h, stride, size int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, size),
		Stride: stride,
	}
}

// MonoImage is a 1-bit per pixel monochrome image with one scan line per row.
//
// Pixel (x, y) is bit x%8 (LSB first) of byte y*Stride + x/8.
type MonoImage struct {
	Buffer
}

func NewMonoImage(w, h int) *MonoImage {
	stride := (w + 7) / 8 // round up to whole bytes
	return &MonoImage{
		Buffer: makeBuffer(w, h, stride, stride*h),
	}
}

func (p *MonoImage) ColorModel() color.Model {
	return MonoModel
}

func (p *MonoImage) PixOffset(x, y int) int {
	return y*p.Stride + x/8
}

func (p *MonoImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	if p.Pix[p.PixOffset(x, y)]&(1<<uint(x&7)) != 0 {
		return On
	}
	return Off
}

func (p *MonoImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	index := p.PixOffset(x, y)
	if monoModel(c).(Mono).On {
		p.Pix[index] |= 1 << uint(x&7)
	} else {
		p.Pix[index] &^= 1 << uint(x&7)
	}
}

func (p *MonoImage) Fill(c color.Color) {
	p.fill(c)
}

// MonoColumnImage is a 1-bit per pixel monochrome image with one scan line per
// column, for panels that are mounted rotated relative to their scan direction.
//
// Pixel (x, y) is bit y%8 (LSB first) of byte x*Stride + y/8.
type MonoColumnImage struct {
	Buffer
}

func NewMonoColumnImage(w, h int) *MonoColumnImage {
	stride := (h + 7) / 8 // round up to whole bytes
	return &MonoColumnImage{
		Buffer: makeBuffer(w, h, stride, stride*w),
	}
}

func (p *MonoColumnImage) ColorModel() color.Model {
	return MonoModel
}

func (p *MonoColumnImage) PixOffset(x, y int) int {
	return x*p.Stride + y/8
}

func (p *MonoColumnImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	if p.Pix[p.PixOffset(x, y)]&(1<<uint(y&7)) != 0 {
		return On
	}
	return Off
}

func (p *MonoColumnImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	index := p.PixOffset(x, y)
	if monoModel(c).(Mono).On {
		p.Pix[index] |= 1 << uint(y&7)
	} else {
		p.Pix[index] &^= 1 << uint(y&7)
	}
}

func (p *MonoColumnImage) Fill(c color.Color) {
	p.fill(c)
}

// Interface checks.
var (
	_ Image = (*MonoImage)(nil)
	_ Image = (*MonoColumnImage)(nil)
)
