package pixel

import "image/color"

// MonoModel converts any color to a bilevel [Mono] color.
var MonoModel color.Model = color.ModelFunc(monoModel)

var (
	Off = Mono{false}
	On  = Mono{true}
)

// Mono represents a 1-bit color on a reflective panel. On means ink (dark), Off
// means the panel background shows through.
type Mono struct {
	On bool
}

func (c Mono) RGBA() (r, g, b, a uint32) {
	if c.On {
		return 0, 0, 0, 0xffff
	}
	return 0xffff, 0xffff, 0xffff, 0xffff
}

func monoModel(c color.Color) color.Color {
	if _, ok := c.(Mono); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		// Mostly transparent, leave the background.
		return Off
	}

	// JFIF luma weights (19595+38470+7471 = 1<<16), reduced to a single bit.
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 31

	return Mono{On: y == 0}
}
