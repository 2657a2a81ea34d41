// Package pixel implements the bilevel color model and packed 1-bit images used by
// reflective LCD panels.
//
// The types are compatible with Go's native [color.Color] and [image.Image] /
// [draw.Image] interfaces, so the standard library and x/image can draw on them.
package pixel
