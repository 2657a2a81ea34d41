package framebuffer

import (
	"bytes"
	"image"
	"testing"

	"github.com/BeatGlow/rlcd/pixel"
)

func TestNewSize(t *testing.T) {
	for w := 1; w <= 800; w += 37 {
		for h := 1; h <= 800; h += 41 {
			f := New(w, h, RowMajor)
			if want := (w + 7) / 8 * h; f.Size() != want || len(f.Span(0, f.Lines()-1)) != want {
				t.Fatalf("%dx%d row-major: expected %d bytes, got %d", w, h, want, f.Size())
			}
			f = New(w, h, ColumnMajor)
			if want := (h + 7) / 8 * w; f.Size() != want || len(f.Span(0, f.Lines()-1)) != want {
				t.Fatalf("%dx%d column-major: expected %d bytes, got %d", w, h, want, f.Size())
			}
		}
	}
}

func TestNewZeroFilled(t *testing.T) {
	f := New(400, 300, RowMajor)
	for i, b := range f.Span(0, f.Lines()-1) {
		if b != 0 {
			t.Fatalf("byte %d is %#02x, expected 0", i, b)
		}
	}
	if !f.Dirty().Empty() {
		t.Errorf("expected a new frame to have an empty dirty region, got %s", f.Dirty())
	}
}

func TestSetAt(t *testing.T) {
	for _, layout := range []Layout{RowMajor, ColumnMajor} {
		t.Run(layout.String(), func(t *testing.T) {
			for _, size := range []image.Point{{1, 1}, {7, 9}, {400, 300}, {200, 200}, {800, 3}} {
				f := New(size.X, size.Y, layout)
				for _, p := range []image.Point{{0, 0}, {size.X - 1, size.Y - 1}, {size.X / 2, size.Y / 3}} {
					f.Set(p.X, p.Y, pixel.On)
					if v := f.At(p.X, p.Y); v != pixel.On {
						t.Fatalf("%s: pixel %s is %+v after setting it on", size, p, v)
					}
					f.Set(p.X, p.Y, pixel.Off)
					if v := f.At(p.X, p.Y); v != pixel.Off {
						t.Fatalf("%s: pixel %s is %+v after setting it off", size, p, v)
					}
				}
			}
		})
	}
}

func TestSetFlipsOneBit(t *testing.T) {
	f := New(40, 20, RowMajor)
	f.Fill(pixel.On)
	before := append([]byte(nil), f.Span(0, f.Lines()-1)...)
	f.ResetDirty()

	f.Set(13, 7, pixel.On)
	f.Set(13, 7, pixel.Off)

	after := f.Span(0, f.Lines()-1)
	var flipped int
	for i := range before {
		diff := before[i] ^ after[i]
		for ; diff != 0; diff &= diff - 1 {
			flipped++
		}
	}
	if flipped != 1 {
		t.Errorf("expected exactly 1 bit to change, got %d", flipped)
	}
	if !f.Dirty().Contains(13, 7) {
		t.Errorf("expected dirty region %s to contain (13,7)", f.Dirty())
	}
}

func TestSetOutOfBounds(t *testing.T) {
	f := New(16, 16, RowMajor)
	for _, p := range []image.Point{{-1, 0}, {0, -1}, {16, 0}, {0, 16}, {1000, 1000}} {
		f.Set(p.X, p.Y, pixel.On)
	}
	if !f.Dirty().Empty() {
		t.Errorf("expected out of bounds writes to leave the dirty region empty, got %s", f.Dirty())
	}
	for i, b := range f.Span(0, f.Lines()-1) {
		if b != 0 {
			t.Fatalf("byte %d is %#02x, expected 0", i, b)
		}
	}
}

func TestDirtyRegion(t *testing.T) {
	f := New(100, 50, RowMajor)
	f.Set(10, 5, pixel.On)
	f.Set(20, 8, pixel.On)
	if want := image.Rect(10, 5, 21, 9); f.Dirty().Rect != want || f.Dirty().Full {
		t.Errorf("expected dirty region %s, got %s", want, f.Dirty())
	}

	f.FillRect(image.Rect(90, 40, 200, 200), pixel.On)
	if want := image.Rect(10, 5, 100, 50); f.Dirty().Rect != want {
		t.Errorf("expected dirty region %s, got %s", want, f.Dirty())
	}

	f.ResetDirty()
	if !f.Dirty().Empty() {
		t.Errorf("expected empty region after reset, got %s", f.Dirty())
	}
}

func TestFullFrameSentinel(t *testing.T) {
	for _, test := range []struct {
		name string
		draw func(*Frame)
	}{
		{"fill", func(f *Frame) { f.Fill(pixel.On) }},
		{"clear", func(f *Frame) { f.Clear() }},
		{"fill-rect", func(f *Frame) { f.FillRect(f.Bounds(), pixel.On) }},
		{"fill-rect-oversized", func(f *Frame) { f.FillRect(image.Rect(-5, -5, 500, 500), pixel.Off) }},
		{"pixels", func(f *Frame) {
			f.Set(0, 0, pixel.On)
			f.Set(31, 15, pixel.On)
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			f := New(32, 16, ColumnMajor)
			test.draw(f)
			if !f.Dirty().Full {
				t.Errorf("expected full frame region, got %s", f.Dirty())
			}
			first, last, ok := f.DirtyLines()
			if !ok || first != 0 || last != f.Lines()-1 {
				t.Errorf("expected lines 0-%d, got %d-%d (%t)", f.Lines()-1, first, last, ok)
			}
		})
	}
}

func TestFillRect(t *testing.T) {
	f := New(16, 4, RowMajor)
	f.FillRect(image.Rect(4, 1, 12, 3), pixel.On)
	want := []byte{
		0x00, 0x00,
		0xf0, 0x0f,
		0xf0, 0x0f,
		0x00, 0x00,
	}
	if got := f.Span(0, 3); !bytes.Equal(got, want) {
		t.Errorf("expected % x, got % x", want, got)
	}
}

func TestDirtyLines(t *testing.T) {
	for _, test := range []struct {
		layout      Layout
		points      []image.Point
		first, last int
	}{
		{RowMajor, []image.Point{{0, 0}}, 0, 0},
		{RowMajor, []image.Point{{5, 3}, {70, 9}}, 3, 9},
		{ColumnMajor, []image.Point{{0, 0}}, 0, 0},
		{ColumnMajor, []image.Point{{5, 3}, {70, 9}}, 5, 70},
	} {
		f := New(80, 40, test.layout)
		if _, _, ok := f.DirtyLines(); ok {
			t.Fatalf("%s: expected no dirty lines on a new frame", test.layout)
		}
		for _, p := range test.points {
			f.Set(p.X, p.Y, pixel.On)
		}
		first, last, ok := f.DirtyLines()
		if !ok || first != test.first || last != test.last {
			t.Errorf("%s %v: expected lines %d-%d, got %d-%d (%t)", test.layout, test.points, test.first, test.last, first, last, ok)
		}
	}
}

func TestLayoutTransposed(t *testing.T) {
	var (
		rows = New(16, 16, RowMajor)
		cols = New(16, 16, ColumnMajor)
		set  = []image.Point{{0, 0}, {3, 1}, {9, 14}, {15, 2}}
	)
	for _, p := range set {
		rows.Set(p.X, p.Y, pixel.On)
		cols.Set(p.X, p.Y, pixel.On)
	}
	if bytes.Equal(rows.Span(0, 15), cols.Span(0, 15)) {
		t.Fatal("expected row-major and column-major layouts to differ")
	}

	// Transposing the logical pixels must give the other layout's bytes.
	transposed := New(16, 16, RowMajor)
	for _, p := range set {
		transposed.Set(p.Y, p.X, pixel.On)
	}
	if !bytes.Equal(transposed.Span(0, 15), cols.Span(0, 15)) {
		t.Errorf("expected column-major bytes % x, got % x", transposed.Span(0, 15), cols.Span(0, 15))
	}
}
