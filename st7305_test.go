package rlcd

import (
	"bytes"
	"testing"

	"github.com/BeatGlow/rlcd/framebuffer"
	"github.com/BeatGlow/rlcd/pixel"
)

func testEncoder(t *testing.T, config PanelConfig, inverted bool) encoder {
	t.Helper()
	p, err := ResolveProfile(config)
	if err != nil {
		t.Fatal(err)
	}
	return encoder{profile: p, inverted: inverted}
}

func commandIndex(plan TransferPlan, cmd byte) int {
	for i, step := range plan {
		if step.Cmd == cmd {
			return i
		}
	}
	return -1
}

func TestInitPlan(t *testing.T) {
	e := testEncoder(t, PanelConfig{Model: Waveshare400x300}, false)
	plan := e.initPlan()

	if plan[0].Cmd != st7305NVMLOAD {
		t.Errorf("expected plan to start with NVM load, got %s", plan[0])
	}
	if last := plan[len(plan)-1]; last.Cmd != st7305DISPON {
		t.Errorf("expected plan to end with display on, got %s", last)
	}

	gate := plan[commandIndex(plan, st7305GATESET)]
	if !bytes.Equal(gate.Data, []byte{0x64}) {
		t.Errorf("expected gate lines 0x64, got % x", gate.Data)
	}

	i := commandIndex(plan, st7305SLPOUT)
	if i < 0 || plan[i].Delay != sleepOutDelay {
		t.Fatalf("expected sleep out with %s delay", sleepOutDelay)
	}
	// Voltages and gate settings precede sleep out, addressing mode follows it.
	for _, cmd := range []byte{st7305BSTEN, st7305VSHPCTRL, st7305GATESET} {
		if j := commandIndex(plan, cmd); j < 0 || j > i {
			t.Errorf("expected %#02x before sleep out", cmd)
		}
	}
	for _, cmd := range []byte{st7305MADCTL, st7305DTFORM, st7305CASET, st7305RASET, st7305HPM} {
		if j := commandIndex(plan, cmd); j < i {
			t.Errorf("expected %#02x after sleep out", cmd)
		}
	}

	if commandIndex(plan, st7305INVOFF) < 0 || commandIndex(plan, st7305INVON) >= 0 {
		t.Error("expected inversion off")
	}
	raset := plan[commandIndex(plan, st7305RASET)]
	if !bytes.Equal(raset.Data, []byte{0x00, 0xC7}) {
		t.Errorf("expected row window 00..c7, got % x", raset.Data)
	}
	caset := plan[commandIndex(plan, st7305CASET)]
	if !bytes.Equal(caset.Data, []byte{0x12, 0x2A}) {
		t.Errorf("expected column window 12..2a, got % x", caset.Data)
	}

	osptek := testEncoder(t, PanelConfig{Model: Osptek200x200}, false).initPlan()
	if raset = osptek[commandIndex(osptek, st7305RASET)]; !bytes.Equal(raset.Data, []byte{0x00, 0x63}) {
		t.Errorf("expected row window 00..63, got % x", raset.Data)
	}
	if caset = osptek[commandIndex(osptek, st7305CASET)]; !bytes.Equal(caset.Data, []byte{0x13, 0x25}) {
		t.Errorf("expected column window 13..25, got % x", caset.Data)
	}

	inverted := testEncoder(t, PanelConfig{Model: Waveshare400x300}, true).initPlan()
	if commandIndex(inverted, st7305INVON) < 0 || commandIndex(inverted, st7305INVOFF) >= 0 {
		t.Error("expected inversion on")
	}
	if len(inverted) != len(plan) {
		t.Errorf("expected %d steps, got %d", len(plan), len(inverted))
	}
}

func TestRefreshPlanEmpty(t *testing.T) {
	e := testEncoder(t, PanelConfig{Model: Waveshare400x300}, false)
	f := framebuffer.New(400, 300, framebuffer.RowMajor)
	if plan := e.refreshPlan(f); len(plan) != 0 {
		t.Errorf("expected empty plan, got %s", plan)
	}
}

func TestRefreshPlan(t *testing.T) {
	for _, test := range []struct {
		name    string
		config  PanelConfig
		pixels  []struct{ x, y int }
		rows    []byte
		columns []byte
		set     map[int]byte // non-zero bytes of the memory write, by offset
		size    int
	}{
		{
			name:    "landscape",
			config:  PanelConfig{Model: Waveshare400x300},
			pixels:  []struct{ x, y int }{{0, 0}},
			rows:    []byte{0x00, 0x00},
			columns: []byte{0x12, 0x2A},
			set:     map[int]byte{0: 0x01},
			size:    75,
		},
		{
			// Lines 260..299 are bytes 13000..14999, rows 173..199 of 75 bytes.
			name:    "landscape span",
			config:  PanelConfig{Model: Waveshare400x300},
			pixels:  []struct{ x, y int }{{9, 260}, {399, 299}},
			rows:    []byte{0xAD, 0xC7},
			columns: []byte{0x12, 0x2A},
			set:     map[int]byte{13001 - 173*75: 0x02, 27*75 - 1: 0x80},
			size:    27 * 75,
		},
		{
			// Column 3 is bytes 75..99, row 1 of 50 bytes.
			name:    "portrait",
			config:  PanelConfig{Model: Osptek200x200},
			pixels:  []struct{ x, y int }{{3, 10}},
			rows:    []byte{0x01, 0x01},
			columns: []byte{0x13, 0x25},
			set:     map[int]byte{3*25 + 1 - 50: 0x04},
			size:    50,
		},
		{
			// 15 bytes do not divide into 10 rows: the full window is written.
			name:    "custom full window",
			config:  PanelConfig{Model: Custom, Width: 8, Height: 15, Orientation: Landscape},
			pixels:  []struct{ x, y int }{{7, 14}},
			rows:    []byte{0x00, 0x09},
			columns: []byte{0x00, 0x00},
			set:     map[int]byte{14: 0x80},
			size:    15,
		},
	} {
		t.Run(test.name, func(it *testing.T) {
			e := testEncoder(it, test.config, false)
			f := framebuffer.New(e.profile.Width, e.profile.Height, e.profile.layout())
			for _, p := range test.pixels {
				f.Set(p.x, p.y, pixel.On)
			}

			plan := e.refreshPlan(f)
			if len(plan) != 5 {
				it.Fatalf("expected 5 steps, got %s", plan)
			}
			if plan[0].Cmd != st7305HPM {
				it.Errorf("expected high power mode first, got %s", plan[0])
			}
			if plan[1].Cmd != st7305CASET || !bytes.Equal(plan[1].Data, test.columns) {
				it.Errorf("expected column window % x, got %s", test.columns, plan[1])
			}
			if plan[2].Cmd != st7305RASET || !bytes.Equal(plan[2].Data, test.rows) {
				it.Errorf("expected row window % x, got %s", test.rows, plan[2])
			}
			if plan[3].Cmd != st7305RAMWR || len(plan[3].Data) != test.size {
				it.Fatalf("expected memory write of %d bytes, got %s", test.size, plan[3])
			}
			if !plan[3].Hold {
				it.Error("expected memory write to hold the selection")
			}
			for i, b := range plan[3].Data {
				if want := test.set[i]; b != want {
					it.Errorf("byte %d: expected %#02x, got %#02x", i, want, b)
				}
			}
			if plan[4].Cmd != st7305DISPON || len(plan[4].Data) != 0 {
				it.Errorf("expected display on trigger, got %s", plan[4])
			}
		})
	}
}

func TestRefreshPlanCopiesFrame(t *testing.T) {
	e := testEncoder(t, PanelConfig{Model: Osptek200x200}, false)
	f := framebuffer.New(200, 200, framebuffer.ColumnMajor)
	f.Set(0, 0, pixel.On)
	plan := e.refreshPlan(f)
	f.Set(0, 0, pixel.Off)
	if plan[3].Data[0] != 0x01 {
		t.Error("expected plan data to be independent of the frame")
	}
}

func TestWindowRowStart(t *testing.T) {
	e := encoder{profile: Profile{Model: Custom, Width: 8, Height: 8, Orientation: Landscape, RowStart: 0x10, RowEnd: 0x20}}
	plan := e.window(2, 5)
	if want := []byte{0x12, 0x15}; !bytes.Equal(plan[1].Data, want) {
		t.Errorf("expected rows % x, got % x", want, plan[1].Data)
	}
}

func TestTransferPlanBytes(t *testing.T) {
	plan := TransferPlan{
		{Cmd: st7305CASET, Data: []byte{0x12, 0x2A}},
		{Cmd: st7305DISPON},
	}
	if n := plan.Bytes(); n != 4 {
		t.Errorf("expected 4 bytes, got %d", n)
	}
	if s := plan.String(); s != "[0x2a 12 2a, 0x29]" {
		t.Errorf("unexpected plan string %q", s)
	}
}
