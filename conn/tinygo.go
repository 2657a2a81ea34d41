package conn

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"
)

// OutputPin is the output half of a TinyGo machine.Pin.
type OutputPin interface {
	High()
	Low()
}

// HighLow adapts a TinyGo style pin to a [Pin].
func HighLow(p OutputPin) Pin {
	return highLowPin{p}
}

type highLowPin struct {
	p OutputPin
}

func (h highLowPin) Out(l gpio.Level) error {
	if l {
		h.p.High()
	} else {
		h.p.Low()
	}
	return nil
}

// TinyGo is a [Bus] on top of a TinyGo SPI peripheral, such as machine.SPI0.
// The peripheral must already be configured (mode 0, MSB first).
type TinyGo struct {
	bus      drivers.SPI
	cs       OutputPin
	selected bool
}

// NewTinyGo returns a bus using cs as the chip select line.
func NewTinyGo(bus drivers.SPI, cs OutputPin) *TinyGo {
	cs.High()
	return &TinyGo{bus: bus, cs: cs}
}

func (t *TinyGo) String() string {
	return fmt.Sprintf("TinyGo SPI %T", t.bus)
}

func (t *TinyGo) Close() error {
	return nil
}

func (t *TinyGo) Select() error {
	t.cs.Low()
	t.selected = true
	return nil
}

func (t *TinyGo) Deselect() error {
	t.cs.High()
	t.selected = false
	return nil
}

func (t *TinyGo) TransferByte(b byte) error {
	if !t.selected {
		return ErrNotSelected
	}
	_, err := t.bus.Transfer(b)
	return err
}

func (t *TinyGo) Transfer(p []byte) error {
	if !t.selected {
		return ErrNotSelected
	}
	return t.bus.Tx(p, nil)
}

func (t *TinyGo) Flush() error {
	return nil
}

var _ Bus = (*TinyGo)(nil)
