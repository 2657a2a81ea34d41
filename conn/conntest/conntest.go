// Package conntest implements a recording [conn.Bus] and pins, for tests and dry runs.
package conntest

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/rlcd/conn"
)

// ErrInjected is a ready made failure for [Recorder.Err].
var ErrInjected = errors.New("conntest: injected bus failure")

// Kind of recorded operation.
type Kind uint8

// Operation kinds.
const (
	Select Kind = iota
	Deselect
	Write
	Level
)

func (k Kind) String() string {
	switch k {
	case Select:
		return "select"
	case Deselect:
		return "deselect"
	case Write:
		return "write"
	case Level:
		return "level"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Op is one recorded bus or pin operation.
type Op struct {
	Kind  Kind
	Data  []byte
	Pin   string
	Level gpio.Level
}

// Command is a decoded controller command with its parameter or pixel bytes.
type Command struct {
	Cmd  byte
	Data []byte
}

// Recorder records every operation on the bus and on its pins, in order.
type Recorder struct {
	mu  sync.Mutex
	ops []Op

	selected bool

	// Err, when set, is returned by every write after the first FailAfter writes.
	Err       error
	FailAfter int
	writes    int
}

func (r *Recorder) String() string {
	return "recording bus"
}

func (r *Recorder) Close() error {
	return nil
}

func (r *Recorder) Select() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = true
	r.ops = append(r.ops, Op{Kind: Select})
	return nil
}

func (r *Recorder) Deselect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = false
	r.ops = append(r.ops, Op{Kind: Deselect})
	return nil
}

func (r *Recorder) TransferByte(b byte) error {
	return r.Transfer([]byte{b})
}

func (r *Recorder) Transfer(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.selected {
		return conn.ErrNotSelected
	}
	if r.Err != nil && r.writes >= r.FailAfter {
		return r.Err
	}
	r.writes++
	r.ops = append(r.ops, Op{Kind: Write, Data: append([]byte(nil), p...)})
	return nil
}

func (r *Recorder) Flush() error {
	return nil
}

// Selected reports whether the device is currently selected.
func (r *Recorder) Selected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// Pin returns an output pin whose level changes are recorded under name.
func (r *Recorder) Pin(name string) *Pin {
	return &Pin{Name: name, r: r}
}

// Ops returns a copy of the recorded operations.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Reset forgets all recorded operations.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
}

// Selections counts the select cycles recorded.
func (r *Recorder) Selections() (n int) {
	for _, op := range r.Ops() {
		if op.Kind == Select {
			n++
		}
	}
	return
}

// Commands decodes the recorded traffic as a command/data protocol: bytes written
// while the pin named dc is low are commands, bytes written while it is high are
// appended to the preceding command.
func (r *Recorder) Commands(dc string) []Command {
	var (
		cmds  []Command
		level gpio.Level
	)
	for _, op := range r.Ops() {
		switch op.Kind {
		case Level:
			if op.Pin == dc {
				level = op.Level
			}
		case Write:
			if level == gpio.Low {
				for _, b := range op.Data {
					cmds = append(cmds, Command{Cmd: b})
				}
			} else if len(cmds) > 0 {
				last := &cmds[len(cmds)-1]
				last.Data = append(last.Data, op.Data...)
			}
		}
	}
	return cmds
}

// Levels returns the recorded levels of the named pin.
func (r *Recorder) Levels(name string) (levels []gpio.Level) {
	for _, op := range r.Ops() {
		if op.Kind == Level && op.Pin == name {
			levels = append(levels, op.Level)
		}
	}
	return
}

// Pin is a recorded output pin.
type Pin struct {
	Name string
	L    gpio.Level
	r    *Recorder
}

func (p *Pin) Out(l gpio.Level) error {
	p.L = l
	p.r.mu.Lock()
	p.r.ops = append(p.r.ops, Op{Kind: Level, Pin: p.Name, Level: l})
	p.r.mu.Unlock()
	return nil
}

var (
	_ conn.Bus = (*Recorder)(nil)
	_ conn.Pin = (*Pin)(nil)
)
