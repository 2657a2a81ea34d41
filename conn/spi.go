package conn

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/BeatGlow/rlcd/internal/log"
)

// DefaultBatchSize is the largest single write, the default spidev buffer size.
const DefaultBatchSize = 4096

// SPI is a [Bus] on top of a periph.io SPI connection.
//
// When cs is nil the chip select line is driven by the SPI port itself. Writes
// made during a selection are then queued and sent as packets that keep chip
// select asserted, and the last packet is sent by [SPI.Deselect], so that one
// selection is one chip select cycle on the wire.
type SPI struct {
	port      spi.PortCloser
	conn      spi.Conn
	cs        Pin
	batchSize int
	selected  bool
	queue     []byte
}

// OpenSPI opens the named SPI port (empty name for the first available one) in mode 0
// with 8 bit words, MSB first.
func OpenSPI(name string, maxHz physic.Frequency, cs Pin) (*SPI, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}

	c, err := port.Connect(maxHz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("conn: SPI connect at %s failed: %w", maxHz, err)
	}

	s := NewSPI(c, cs)
	s.port = port
	return s, nil
}

// NewSPI wraps an already connected SPI connection.
func NewSPI(c spi.Conn, cs Pin) *SPI {
	return &SPI{
		conn:      c,
		cs:        cs,
		batchSize: DefaultBatchSize,
	}
}

// SetBatchSize limits the size of a single write, bursts are split accordingly.
func (s *SPI) SetBatchSize(n int) {
	if n <= 0 {
		n = DefaultBatchSize
	}
	s.batchSize = n
}

func (s *SPI) String() string {
	return fmt.Sprintf("SPI bus %s", s.conn)
}

func (s *SPI) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

func (s *SPI) Select() error {
	if s.cs != nil {
		if err := s.cs.Out(gpio.Low); err != nil {
			return err
		}
	}
	s.queue = s.queue[:0]
	s.selected = true
	return nil
}

func (s *SPI) Deselect() error {
	s.selected = false
	if s.cs == nil {
		return s.flush(false)
	}
	return s.cs.Out(gpio.High)
}

func (s *SPI) TransferByte(b byte) error {
	return s.Transfer([]byte{b})
}

func (s *SPI) Transfer(p []byte) error {
	if !s.selected {
		return ErrNotSelected
	}
	if s.cs == nil {
		return s.enqueue(p)
	}
	if len(p) <= s.batchSize {
		return s.conn.Tx(p, nil)
	}

	log.Debug("chunked SPI write", "bytes", len(p), "chunks", (len(p)+s.batchSize-1)/s.batchSize)
	for len(p) > 0 {
		n := min(len(p), s.batchSize)
		if err := s.conn.Tx(p[:n], nil); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// Flush sends the queued bytes and leaves chip select asserted.
func (s *SPI) Flush() error {
	if !s.selected {
		return ErrNotSelected
	}
	return s.flush(true)
}

// enqueue appends p to the queue. A full queue is only sent once more bytes
// follow it, so the final packet is always left for Deselect.
func (s *SPI) enqueue(p []byte) error {
	for len(p) > 0 {
		if len(s.queue) >= s.batchSize {
			if err := s.flush(true); err != nil {
				return err
			}
		}
		n := min(len(p), s.batchSize-len(s.queue))
		s.queue = append(s.queue, p[:n]...)
		p = p[n:]
	}
	return nil
}

func (s *SPI) flush(keepCS bool) error {
	if len(s.queue) == 0 {
		return nil
	}
	err := s.conn.TxPackets([]spi.Packet{{W: s.queue, KeepCS: keepCS}})
	s.queue = s.queue[:0]
	return err
}

var _ Bus = (*SPI)(nil)
