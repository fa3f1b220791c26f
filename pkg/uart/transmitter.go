package uart

import (
	"io"
	"sync"
)

// Port is the transmit side of a serial port.
type Port interface {
	io.Writer
	// Drain blocks until all written bytes are transmitted.
	Drain() error
}

type writerPort struct {
	io.Writer
}

func (p writerPort) Drain() error {
	return nil
}

// WriterPort adapts a plain writer as a Port with nothing to drain.
func WriterPort(w io.Writer) Port {
	return writerPort{Writer: w}
}

// CRLF terminates every line.
const CRLF = "\r\n"

// Transmitter writes lines to a Port. Lines written concurrently never
// interleave.
type Transmitter struct {
	Port Port

	lock sync.Mutex
}

// NewTransmitter creates a Transmitter.
func NewTransmitter(port Port) *Transmitter {
	return &Transmitter{Port: port}
}

// Write writes p byte by byte.
func (t *Transmitter) Write(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.write(p)
}

// WriteString writes s byte by byte.
func (t *Transmitter) WriteString(s string) error {
	_, err := t.Write([]byte(s))
	return err
}

// WriteLine writes label, the decimal digits of value, unit and CRLF.
func (t *Transmitter) WriteLine(label string, value uint32, unit string) error {
	line := make([]byte, 0, len(label)+DecimalBufferSize+len(unit)+len(CRLF))
	line = append(line, label...)
	line = AppendDecimal(line, value)
	line = append(line, unit...)
	line = append(line, CRLF...)
	_, err := t.Write(line)
	return err
}

func (t *Transmitter) write(p []byte) (int, error) {
	for n := range p {
		if _, err := t.Port.Write(p[n : n+1]); err != nil {
			return n, err
		}
		if err := t.Port.Drain(); err != nil {
			return n + 1, err
		}
	}
	return len(p), nil
}
