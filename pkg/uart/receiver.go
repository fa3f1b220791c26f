package uart

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/freqmeter/pkg/hw"
	"github.com/robotalks/freqmeter/pkg/irq"
)

// RxFIFODepth is the number of received bytes latched before the
// interrupt handler drains them. Bytes arriving on a full FIFO are lost.
const RxFIFODepth = 2

// Receiver reads a port one byte at a time, latches each byte and raises
// the receive interrupt.
type Receiver struct {
	Port        io.Reader
	Line        hw.InterruptLine
	Intake      *Intake
	Source      irq.Source
	ReadTimeout bool // set to true if Port already supports timeout with Read

	rxCh     chan byte
	overruns uint32
}

// NewReceiver creates a Receiver.
func NewReceiver(port io.Reader, line hw.InterruptLine, intake *Intake) *Receiver {
	return &Receiver{
		Port:   port,
		Line:   line,
		Intake: intake,
		Source: irq.SourceReceive,
		rxCh:   make(chan byte, RxFIFODepth),
	}
}

// Name implements Named.
func (r *Receiver) Name() string {
	return "receiver"
}

// Overruns returns the number of bytes lost on a full FIFO.
func (r *Receiver) Overruns() uint32 {
	return atomic.LoadUint32(&r.overruns)
}

// Latch stores a received byte and raises the interrupt.
func (r *Receiver) Latch(b byte) {
	select {
	case r.rxCh <- b:
	default:
		atomic.AddUint32(&r.overruns, 1)
		glog.V(2).Infof("receive overrun, lost %#02x", b)
	}
	r.Line.Raise()
}

// HandleInterrupt implements irq.Handler.
func (r *Receiver) HandleInterrupt(flags irq.Flags) {
	if !flags.Pending(r.Source) {
		return
	}
	// a byte latched after this is raised again.
	flags.Clear(r.Source)
	for {
		select {
		case b := <-r.rxCh:
			r.Intake.Feed(b)
		default:
			return
		}
	}
}

// Run reads the port until ctx is done or a read fails.
func (r *Receiver) Run(ctx context.Context) error {
	if r.ReadTimeout {
		buf := make([]byte, 1)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				n, err := r.Port.Read(buf)
				if err != nil {
					if os.IsTimeout(err) {
						continue
					}
					return err
				}
				if n > 0 {
					r.Latch(buf[0])
				}
			}
		}
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			r.Latch(b)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Receiver) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		n, err := r.Port.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}
