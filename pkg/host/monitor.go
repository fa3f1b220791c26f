package host

import (
	"bufio"
	"context"
	"io"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/freqmeter/pkg/framework"
)

// Monitor reads lines from the meter, collects readings and dispatches
// command acknowledgements.
type Monitor struct {
	Reader io.Reader
	Stats  *Stats
	// OnReading is called for every reading if set.
	OnReading func(hz uint32)

	ackCh    chan byte
	last     uint32
	readings uint32
}

// NewMonitor creates a Monitor.
func NewMonitor(r io.Reader) *Monitor {
	return &Monitor{
		Reader: r,
		Stats:  NewStats(),
		ackCh:  make(chan byte, 4),
	}
}

// Name implements Named.
func (m *Monitor) Name() string {
	return "monitor"
}

// Last returns the last reading and whether any reading was received.
func (m *Monitor) Last() (uint32, bool) {
	return atomic.LoadUint32(&m.last), atomic.LoadUint32(&m.readings) > 0
}

// Readings returns the number of readings received.
func (m *Monitor) Readings() uint32 {
	return atomic.LoadUint32(&m.readings)
}

// AckChan receives the letters of acknowledged commands.
func (m *Monitor) AckChan() <-chan byte {
	return m.ackCh
}

// HandleLine processes one line.
func (m *Monitor) HandleLine(line string) {
	if hz, err := ParseReportLine(line); err == nil {
		atomic.StoreUint32(&m.last, hz)
		atomic.AddUint32(&m.readings, 1)
		m.Stats.Add(hz)
		if fn := m.OnReading; fn != nil {
			fn(hz)
		}
		return
	}
	if c, ok := ParseAckLine(line); ok {
		select {
		case m.ackCh <- c:
		default:
			glog.Warningf("ack %c dropped", c)
		}
		return
	}
	glog.V(2).Infof("unknown line %q", line)
}

// Run implements Runnable. It returns io.EOF when the port ends.
func (m *Monitor) Run(ctx context.Context) error {
	scan := func() error {
		scanner := bufio.NewScanner(&idleReader{ctx: ctx, r: m.Reader})
		for scanner.Scan() {
			m.HandleLine(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	if closer, ok := m.Reader.(io.Closer); ok {
		return fx.RunWithCloser(ctx, closer, scan)
	}
	return scan()
}

// idleReader skips reads returning neither data nor error, which a serial
// port opened with a read timeout does while the meter is quiet.
type idleReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *idleReader) Read(p []byte) (int, error) {
	for {
		n, err := r.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
		if err := r.ctx.Err(); err != nil {
			return 0, err
		}
	}
}
