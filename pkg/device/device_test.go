package device

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/physic"

	"github.com/robotalks/freqmeter/pkg/meter"
	"github.com/robotalks/freqmeter/pkg/sim"
	"github.com/robotalks/freqmeter/pkg/uart"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Next() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

type chanReader struct {
	readCh <-chan byte
}

func (r *chanReader) Read(p []byte) (int, error) {
	p[0] = <-r.readCh
	return 1, nil
}

func newTestDevice(t *testing.T, conf *meter.Config) (*Device, *syncBuffer, chan byte) {
	out := &syncBuffer{}
	readCh := make(chan byte)
	d, err := New(conf, &chanReader{readCh: readCh}, uart.WriterPort(out))
	require.NoError(t, err)
	require.NoError(t, d.Start())
	return d, out, readCh
}

func TestDeviceReportLines(t *testing.T) {
	d, out, _ := newTestDevice(t, &meter.Config{EdgeArity: 5, ReferenceRate: 250000, ReportEvery: 1})
	loop := d.NewLoop()
	ctx := context.Background()

	loop.Step(ctx)
	require.Equal(t, "Freq: 0hz\r\n", out.Next())

	sim.NewGenerator(d.Timer, d.Counter, 250000, physic.KiloHertz).Step(10)
	loop.Step(ctx)
	require.Equal(t, "Freq: 1000hz\r\n", out.Next())

	sim.NewGenerator(d.Timer, d.Counter, 250000, 500*physic.Hertz).Step(10)
	loop.Step(ctx)
	require.Equal(t, "Freq: 500hz\r\n", out.Next())
	require.Equal(t, uint32(2), d.Engine.Windows())
}

func TestDeviceReportCadence(t *testing.T) {
	d, out, _ := newTestDevice(t, &meter.Config{EdgeArity: 10, ReferenceRate: 250000, ReportEvery: 500})
	loop := d.NewLoop()
	ctx := context.Background()
	sim.NewGenerator(d.Timer, d.Counter, 250000, 3571*physic.Hertz).Step(20)
	for i := 0; i < 1001; i++ {
		loop.Step(ctx)
	}
	// cycles 0, 500 and 1000
	require.Equal(t, "Freq: 3571hz\r\nFreq: 3571hz\r\nFreq: 3571hz\r\n", out.Next())
}

func TestDeviceCommands(t *testing.T) {
	d, out, readCh := newTestDevice(t, &meter.Config{EdgeArity: 1, ReferenceRate: 1000000, ReportEvery: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Receiver.Run(ctx)

	for _, b := range []byte("a\nx\nd\n") {
		readCh <- b
	}
	expect := "cmd: a\r\ncmd: d\r\n"
	var got string
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < len(expect) && time.Now().Before(deadline) {
		got += out.Next()
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, expect, got)
}

func TestDeviceRun(t *testing.T) {
	out := &syncBuffer{}
	conf := &meter.Config{EdgeArity: 5, ReferenceRate: 250000, ReportEvery: 10}
	d, err := New(conf, nil, uart.WriterPort(out))
	require.NoError(t, err)
	d.Sources = append(d.Sources, sim.NewGenerator(d.Timer, d.Counter, 250000, physic.KiloHertz))
	d.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, d.Run(ctx))
	require.Contains(t, out.Next(), "Freq: 1000hz\r\n")
}

func TestDeviceTimerMode(t *testing.T) {
	out := &syncBuffer{}
	conf := &meter.Config{EdgeArity: 100, ReferenceRate: 1000000, ReportEvery: 5, Mode: meter.ModeTimer}
	d, err := New(conf, nil, uart.WriterPort(out))
	require.NoError(t, err)
	tk := sim.NewTicker(d.Timer, 1000000)
	tk.Counter = d.Counter
	d.Sources = append(d.Sources, tk)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, d.Run(ctx))
	require.True(t, d.Engine.Timebase() > 0)
	require.Contains(t, out.Next(), "Freq: 0hz\r\n")
}

func TestConfigNewConfigCopies(t *testing.T) {
	conf := NewConfig()
	conf.Meter.EdgeArity = 77
	require.NotEqual(t, uint(77), Default().Meter.EdgeArity)
	conf.MeterID = "m1"
	meta := conf.Meta()
	require.Equal(t, "m1", meta.ID)
	require.Equal(t, uint(77), meta.EdgeArity)
	require.Equal(t, "counter", meta.Mode)
}
