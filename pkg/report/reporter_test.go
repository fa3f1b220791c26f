package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/freqmeter/pkg/framework"
	"github.com/robotalks/freqmeter/pkg/meter"
	"github.com/robotalks/freqmeter/pkg/report/msgs"
	"github.com/robotalks/freqmeter/pkg/uart"
)

type countingPublisher struct {
	hz      uint32
	windows uint32
}

func (p *countingPublisher) Latest() uint32  { return p.hz }
func (p *countingPublisher) Windows() uint32 { return p.windows }

func TestReporterCadence(t *testing.T) {
	var buf bytes.Buffer
	pub := &countingPublisher{hz: 3571}
	conf := &meter.Config{EdgeArity: 10, ReferenceRate: 250000, ReportEvery: 3}
	r := NewReporter(pub, conf, NewLineSink(uart.NewTransmitter(uart.WriterPort(&buf))))
	loop := fx.NewLoop().Add(r)

	ctx := context.Background()
	for i := 0; i < 7; i++ {
		if i == 4 {
			pub.hz = 500
		}
		loop.Step(ctx)
	}
	// cycles 0, 3, 6
	require.Equal(t, "Freq: 3571hz\r\nFreq: 3571hz\r\nFreq: 500hz\r\n", buf.String())
}

func TestReporterReading(t *testing.T) {
	var readings []*msgs.Reading
	pub := &countingPublisher{hz: 1000, windows: 42}
	conf := &meter.Config{EdgeArity: 5, ReferenceRate: 250000, ReportEvery: 1}
	r := NewReporter(pub, conf, ReportFunc(func(ctx context.Context, reading *msgs.Reading) error {
		readings = append(readings, reading)
		return nil
	}))
	r.MeterID = "m1"
	loop := fx.NewLoop().Add(r)
	loop.Step(context.Background())
	loop.Step(context.Background())

	require.Len(t, readings, 2)
	require.Equal(t, "m1", readings[1].MeterID)
	require.Equal(t, uint32(1000), readings[1].Hz)
	require.Equal(t, uint32(5), readings[1].EdgeArity)
	require.Equal(t, uint32(250000), readings[1].ReferenceRate)
	require.Equal(t, uint32(1), readings[1].Cycle)
	require.Equal(t, uint32(42), readings[1].Windows)
	require.NotZero(t, readings[1].Timestamp)
}

type fakeControlContext struct {
	fx.ControlContext
	cycle uint32
}

func (c *fakeControlContext) Cycle() uint32            { return c.cycle }
func (c *fakeControlContext) Time() time.Time          { return time.Unix(1700000000, 0) }
func (c *fakeControlContext) Context() context.Context { return context.Background() }

func TestReporterSinkErrors(t *testing.T) {
	var reached bool
	r := &Reporter{
		Publisher: meter.PublisherFunc(func() uint32 { return 1 }),
		Every:     2,
		Sinks: []Sink{
			ReportFunc(func(context.Context, *msgs.Reading) error {
				return errors.New("broker down")
			}),
			ReportFunc(func(context.Context, *msgs.Reading) error {
				reached = true
				return nil
			}),
		},
	}
	err := r.Control(&fakeControlContext{cycle: 2})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broker down")
	require.True(t, reached, "a failing sink does not stop the others")

	reached = false
	require.NoError(t, r.Control(&fakeControlContext{cycle: 3}))
	require.False(t, reached)
}

func TestReporterDue(t *testing.T) {
	testCases := []struct {
		every  uint32
		cycle  uint32
		expect bool
	}{
		{500, 0, true},
		{500, 1, false},
		{500, 499, false},
		{500, 500, true},
		{1, 7, true},
		{0, 7, true},
	}
	for _, tc := range testCases {
		r := &Reporter{Every: tc.every}
		require.Equal(t, tc.expect, r.Due(tc.cycle), "every=%d cycle=%d", tc.every, tc.cycle)
	}
}
