package hw

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
)

type raiseCounter struct {
	n int
}

func (r *raiseCounter) Raise() {
	r.n++
}

func TestTriggerArity(t *testing.T) {
	testCases := []struct {
		arity  uint8
		reload byte
	}{
		{1, 0xff},
		{5, 0xfb},
		{10, 0xf6},
		{255, 0x01},
	}

	for _, tc := range testCases {
		line := &raiseCounter{}
		cnt := NewCounter8(line, ExternalPin)
		trig := NewTrigger(cnt)
		require.NoError(t, trig.Configure(tc.arity))
		require.Equal(t, tc.reload, cnt.Value())
		require.Equal(t, tc.arity, trig.Arity())

		// prescaler 2: two falling edges per count.
		for i := 0; i < int(tc.arity)*2-1; i++ {
			cnt.Edge(gpio.FallingEdge)
		}
		require.Equalf(t, 0, line.n, "arity %d fired early", tc.arity)
		cnt.Edge(gpio.FallingEdge)
		require.Equalf(t, 1, line.n, "arity %d did not fire", tc.arity)

		trig.Rearm()
		require.Equal(t, tc.reload, cnt.Value())
	}
}

func TestTriggerInvalidArity(t *testing.T) {
	trig := NewTrigger(NewCounter8(nil, ExternalPin))
	require.Equal(t, ErrInvalidArity, trig.Configure(0))
}

func TestCounter8Input(t *testing.T) {
	line := &raiseCounter{}
	cnt := NewCounter8(line, ExternalPin)
	cnt.Prescale = 1
	cnt.Load(0xfe)
	cnt.Input(gpio.Low)
	cnt.Input(gpio.High)
	require.Equal(t, byte(0xfe), cnt.Value(), "rising edge must not count")
	cnt.Input(gpio.High)
	cnt.Input(gpio.Low)
	require.Equal(t, byte(0xff), cnt.Value())
	cnt.Input(gpio.Low)
	require.Equal(t, byte(0xff), cnt.Value(), "steady level must not count")
	cnt.Input(gpio.High)
	cnt.Input(gpio.Low)
	require.Equal(t, byte(0), cnt.Value())
	require.Equal(t, 1, line.n)
}

func TestCounter8Sources(t *testing.T) {
	line := &raiseCounter{}
	cnt := NewCounter8(line, InstructionClock)
	cnt.Load(0)
	cnt.Edge(gpio.FallingEdge)
	require.Equal(t, byte(0), cnt.Value(), "pin edges ignored in timer mode")
	cnt.Clock(512)
	require.Equal(t, byte(0), cnt.Value())
	require.Equal(t, 1, line.n)
	cnt.Clock(6)
	require.Equal(t, byte(3), cnt.Value())
}

func TestCounter8LoadClearsPrescaler(t *testing.T) {
	cnt := NewCounter8(nil, ExternalPin)
	cnt.Load(0)
	cnt.Edge(gpio.FallingEdge)
	cnt.Load(0)
	cnt.Edge(gpio.FallingEdge)
	require.Equal(t, byte(0), cnt.Value())
	cnt.Edge(gpio.FallingEdge)
	require.Equal(t, byte(1), cnt.Value())
}
