package hw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimer16Tick(t *testing.T) {
	testCases := []struct {
		name     string
		on       bool
		ticks    []uint32
		expect   uint16
		overflow bool
	}{
		{"stopped", false, []uint32{100}, 0, false},
		{"running", true, []uint32{100, 23}, 123, false},
		{"full scale", true, []uint32{0xffff}, 0xffff, false},
		{"wrap", true, []uint32{0xffff, 101}, 100, true},
		{"double wrap", true, []uint32{0xffff, 0xffff, 0x100}, 0xfe, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var tmr Timer16
			tmr.SetOn(tc.on)
			for _, n := range tc.ticks {
				tmr.Tick(n)
			}
			clk := NewClock(&tmr)
			require.Equal(t, tc.expect, clk.Read())
			require.Equal(t, tc.overflow, clk.Overflowed())
			require.Equal(t, tc.on, tmr.On())
		})
	}
}

func TestTimer16ByteRegisters(t *testing.T) {
	var tmr Timer16
	tmr.SetHigh(0x12)
	tmr.SetLow(0x34)
	require.Equal(t, byte(0x12), tmr.High())
	require.Equal(t, byte(0x34), tmr.Low())
	tmr.SetLow(0xff)
	require.Equal(t, byte(0x12), tmr.High())
	require.Equal(t, uint16(0x12ff), NewClock(&tmr).Read())
}

func TestClockReset(t *testing.T) {
	var tmr Timer16
	clk := NewClock(&tmr)
	clk.Start()
	tmr.Tick(0x1ffff)
	require.True(t, clk.Overflowed())

	clk.Stop()
	clk.Reset()
	require.Equal(t, uint16(0), clk.Read())
	require.False(t, clk.Overflowed())
	require.False(t, tmr.On())

	clk.Start()
	tmr.Tick(7)
	require.Equal(t, uint16(7), clk.Read())
	require.True(t, tmr.On(), "read must restart a running timer")
}

func TestClockReadPausesTimer(t *testing.T) {
	var tmr Timer16
	clk := NewClock(&tmr)
	clk.Start()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			tmr.Tick(1)
		}
	}()
	var last uint16
	for i := 0; i < 1000; i++ {
		v := clk.Read()
		require.True(t, v >= last, "count went backwards: %d < %d", v, last)
		last = v
	}
	<-done
}
