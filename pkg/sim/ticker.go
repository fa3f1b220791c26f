package sim

import (
	"context"
	"time"

	"github.com/robotalks/freqmeter/pkg/hw"
)

// Ticker advances a reference timer, and optionally a counter clocked by
// the instruction clock, at Rate ticks per second of wall-clock time.
type Ticker struct {
	Timer    *hw.Timer16
	Counter  *hw.Counter8
	Rate     uint32
	Interval time.Duration
}

// NewTicker creates a Ticker.
func NewTicker(timer *hw.Timer16, rate uint32) *Ticker {
	return &Ticker{Timer: timer, Rate: rate, Interval: time.Millisecond}
}

// Name implements Named.
func (t *Ticker) Name() string {
	return "ticker"
}

// Run implements Runnable.
func (t *Ticker) Run(ctx context.Context) error {
	interval := t.Interval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()
	var ticked uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			target := ticksIn(now.Sub(start), t.Rate)
			for ticked < target {
				n := target - ticked
				if n > 0xffff {
					n = 0xffff
				}
				t.Timer.Tick(uint32(n))
				if t.Counter != nil {
					t.Counter.Clock(uint32(n))
				}
				ticked += n
			}
		}
	}
}

func ticksIn(d time.Duration, rate uint32) uint64 {
	sec := uint64(d / time.Second)
	nsec := uint64(d % time.Second)
	return sec*uint64(rate) + nsec*uint64(rate)/uint64(time.Second)
}
