package sim

import (
	"context"
	"sync"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"

	"github.com/robotalks/freqmeter/pkg/hw"
)

// Generator drives a square wave into a Counter8 in virtual time. Between
// two level changes it advances the reference timer by the exact number
// of reference ticks elapsed, so measurements are deterministic.
type Generator struct {
	Timer     *hw.Timer16
	Counter   *hw.Counter8
	Rate      uint32           // reference ticks per second
	Frequency physic.Frequency // of the square wave

	// Interval is the wall-clock step of Run.
	Interval time.Duration

	lock   sync.Mutex
	rem    uint64 // remainder of ticks in units of 1/(2*Frequency)
	halves uint64
	level  gpio.Level
}

// MaxHalvesPerStep bounds the half periods generated by one Run step.
const MaxHalvesPerStep = 1 << 16

// NewGenerator creates a Generator.
func NewGenerator(timer *hw.Timer16, counter *hw.Counter8, rate uint32, freq physic.Frequency) *Generator {
	return &Generator{
		Timer:     timer,
		Counter:   counter,
		Rate:      rate,
		Frequency: freq,
		Interval:  time.Millisecond,
	}
}

// Name implements Named.
func (g *Generator) Name() string {
	return "generator"
}

// Step generates n full periods, each a rising then a falling edge.
func (g *Generator) Step(n int) {
	g.lock.Lock()
	defer g.lock.Unlock()
	for i := 0; i < 2*n; i++ {
		g.half()
	}
}

// Halves returns the number of half periods generated.
func (g *Generator) Halves() uint64 {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.halves
}

// Run generates the wave paced by the wall clock until ctx is done.
func (g *Generator) Run(ctx context.Context) error {
	if g.Frequency <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	interval := g.Interval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			target := halvesIn(now.Sub(start), g.Frequency)
			g.lock.Lock()
			for n := 0; g.halves < target && n < MaxHalvesPerStep; n++ {
				g.half()
			}
			g.lock.Unlock()
		}
	}
}

func (g *Generator) half() {
	// ticks = Rate / (2*Frequency) with Frequency in µHz.
	num := uint64(g.Rate)*uint64(physic.Hertz) + g.rem
	den := 2 * uint64(g.Frequency)
	g.Timer.Tick(uint32(num / den))
	g.rem = num % den

	if g.level == gpio.Low {
		g.level = gpio.High
	} else {
		g.level = gpio.Low
	}
	g.halves++
	g.Counter.Input(g.level)
}

func halvesIn(d time.Duration, f physic.Frequency) uint64 {
	return uint64(2 * d.Seconds() * float64(f) / float64(physic.Hertz))
}
