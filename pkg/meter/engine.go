package meter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/periph/conn/gpio"

	"github.com/robotalks/freqmeter/pkg/hw"
	"github.com/robotalks/freqmeter/pkg/irq"
)

// Engine is the interrupt handler of the trigger source.
type Engine struct {
	Clock   hw.ReferenceClock
	Trigger hw.EdgeTrigger
	Store   *Store
	Source  irq.Source
	Arity   uint8
	Rate    uint32
	Mode    Mode

	// Indicator, if set, toggles once per completed window.
	Indicator gpio.PinOut

	complete  func(*Engine)
	windows   uint32
	timebase  uint32
	indicator gpio.Level
}

// NewEngine creates an Engine using the config.
func (c *Config) NewEngine(clock hw.ReferenceClock, trigger hw.EdgeTrigger) (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		Clock:   clock,
		Trigger: trigger,
		Store:   &Store{},
		Source:  irq.SourceTrigger,
		Arity:   uint8(c.EdgeArity),
		Rate:    uint32(c.ReferenceRate),
		Mode:    c.Mode,
	}
	switch c.Mode {
	case ModeCounter:
		e.complete = (*Engine).measure
	case ModeTimer:
		e.complete = (*Engine).tick
	default:
		return nil, fmt.Errorf("%v: %v", ErrUnknownMode, c.Mode)
	}
	return e, nil
}

// Start arms the trigger and starts the reference clock from zero.
func (e *Engine) Start() error {
	if err := e.Trigger.Configure(e.Arity); err != nil {
		return err
	}
	e.Clock.Stop()
	e.Clock.Reset()
	e.Clock.Start()
	return nil
}

// HandleInterrupt implements irq.Handler.
func (e *Engine) HandleInterrupt(flags irq.Flags) {
	if !flags.Pending(e.Source) {
		return
	}
	e.complete(e)
	flags.Clear(e.Source)
}

// Latest implements Publisher.
func (e *Engine) Latest() uint32 {
	return e.Store.Latest()
}

// Windows returns the number of completed windows.
func (e *Engine) Windows() uint32 {
	return atomic.LoadUint32(&e.windows)
}

// Timebase returns the number of trigger completions in timer mode.
func (e *Engine) Timebase() uint32 {
	return atomic.LoadUint32(&e.timebase)
}

// Delay waits until the timebase advanced by n ticks.
func (e *Engine) Delay(ctx context.Context, n uint32) error {
	start := e.Timebase()
	for e.Timebase()-start < n {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Microsecond):
		}
	}
	return nil
}

func (e *Engine) measure() {
	// count and overflow flag are sampled together while paused
	e.Clock.Stop()
	w := Window{
		EdgeCount:      e.Trigger.Arity(),
		ReferenceTicks: e.Clock.Read(),
		Overflowed:     e.Clock.Overflowed(),
	}
	e.Store.Publish(w.Frequency(e.Rate))
	atomic.AddUint32(&e.windows, 1)
	e.toggleIndicator()

	e.Clock.Reset()
	e.Clock.Start()
	e.Trigger.Rearm()
}

func (e *Engine) tick() {
	atomic.AddUint32(&e.timebase, 1)
	e.Trigger.Rearm()
}

func (e *Engine) toggleIndicator() {
	if e.Indicator == nil {
		return
	}
	e.indicator = !e.indicator
	e.Indicator.Out(e.indicator)
}

// TimebasePacer paces a loop on the engine timebase.
type TimebasePacer struct {
	Engine *Engine
	Ticks  uint32
}

// Pace waits for Ticks timebase ticks.
func (p *TimebasePacer) Pace(ctx context.Context) error {
	return p.Engine.Delay(ctx, p.Ticks)
}
