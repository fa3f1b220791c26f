package hw

import (
	"sync/atomic"

	"periph.io/x/periph/conn/gpio"
)

// ClockSource selects what increments a Counter8.
type ClockSource int

const (
	// ExternalPin counts edges on the counter input pin.
	ExternalPin ClockSource = iota
	// InstructionClock counts internal instruction cycles.
	InstructionClock
)

// DefaultPrescale is the smallest prescaler the counter supports.
const DefaultPrescale = 2

// Counter8 models an 8-bit up-counter with prescaler which raises its
// interrupt line when it wraps from 0xff to 0x00.
type Counter8 struct {
	Line       InterruptLine
	Source     ClockSource
	ActiveEdge gpio.Edge
	Prescale   uint32

	reg   uint32
	pre   uint32
	level uint32
}

// NewCounter8 creates a counter with the default prescaler counting
// falling edges.
func NewCounter8(line InterruptLine, src ClockSource) *Counter8 {
	return &Counter8{
		Line:       line,
		Source:     src,
		ActiveEdge: gpio.FallingEdge,
		Prescale:   DefaultPrescale,
	}
}

// Input samples the level of the counter input pin.
func (c *Counter8) Input(l gpio.Level) {
	var v uint32
	if l == gpio.High {
		v = 1
	}
	prev := atomic.SwapUint32(&c.level, v)
	switch {
	case prev == v:
	case v == 0:
		c.Edge(gpio.FallingEdge)
	default:
		c.Edge(gpio.RisingEdge)
	}
}

// Edge delivers an edge event detected on the input pin.
func (c *Counter8) Edge(e gpio.Edge) {
	if c.Source != ExternalPin {
		return
	}
	if c.ActiveEdge == gpio.BothEdges || c.ActiveEdge == e {
		c.pulse()
	}
}

// Clock delivers n instruction cycles.
func (c *Counter8) Clock(n uint32) {
	if c.Source != InstructionClock {
		return
	}
	for ; n > 0; n-- {
		c.pulse()
	}
}

// Load writes the counter register. Like the hardware, it also clears
// the prescaler.
func (c *Counter8) Load(v byte) {
	atomic.StoreUint32(&c.pre, 0)
	atomic.StoreUint32(&c.reg, uint32(v))
}

// Value reads the counter register.
func (c *Counter8) Value() byte {
	return byte(atomic.LoadUint32(&c.reg))
}

func (c *Counter8) pulse() {
	if c.Prescale > 1 {
		if atomic.AddUint32(&c.pre, 1) < c.Prescale {
			return
		}
		atomic.StoreUint32(&c.pre, 0)
	}
	for {
		old := atomic.LoadUint32(&c.reg)
		v := (old + 1) & 0xff
		if atomic.CompareAndSwapUint32(&c.reg, old, v) {
			if v == 0 && c.Line != nil {
				c.Line.Raise()
			}
			return
		}
	}
}

// Trigger drives a Counter8 as an EdgeTrigger.
type Trigger struct {
	Counter *Counter8

	arity uint32
}

// NewTrigger creates a Trigger over the counter.
func NewTrigger(c *Counter8) *Trigger {
	return &Trigger{Counter: c}
}

// Configure implements EdgeTrigger.
func (t *Trigger) Configure(arity uint8) error {
	if arity == 0 {
		return ErrInvalidArity
	}
	atomic.StoreUint32(&t.arity, uint32(arity))
	t.Rearm()
	return nil
}

// Rearm implements EdgeTrigger. The counter fires again after Arity
// increments, which is Prescale·Arity falling edges in counter mode.
func (t *Trigger) Rearm() {
	t.Counter.Load(ReloadValue(t.Arity()))
}

// Arity implements EdgeTrigger.
func (t *Trigger) Arity() uint8 {
	return uint8(atomic.LoadUint32(&t.arity))
}

// ReloadValue is the counter value which wraps after arity counts.
func ReloadValue(arity uint8) byte {
	return byte(256 - uint(arity))
}
