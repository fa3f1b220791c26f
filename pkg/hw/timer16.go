package hw

import "sync/atomic"

// Timer16 models a 16-bit timer exposed as a pair of byte registers.
type Timer16 struct {
	count uint32 // TMRxH<<8 | TMRxL
	on    uint32
	ovf   uint32
}

// Tick advances the timer by n input clocks. It has no effect while the
// timer is off.
func (t *Timer16) Tick(n uint32) {
	if n == 0 || atomic.LoadUint32(&t.on) == 0 {
		return
	}
	for {
		old := atomic.LoadUint32(&t.count)
		sum := uint64(old) + uint64(n)
		if atomic.CompareAndSwapUint32(&t.count, old, uint32(sum&0xffff)) {
			if sum > 0xffff {
				atomic.StoreUint32(&t.ovf, 1)
			}
			return
		}
	}
}

// On reports whether the timer is counting.
func (t *Timer16) On() bool {
	return atomic.LoadUint32(&t.on) != 0
}

// SetOn sets the ON bit.
func (t *Timer16) SetOn(on bool) {
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(&t.on, v)
}

// Low reads the low byte register.
func (t *Timer16) Low() byte {
	return byte(atomic.LoadUint32(&t.count))
}

// High reads the high byte register.
func (t *Timer16) High() byte {
	return byte(atomic.LoadUint32(&t.count) >> 8)
}

// SetLow writes the low byte register.
func (t *Timer16) SetLow(b byte) {
	t.setByte(0, b)
}

// SetHigh writes the high byte register.
func (t *Timer16) SetHigh(b byte) {
	t.setByte(8, b)
}

func (t *Timer16) setByte(shift uint, b byte) {
	for {
		old := atomic.LoadUint32(&t.count)
		v := old&^(0xff<<shift) | uint32(b)<<shift
		if atomic.CompareAndSwapUint32(&t.count, old, v) {
			return
		}
	}
}

// OverflowFlag reads the overflow flag.
func (t *Timer16) OverflowFlag() bool {
	return atomic.LoadUint32(&t.ovf) != 0
}

// ClearOverflow clears the overflow flag.
func (t *Timer16) ClearOverflow() {
	atomic.StoreUint32(&t.ovf, 0)
}

// Clock drives a Timer16 as a ReferenceClock.
type Clock struct {
	Timer *Timer16
}

// NewClock creates a Clock over the timer.
func NewClock(t *Timer16) *Clock {
	return &Clock{Timer: t}
}

// Start implements ReferenceClock.
func (c *Clock) Start() {
	c.Timer.SetOn(true)
}

// Stop implements ReferenceClock.
func (c *Clock) Stop() {
	c.Timer.SetOn(false)
}

// Reset implements ReferenceClock.
func (c *Clock) Reset() {
	c.paused(func() {
		c.Timer.SetHigh(0)
		c.Timer.SetLow(0)
		c.Timer.ClearOverflow()
	})
}

// Read implements ReferenceClock.
func (c *Clock) Read() (v uint16) {
	c.paused(func() {
		lo := c.Timer.Low()
		hi := c.Timer.High()
		v = uint16(hi)<<8 | uint16(lo)
	})
	return
}

// Overflowed implements ReferenceClock.
func (c *Clock) Overflowed() bool {
	return c.Timer.OverflowFlag()
}

// paused runs fn with counting disabled and restores the ON bit after.
func (c *Clock) paused(fn func()) {
	running := c.Timer.On()
	if running {
		c.Timer.SetOn(false)
	}
	fn()
	if running {
		c.Timer.SetOn(true)
	}
}
