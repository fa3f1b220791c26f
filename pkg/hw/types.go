package hw

// InterruptLine is the signal a peripheral raises towards the interrupt
// controller.
type InterruptLine interface {
	Raise()
}

// RaiseFunc is func form of InterruptLine.
type RaiseFunc func()

// Raise implements InterruptLine.
func (f RaiseFunc) Raise() {
	f()
}

// ReferenceClock is a free-running counter incrementing at a fixed rate.
type ReferenceClock interface {
	// Start enables counting.
	Start()
	// Stop disables counting.
	Stop()
	// Reset zeroes the count and clears the overflow flag.
	Reset()
	// Read returns the current count.
	Read() uint16
	// Overflowed reports whether the count wrapped past 0xffff since the
	// last Reset.
	Overflowed() bool
}

// EdgeTrigger raises an interrupt after a configured number of counts.
type EdgeTrigger interface {
	// Configure sets the trigger arity and arms the counter.
	Configure(arity uint8) error
	// Rearm reloads the counter to fire again after Arity more counter
	// increments. With a prescaler of N that is N·Arity input edges.
	Rearm()
	// Arity returns the configured arity.
	Arity() uint8
}
