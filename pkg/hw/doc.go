// Package hw models the two timer peripherals used by the frequency meter.
package hw

// The models are register-level: every register is a byte-wide value
// accessed atomically, so a multi-byte value read while the peripheral is
// counting can tear exactly the way it does on the bus. Drivers in this
// package pause the peripheral around multi-byte accesses.
//
// Timer16 is the free-running reference timer (TMR1H:TMR1L).
// Counter8 is the 8-bit edge counter (TMR0) with a fixed prescaler that
// raises an interrupt line when it wraps.
