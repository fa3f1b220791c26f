// Package meter implements a reciprocal-counting frequency meter.
package meter

// An edge-count trigger fires after a fixed number of edges of the
// measured signal. The interrupt handler (Engine) then reads how many
// reference clock ticks elapsed, converts that to hertz, publishes the
// value through a two-slot Store and restarts both counters.
//
// The polling side only ever calls Store.Latest. The handler only ever
// writes the slot the selector does not point to and flips the selector
// last, so a reader observes either the previous or the new complete
// result.
