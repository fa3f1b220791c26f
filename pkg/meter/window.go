package meter

import "math"

const (
	// OverflowUnit is added to the tick count of a window in which the
	// reference clock wrapped. Only one wrap is compensated.
	OverflowUnit uint32 = 65535
	// EdgesPerCount is the number of signal edges per trigger count
	// (the edge counter prescaler).
	EdgesPerCount uint64 = 2
)

// Window is one measurement window between two trigger completions.
type Window struct {
	EdgeCount      uint8
	ReferenceTicks uint16
	Overflowed     bool
}

// Ticks returns the reference ticks of the window after overflow
// compensation, never less than 1.
func (w Window) Ticks() uint32 {
	ticks := uint32(w.ReferenceTicks)
	if w.Overflowed {
		ticks += OverflowUnit
	}
	if ticks == 0 {
		ticks = 1
	}
	return ticks
}

// Frequency converts the window to hertz.
func (w Window) Frequency(referenceRate uint32) uint32 {
	return Frequency(w.EdgeCount, referenceRate, w.Ticks())
}

// Frequency computes (2 * arity * rate) / ticks with truncating integer
// division. Zero ticks count as one, and results beyond uint32 saturate.
func Frequency(arity uint8, referenceRate, ticks uint32) uint32 {
	if ticks == 0 {
		ticks = 1
	}
	hz := EdgesPerCount * uint64(arity) * uint64(referenceRate) / uint64(ticks)
	if hz > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(hz)
}
