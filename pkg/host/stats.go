package host

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultStatsWindow is the number of recent readings kept by Stats.
const DefaultStatsWindow = 100

// Summary summarizes readings.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Stats keeps a rolling window of readings.
type Stats struct {
	Window int

	lock   sync.Mutex
	values []float64
}

// NewStats creates Stats with the default window.
func NewStats() *Stats {
	return &Stats{Window: DefaultStatsWindow}
}

// Add adds a reading.
func (s *Stats) Add(hz uint32) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values = append(s.values, float64(hz))
	if s.Window > 0 && len(s.values) > s.Window {
		s.values = append(s.values[:0], s.values[len(s.values)-s.Window:]...)
	}
}

// Reset drops all readings.
func (s *Stats) Reset() {
	s.lock.Lock()
	s.values = nil
	s.lock.Unlock()
}

// Summary summarizes the readings in the window.
func (s *Stats) Summary() Summary {
	s.lock.Lock()
	defer s.lock.Unlock()
	sum := Summary{Count: len(s.values)}
	if sum.Count == 0 {
		return sum
	}
	sum.Min, sum.Max = floats.Min(s.values), floats.Max(s.values)
	if sum.Count == 1 {
		sum.Mean = s.values[0]
		return sum
	}
	sum.Mean, sum.StdDev = stat.MeanStdDev(s.values, nil)
	return sum
}
