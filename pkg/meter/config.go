package meter

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Mode selects what the edge-count trigger counts.
type Mode int

const (
	// ModeCounter counts edges of the external signal and measures its
	// frequency.
	ModeCounter Mode = iota
	// ModeTimer counts instruction cycles and maintains a timebase.
	ModeTimer
)

// String implements flag.Value.
func (m Mode) String() string {
	switch m {
	case ModeCounter:
		return "counter"
	case ModeTimer:
		return "timer"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Set implements flag.Value.
func (m *Mode) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseMode parses "counter" or "timer".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "counter":
		return ModeCounter, nil
	case "timer":
		return ModeTimer, nil
	}
	return ModeCounter, fmt.Errorf("%v: %q", ErrUnknownMode, s)
}

// Config defines the measurement parameters.
type Config struct {
	// EdgeArity is the trigger arity, the averaging window in counts.
	EdgeArity uint
	// ReferenceRate is ticks per second of the reference clock.
	ReferenceRate uint
	// ReportEvery is the reporting cadence in main loop cycles.
	ReportEvery uint
	// Mode selects counter or timer operation.
	Mode Mode
}

// Defaults
const (
	DefaultEdgeArity     uint = 1
	DefaultReferenceRate uint = 1000000
	DefaultReportEvery   uint = 500
)

var defaultConfig = Config{
	EdgeArity:     DefaultEdgeArity,
	ReferenceRate: DefaultReferenceRate,
	ReportEvery:   DefaultReportEvery,
	Mode:          ModeCounter,
}

func init() {
	envUint("FREQ_EDGE_ARITY", &defaultConfig.EdgeArity)
	envUint("FREQ_REFERENCE_RATE", &defaultConfig.ReferenceRate)
	envUint("FREQ_REPORT_EVERY", &defaultConfig.ReportEvery)
	if val := os.Getenv("FREQ_MODE"); val != "" {
		if mode, err := ParseMode(val); err == nil {
			defaultConfig.Mode = mode
		}
	}
}

func envUint(name string, v *uint) {
	if val := os.Getenv(name); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			*v = uint(n)
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.UintVar(&defaultConfig.EdgeArity, "edge-arity", defaultConfig.EdgeArity, "Trigger counts per measurement window (1-255).")
	flag.UintVar(&defaultConfig.ReferenceRate, "reference-rate", defaultConfig.ReferenceRate, "Reference clock rate in ticks per second.")
	flag.UintVar(&defaultConfig.ReportEvery, "report-every", defaultConfig.ReportEvery, "Report every N main loop cycles.")
	flag.Var(&defaultConfig.Mode, "mode", "Trigger mode: counter or timer.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the ranges of all options.
func (c *Config) Validate() error {
	if c.EdgeArity < 1 || c.EdgeArity > 255 {
		return fmt.Errorf("%v: %d", ErrInvalidArity, c.EdgeArity)
	}
	if c.ReferenceRate < 1 || c.ReferenceRate > 0xffffffff {
		return fmt.Errorf("%v: %d", ErrInvalidRate, c.ReferenceRate)
	}
	if c.ReportEvery < 1 || c.ReportEvery > 0xffffffff {
		return fmt.Errorf("%v: %d", ErrInvalidReportEvery, c.ReportEvery)
	}
	if c.Mode != ModeCounter && c.Mode != ModeTimer {
		return fmt.Errorf("%v: %v", ErrUnknownMode, c.Mode)
	}
	return nil
}
