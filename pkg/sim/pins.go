package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/experimental/conn/gpio/gpioutil"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/robotalks/freqmeter/pkg/hw"
)

// OpenPin initializes the host drivers and looks up a GPIO pin by name.
// With poll above 0, edges are detected by polling the pin level.
func OpenPin(name string, poll physic.Frequency) (gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	if poll > 0 {
		return gpioutil.PollEdge(p, poll), nil
	}
	return p, nil
}

// PinSource delivers the falling edges of a GPIO input pin to a counter.
type PinSource struct {
	Pin     gpio.PinIn
	Counter *hw.Counter8
	// Timeout bounds each wait for an edge so cancellation is observed.
	Timeout time.Duration
}

// NewPinSource creates a PinSource.
func NewPinSource(pin gpio.PinIn, counter *hw.Counter8) *PinSource {
	return &PinSource{Pin: pin, Counter: counter, Timeout: 100 * time.Millisecond}
}

// Name implements Named.
func (s *PinSource) Name() string {
	return "pin:" + s.Pin.Name()
}

// Run implements Runnable.
func (s *PinSource) Run(ctx context.Context) error {
	if err := s.Pin.In(gpio.PullNoChange, gpio.FallingEdge); err != nil {
		return err
	}
	defer s.Pin.Halt()
	glog.Infof("counting falling edges on %s", s.Pin)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if s.Pin.WaitForEdge(s.Timeout) {
			s.Counter.Edge(gpio.FallingEdge)
		}
	}
}
