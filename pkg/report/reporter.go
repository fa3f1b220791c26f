package report

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/freqmeter/pkg/framework"
	"github.com/robotalks/freqmeter/pkg/meter"
	"github.com/robotalks/freqmeter/pkg/report/msgs"
	"github.com/robotalks/freqmeter/pkg/uart"
)

// Sink receives readings.
type Sink interface {
	Report(context.Context, *msgs.Reading) error
}

// ReportFunc is func form of Sink.
type ReportFunc func(context.Context, *msgs.Reading) error

// Report implements Sink.
func (f ReportFunc) Report(ctx context.Context, r *msgs.Reading) error {
	return f(ctx, r)
}

// WindowCounter is optionally implemented by a Publisher to count the
// measurement windows.
type WindowCounter interface {
	Windows() uint32
}

// Reporter is a loop controller which takes a reading every Every cycles,
// starting from cycle 0.
type Reporter struct {
	Publisher     meter.Publisher
	Every         uint32
	MeterID       string
	EdgeArity     uint8
	ReferenceRate uint32
	Sinks         []Sink
}

// NewReporter creates a Reporter for the measurement config.
func NewReporter(pub meter.Publisher, conf *meter.Config, sinks ...Sink) *Reporter {
	return &Reporter{
		Publisher:     pub,
		Every:         uint32(conf.ReportEvery),
		EdgeArity:     uint8(conf.EdgeArity),
		ReferenceRate: uint32(conf.ReferenceRate),
		Sinks:         sinks,
	}
}

// AddSinks appends sinks.
func (r *Reporter) AddSinks(sinks ...Sink) *Reporter {
	r.Sinks = append(r.Sinks, sinks...)
	return r
}

// Due tells whether a reading is taken on the cycle.
func (r *Reporter) Due(cycle uint32) bool {
	every := r.Every
	if every == 0 {
		every = 1
	}
	return cycle%every == 0
}

// Reading takes a reading.
func (r *Reporter) Reading(cc fx.ControlContext) *msgs.Reading {
	reading := &msgs.Reading{
		MeterID:       r.MeterID,
		Hz:            r.Publisher.Latest(),
		EdgeArity:     uint32(r.EdgeArity),
		ReferenceRate: r.ReferenceRate,
		Cycle:         cc.Cycle(),
		Timestamp:     cc.Time().UnixNano(),
	}
	if wc, ok := r.Publisher.(WindowCounter); ok {
		reading.Windows = wc.Windows()
	}
	return reading
}

// Control implements Controller.
func (r *Reporter) Control(cc fx.ControlContext) error {
	if !r.Due(cc.Cycle()) {
		return nil
	}
	reading := r.Reading(cc)
	glog.V(2).Infof("reading %s", reading)
	var errs fx.AggregatedError
	for _, sink := range r.Sinks {
		errs.Add(sink.Report(cc.Context(), reading))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder. Sinks which are Runnable run along
// with the loop.
func (r *Reporter) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvReport, r)
	for _, sink := range r.Sinks {
		if runner, ok := sink.(fx.Runnable); ok {
			loop.AddRunnable(runner)
		}
	}
}

// Line format of the serial report.
const (
	DefaultLabel = "Freq: "
	DefaultUnit  = "hz"
)

// LineSink writes readings as report lines.
type LineSink struct {
	Transmitter *uart.Transmitter
	Label       string
	Unit        string
}

// NewLineSink creates a LineSink with the default format.
func NewLineSink(tx *uart.Transmitter) *LineSink {
	return &LineSink{Transmitter: tx, Label: DefaultLabel, Unit: DefaultUnit}
}

// Report implements Sink.
func (s *LineSink) Report(ctx context.Context, r *msgs.Reading) error {
	return s.Transmitter.WriteLine(s.Label, r.Hz, s.Unit)
}
