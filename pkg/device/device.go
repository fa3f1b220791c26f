// Package device assembles the meter: the hardware models, the interrupt
// controller, the frequency engine, the serial transport and the main
// loop which reports readings.
package device

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/freqmeter/pkg/framework"
	"github.com/robotalks/freqmeter/pkg/hw"
	"github.com/robotalks/freqmeter/pkg/irq"
	"github.com/robotalks/freqmeter/pkg/meter"
	"github.com/robotalks/freqmeter/pkg/report"
	"github.com/robotalks/freqmeter/pkg/uart"
)

// Device is an assembled meter.
type Device struct {
	Config      *meter.Config
	IRQ         *irq.Controller
	Timer       *hw.Timer16
	Counter     *hw.Counter8
	Engine      *meter.Engine
	Transmitter *uart.Transmitter
	Intake      *uart.Intake
	Receiver    *uart.Receiver
	Reporter    *report.Reporter
	// Sources drive the timer and counter.
	Sources []fx.Runnable
	// Interval is the loop interval in counter mode.
	Interval time.Duration

	closers []io.Closer
}

// New assembles a device reading commands from rx and writing lines to
// tx. rx may be nil.
func New(conf *meter.Config, rx io.Reader, tx uart.Port) (*Device, error) {
	d := &Device{
		Config: conf,
		IRQ:    irq.NewController(nil),
		Timer:  &hw.Timer16{},
	}
	d.Counter = hw.NewCounter8(d.IRQ.Line(irq.SourceTrigger), counterSource(conf.Mode))
	engine, err := conf.NewEngine(hw.NewClock(d.Timer), hw.NewTrigger(d.Counter))
	if err != nil {
		return nil, err
	}
	d.Engine = engine
	d.Transmitter = uart.NewTransmitter(tx)
	d.Intake = uart.NewIntake(uart.EchoCommands(d.Transmitter))
	handlers := irq.Handlers{d.Engine}
	if rx != nil {
		d.Receiver = uart.NewReceiver(rx, d.IRQ.Line(irq.SourceReceive), d.Intake)
		handlers = append(handlers, d.Receiver)
	}
	d.IRQ.Handler = handlers
	d.Reporter = report.NewReporter(d.Engine, conf, report.NewLineSink(d.Transmitter))
	return d, nil
}

// Start arms the engine and unmasks the interrupts.
func (d *Device) Start() error {
	if err := d.Engine.Start(); err != nil {
		return err
	}
	d.IRQ.Enable(irq.SourceTrigger, irq.SourceReceive)
	glog.Infof("meter started: arity=%d rate=%d mode=%s", d.Engine.Arity, d.Engine.Rate, d.Engine.Mode)
	return nil
}

// AddToLoop implements LoopAdder.
func (d *Device) AddToLoop(loop *fx.Loop) {
	loop.Add(d.Reporter)
	if d.Receiver != nil {
		loop.AddRunnable(d.Receiver)
	}
	loop.AddRunnable(d.Sources...)
	if d.Config.Mode == meter.ModeTimer {
		loop.Pacer = &meter.TimebasePacer{Engine: d.Engine, Ticks: 1}
	}
}

// NewLoop creates the main loop of the device.
func (d *Device) NewLoop() *fx.Loop {
	loop := fx.NewLoop()
	if d.Interval > 0 {
		loop.Interval = d.Interval
	}
	return loop.Add(d)
}

// Name implements Named.
func (d *Device) Name() string {
	return "device"
}

// Run starts the device and runs the main loop until ctx is done.
func (d *Device) Run(ctx context.Context) error {
	defer d.Close()
	if err := d.Start(); err != nil {
		return err
	}
	return d.NewLoop().Run(ctx)
}

// Close releases the serial port.
func (d *Device) Close() error {
	var errs fx.AggregatedError
	for _, c := range d.closers {
		errs.Add(c.Close())
	}
	d.closers = nil
	return errs.Aggregate()
}
