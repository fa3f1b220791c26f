package device

import (
	"flag"
	"fmt"
	"os"
	"time"

	"periph.io/x/periph/conn/physic"

	"github.com/robotalks/freqmeter/pkg/env"
	fx "github.com/robotalks/freqmeter/pkg/framework"
	"github.com/robotalks/freqmeter/pkg/hw"
	"github.com/robotalks/freqmeter/pkg/meter"
	"github.com/robotalks/freqmeter/pkg/report/mqtt"
	"github.com/robotalks/freqmeter/pkg/report/msgs"
	"github.com/robotalks/freqmeter/pkg/report/websocket"
	"github.com/robotalks/freqmeter/pkg/sim"
	"github.com/robotalks/freqmeter/pkg/uart"
)

// Config defines the board and its outer surfaces.
type Config struct {
	Meter  *meter.Config
	Serial *uart.Config

	// LoopInterval is the main loop period in counter mode.
	LoopInterval time.Duration
	// SignalHz is the frequency of the simulated input signal.
	SignalHz float64
	// SignalPin names a GPIO pin carrying the input signal.
	SignalPin string
	// SignalPollHz polls SignalPin at this rate when above 0.
	SignalPollHz float64
	// IndicatorPin names a GPIO pin toggled once per measurement window.
	IndicatorPin string
	// MQTTBrokerURL publishes readings to a broker.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
	// WebsocketAddr serves readings to websocket clients.
	WebsocketAddr string
	// MeterID identifies the meter on MQTT and in readings.
	MeterID string
}

var defaultConfig = Config{
	Meter:        meter.Default(),
	Serial:       uart.Default(),
	LoopInterval: fx.DefaultInterval,
	SignalHz:     1000,
}

func init() {
	if val := os.Getenv("FREQ_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("FREQ_METER_ID"); val != "" {
		defaultConfig.MeterID = val
	}
}

// SetupFlags sets command line flags, including meter and serial flags.
func SetupFlags() {
	meter.SetupFlags()
	uart.SetupFlags()
	flag.DurationVar(&defaultConfig.LoopInterval, "loop-interval", defaultConfig.LoopInterval, "Main loop interval.")
	flag.Float64Var(&defaultConfig.SignalHz, "signal-hz", defaultConfig.SignalHz, "Frequency of the simulated input signal, 0 to disable.")
	flag.StringVar(&defaultConfig.SignalPin, "signal-pin", defaultConfig.SignalPin, "GPIO pin of the input signal, overrides -signal-hz.")
	flag.Float64Var(&defaultConfig.SignalPollHz, "signal-poll-hz", defaultConfig.SignalPollHz, "Poll the signal pin at this rate for pins without edge detection.")
	flag.StringVar(&defaultConfig.IndicatorPin, "indicator-pin", defaultConfig.IndicatorPin, "GPIO pin toggled once per measurement window.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws-addr", defaultConfig.WebsocketAddr, "Listen address of the websocket reading stream.")
	flag.StringVar(&defaultConfig.MeterID, "meter-id", defaultConfig.MeterID, "Meter ID, derived from the machine ID if empty.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	meterConf, serialConf := *conf.Meter, *conf.Serial
	conf.Meter, conf.Serial = &meterConf, &serialConf
	return &conf
}

// Meta describes the meter.
func (c *Config) Meta() msgs.Meta {
	return msgs.Meta{
		ID:            c.MeterID,
		EdgeArity:     c.Meter.EdgeArity,
		ReferenceRate: c.Meter.ReferenceRate,
		ReportEvery:   c.Meter.ReportEvery,
		Mode:          c.Meter.Mode.String(),
	}
}

// NewDevice opens the serial port and pins, and assembles the device with
// its signal source and sinks.
func (c *Config) NewDevice() (*Device, error) {
	if c.MeterID == "" {
		c.MeterID = env.MeterID()
	}
	d, err := c.newCore()
	if err != nil {
		return nil, err
	}
	d.Reporter.MeterID = c.MeterID

	if c.IndicatorPin != "" {
		pin, err := sim.OpenPin(c.IndicatorPin, 0)
		if err != nil {
			return nil, fmt.Errorf("indicator pin: %v", err)
		}
		d.Engine.Indicator = pin
	}

	if err := c.addSource(d); err != nil {
		return nil, err
	}

	if c.MQTTBrokerURL != "" {
		sink, err := mqtt.NewSink(c.MQTTBrokerURL, c.Meta())
		if err != nil {
			return nil, fmt.Errorf("create MQTT sink error: %v", err)
		}
		d.Reporter.AddSinks(sink)
	}
	if c.WebsocketAddr != "" {
		d.Reporter.AddSinks(websocket.NewServer(c.WebsocketAddr))
	}
	return d, nil
}

func (c *Config) newCore() (*Device, error) {
	if c.Serial.Device == "" {
		d, err := New(c.Meter, os.Stdin, uart.WriterPort(os.Stdout))
		if err != nil {
			return nil, err
		}
		d.Interval = c.LoopInterval
		return d, nil
	}
	port, err := c.Serial.Open()
	if err != nil {
		return nil, fmt.Errorf("open serial %s error: %v", c.Serial.Device, err)
	}
	d, err := New(c.Meter, port, port)
	if err != nil {
		port.Close()
		return nil, err
	}
	d.Receiver.ReadTimeout = true
	d.Interval = c.LoopInterval
	d.closers = append(d.closers, port)
	return d, nil
}

func (c *Config) addSource(d *Device) error {
	rate := uint32(c.Meter.ReferenceRate)
	switch {
	case c.Meter.Mode == meter.ModeTimer:
		tk := sim.NewTicker(d.Timer, rate)
		tk.Counter = d.Counter
		d.Sources = append(d.Sources, tk)
	case c.SignalPin != "":
		pin, err := sim.OpenPin(c.SignalPin, physic.Frequency(c.SignalPollHz*float64(physic.Hertz)))
		if err != nil {
			return fmt.Errorf("signal pin: %v", err)
		}
		d.Sources = append(d.Sources, sim.NewPinSource(pin, d.Counter), sim.NewTicker(d.Timer, rate))
	case c.SignalHz > 0:
		freq := physic.Frequency(c.SignalHz * float64(physic.Hertz))
		d.Sources = append(d.Sources, sim.NewGenerator(d.Timer, d.Counter, rate, freq))
	}
	return nil
}

// counterSource selects what the counter counts in a mode.
func counterSource(mode meter.Mode) hw.ClockSource {
	if mode == meter.ModeTimer {
		return hw.InstructionClock
	}
	return hw.ExternalPin
}
