package uart

import (
	"flag"
	"os"
	"strconv"
	"time"

	"go.bug.st/serial"
)

// Config defines the serial port.
type Config struct {
	// Device is the serial device, empty for standard input/output.
	Device string
	// Baud is the baud rate.
	Baud int
	// ReadTimeout bounds each read so readers can observe cancellation.
	ReadTimeout time.Duration
}

// DefaultBaud is the baud rate of the meter.
const DefaultBaud = 9600

var defaultConfig = Config{
	Baud:        DefaultBaud,
	ReadTimeout: 100 * time.Millisecond,
}

func init() {
	if val := os.Getenv("FREQ_SERIAL"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("FREQ_BAUD"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			defaultConfig.Baud = n
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "serial", defaultConfig.Device, "Serial device, standard input/output if empty.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate.")
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

// Mode returns the 8N1 port mode.
func (c *Config) Mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the serial device.
func (c *Config) Open() (serial.Port, error) {
	port, err := serial.Open(c.Device, c.Mode())
	if err != nil {
		return nil, err
	}
	if c.ReadTimeout > 0 {
		if err = port.SetReadTimeout(c.ReadTimeout); err != nil {
			port.Close()
			return nil, err
		}
	}
	return port, nil
}

// Open opens a serial device in 8N1 mode.
func Open(device string, baud int) (serial.Port, error) {
	conf := NewConfig()
	conf.Device, conf.Baud = device, baud
	return conf.Open()
}
