package host

import (
	"context"
	"fmt"
	"io"
	"time"
)

// DefaultAckTimeout is how long Send waits for the acknowledgement.
const DefaultAckTimeout = time.Second

// Client sends commands to the meter and waits for acknowledgements.
type Client struct {
	Writer     io.Writer
	Monitor    *Monitor
	AckTimeout time.Duration
}

// NewClient creates a Client over a port.
func NewClient(port io.ReadWriter) *Client {
	return &Client{
		Writer:     port,
		Monitor:    NewMonitor(port),
		AckTimeout: DefaultAckTimeout,
	}
}

// Send sends a command letter and waits for its acknowledgement.
func (c *Client) Send(cmd byte) error {
	if _, err := c.Writer.Write([]byte{cmd, '\n'}); err != nil {
		return err
	}
	timeout := time.After(c.AckTimeout)
	for {
		select {
		case ack := <-c.Monitor.AckChan():
			if ack == cmd {
				return nil
			}
		case <-timeout:
			return fmt.Errorf("command %c: %v", cmd, context.DeadlineExceeded)
		}
	}
}
