// Package serialrx reads carrier samples from a microcontroller that
// streams them as text over a USB CDC serial port.
package serialrx

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sergev/wwvb/carrier"
	"github.com/sergev/wwvb/config"
	"github.com/sergev/wwvb/receiver"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	VendorID  = 0x2e8a // Raspberry Pi
	ProductID = 0x000a // Pico SDK CDC UART

	// The receiver sends 50 samples per second; a silent port
	// for this long means it is gone.
	ReadTimeout = 2 * time.Second
)

var (
	// ErrNoData is returned when the receiver stops sending samples.
	ErrNoData = errors.New("no data from receiver")

	// ErrNoPort is returned when a client is requested without a port.
	ErrNoPort = errors.New("no serial port details")
)

// Client wraps a serial port connection to a receiver
type Client struct {
	port         serial.Port
	name         string
	product      string
	serialNumber string
	baud         int
	samples      *carrier.Reader
}

func init() {
	receiver.Register(VendorID, ProductID, NewClient)
}

// NewClient opens the receiver at the given serial port.
func NewClient(portDetails *enumerator.PortDetails) (receiver.Receiver, error) {
	if portDetails == nil {
		return nil, ErrNoPort
	}
	c, err := Open(portDetails.Name, config.Serial.Baud)
	if err != nil {
		return nil, err
	}
	c.product = portDetails.Product
	c.serialNumber = portDetails.SerialNumber
	return c, nil
}

// Open opens a receiver by serial port name.
func Open(name string, baud int) (*Client, error) {
	if baud <= 0 {
		baud = 115200
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}

	// CDC devices hold their output until the host raises DTR.
	if err := port.SetDTR(true); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set DTR on %s: %w", name, err)
	}

	// Drop whatever was queued before we connected.
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to reset input buffer on %s: %w", name, err)
	}

	return &Client{
		port:    port,
		name:    name,
		baud:    baud,
		samples: carrier.NewReader(timeoutReader{port}),
	}, nil
}

// ReadSample returns the next sample from the receiver.
func (c *Client) ReadSample() (bool, error) {
	b, err := c.samples.ReadSample()
	if err != nil {
		return false, fmt.Errorf("%s: %w", c.name, err)
	}
	return b, nil
}

// PrintStatus prints receiver information to stdout
func (c *Client) PrintStatus() {
	fmt.Printf("Serial receiver: %s at %d baud\n", c.name, c.baud)
	if c.product != "" {
		fmt.Printf("Product: %s\n", c.product)
	}
	if c.serialNumber != "" {
		fmt.Printf("Serial Number: %s\n", c.serialNumber)
	}
}

// Close closes the serial port.
func (c *Client) Close() error {
	return c.port.Close()
}

// timeoutReader turns the empty read of an expired port timeout into ErrNoData.
type timeoutReader struct {
	r io.Reader
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n == 0 && err == nil {
		return 0, ErrNoData
	}
	return n, err
}
