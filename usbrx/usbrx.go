// Package usbrx reads carrier samples from a receiver with a vendor-specific
// bulk IN endpoint. Samples arrive packed eight to a byte, oldest in the
// most significant bit.
package usbrx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sergev/wwvb/config"
	"github.com/sergev/wwvb/receiver"

	"github.com/google/gousb"
	"go.bug.st/serial/enumerator"
)

const (
	ReadTimeout    = 2 * time.Second
	ReadBufferSize = 64
)

// ErrNotConfigured is returned when no USB receiver is set up in the config file.
var ErrNotConfigured = errors.New("USB receiver not configured")

// Client wraps a USB connection to a receiver
type Client struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	done   func()
	bulkIn *gousb.InEndpoint

	manufacturer string
	product      string
	serialNumber string

	samples   *PackedReader
	closeOnce sync.Once
	closeErr  error
}

func init() {
	receiver.RegisterUSB(NewClient)
}

// NewClient opens the USB receiver described in the config file.
// The portDetails parameter is ignored.
func NewClient(portDetails *enumerator.PortDetails) (receiver.Receiver, error) {
	if !config.USB.Enabled() {
		return nil, ErrNotConfigured
	}
	c, err := Open(config.USB)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Open opens a receiver by VID/PID and claims its bulk endpoint.
func Open(conf config.USBConfig) (*Client, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == conf.VendorID && uint16(desc.Product) == conf.ProductID
	})
	if err != nil {
		for _, d := range devs {
			d.Close()
		}
		ctx.Close()
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("USB receiver not found (VID=0x%04X PID=0x%04X)", conf.VendorID, conf.ProductID)
	}

	// Use the first matching device
	dev := devs[0]
	for i := 1; i < len(devs); i++ {
		devs[i].Close()
	}
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to enable kernel driver auto-detach: %w", err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to get config 1: %w", err)
	}

	intf, err := cfg.Interface(conf.Interface, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to claim interface %d: %w", conf.Interface, err)
	}

	done := func() {
		intf.Close()
		cfg.Close()
	}

	bulkIn, err := intf.InEndpoint(conf.Endpoint & 0x0f)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk in endpoint 0x%02x: %w", conf.Endpoint, err)
	}

	c := &Client{
		ctx:    ctx,
		dev:    dev,
		done:   done,
		bulkIn: bulkIn,
	}
	c.manufacturer, _ = dev.Manufacturer()
	c.product, _ = dev.Product()
	c.serialNumber, _ = dev.SerialNumber()
	c.samples = NewPackedReader(endpointReader{bulkIn}, ReadBufferSize)
	return c, nil
}

// ReadSample returns the next sample from the receiver.
func (c *Client) ReadSample() (bool, error) {
	return c.samples.ReadSample()
}

// PrintStatus prints receiver information to stdout
func (c *Client) PrintStatus() {
	fmt.Printf("USB receiver: %s\n", c.dev.Desc.String())
	if c.manufacturer != "" {
		fmt.Printf("Manufacturer: %s\n", c.manufacturer)
	}
	if c.product != "" {
		fmt.Printf("Product: %s\n", c.product)
	}
	if c.serialNumber != "" {
		fmt.Printf("Serial Number: %s\n", c.serialNumber)
	}
	fmt.Printf("Endpoint: %s\n", c.bulkIn.Desc.String())
}

// Close releases the interface and the device. It is safe to call twice.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.done()
		c.closeErr = c.dev.Close()
		if err := c.ctx.Close(); c.closeErr == nil {
			c.closeErr = err
		}
	})
	return c.closeErr
}

// endpointReader reads a bulk endpoint with a timeout on every transfer.
type endpointReader struct {
	ep *gousb.InEndpoint
}

func (e endpointReader) Read(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ReadTimeout)
	defer cancel()
	n, err := e.ep.ReadContext(ctx, p)
	if err != nil {
		return n, fmt.Errorf("bulk read: %w", err)
	}
	return n, nil
}

// PackedReader unpacks samples stored one per bit, most significant bit first.
type PackedReader struct {
	r   io.Reader
	buf []byte
	n   int // valid bytes in buf
	pos int // next bit
}

// NewPackedReader returns a reader taking packed bytes from r,
// up to size bytes per transfer.
func NewPackedReader(r io.Reader, size int) *PackedReader {
	if size <= 0 {
		size = ReadBufferSize
	}
	return &PackedReader{r: r, buf: make([]byte, size)}
}

// ReadSample returns the next sample, refilling the buffer when empty.
func (p *PackedReader) ReadSample() (bool, error) {
	for p.pos >= 8*p.n {
		n, err := p.r.Read(p.buf)
		p.n, p.pos = n, 0
		if n > 0 {
			break
		}
		if err != nil {
			return false, err
		}
	}
	b := p.buf[p.pos/8]&(0x80>>(p.pos%8)) != 0
	p.pos++
	return b, nil
}
