// Package receiver finds and opens WWVB receiver hardware.
package receiver

import (
	"fmt"
	"strconv"

	"github.com/sergev/wwvb/carrier"
	"go.bug.st/serial/enumerator"
)

// Receiver is a source of carrier samples attached to this computer.
type Receiver interface {
	carrier.Source

	// PrintStatus prints receiver information to stdout
	PrintStatus()

	// Close releases the device
	Close() error
}

// Factory creates a receiver from port details.
// USB-only receivers get nil details.
type Factory func(portDetails *enumerator.PortDetails) (Receiver, error)

// Info describes a registered receiver type.
type Info struct {
	VendorID  uint16
	ProductID uint16
	Factory   Factory
}

var registered []Info

// Register registers a serial receiver factory with its VID/PID.
// The pair 0/0 is reserved for USB-only receivers and is ignored.
func Register(vendorID, productID uint16, factory Factory) {
	if vendorID == 0 && productID == 0 {
		return
	}
	registered = append(registered, Info{
		VendorID:  vendorID,
		ProductID: productID,
		Factory:   factory,
	})
}

// RegisterUSB registers a receiver that doesn't use serial ports.
func RegisterUSB(factory Factory) {
	registered = append(registered, Info{
		VendorID:  0, // Special marker for USB-only receivers
		ProductID: 0,
		Factory:   factory,
	})
}

func (info Info) isUSB() bool {
	return info.VendorID == 0 && info.ProductID == 0
}

// parseID parses a hexadecimal USB vendor or product ID as reported
// by the serial port enumerator.
func parseID(s string) (uint16, bool) {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

// Match returns the factories registered for the given serial port.
func Match(port *enumerator.PortDetails) []Factory {
	if port == nil || !port.IsUSB {
		return nil
	}
	vid, ok := parseID(port.VID)
	if !ok {
		return nil
	}
	pid, ok := parseID(port.PID)
	if !ok {
		return nil
	}
	var result []Factory
	for _, info := range registered {
		if !info.isUSB() && info.VendorID == vid && info.ProductID == pid {
			result = append(result, info.Factory)
		}
	}
	return result
}

// Find attempts to find and open a registered receiver.
// Serial receivers are tried first, then USB-only ones.
func Find() (Receiver, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return find(ports)
}

func find(ports []*enumerator.PortDetails) (Receiver, error) {
	for _, port := range ports {
		for _, factory := range Match(port) {
			rx, err := factory(port)
			if err != nil {
				continue // Try next port
			}
			return rx, nil
		}
	}

	for _, info := range registered {
		if info.isUSB() {
			rx, err := info.Factory(nil)
			if err == nil && rx != nil {
				return rx, nil
			}
		}
	}

	return nil, fmt.Errorf("no supported WWVB receiver found")
}
