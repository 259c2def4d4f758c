package receiver

import (
	"errors"
	"testing"

	"go.bug.st/serial/enumerator"
)

type fakeReceiver struct{ name string }

func (r *fakeReceiver) ReadSample() (bool, error) { return false, nil }
func (r *fakeReceiver) PrintStatus()              {}
func (r *fakeReceiver) Close() error              { return nil }

// withRegistry runs f with a clean registry and restores the saved one afterwards.
func withRegistry(t *testing.T, f func()) {
	t.Helper()
	saved := registered
	registered = nil
	defer func() { registered = saved }()
	f()
}

func TestMatch(t *testing.T) {
	withRegistry(t, func() {
		Register(0x2e8a, 0x000a, func(p *enumerator.PortDetails) (Receiver, error) {
			return &fakeReceiver{name: p.Name}, nil
		})
		RegisterUSB(func(*enumerator.PortDetails) (Receiver, error) {
			return nil, errors.New("not present")
		})

		tests := []struct {
			port     *enumerator.PortDetails
			expected int
		}{
			{&enumerator.PortDetails{Name: "ttyACM0", IsUSB: true, VID: "2E8A", PID: "000A"}, 1},
			{&enumerator.PortDetails{Name: "ttyACM1", IsUSB: true, VID: "2e8a", PID: "000a"}, 1},
			{&enumerator.PortDetails{Name: "ttyACM2", IsUSB: true, VID: "2e8a", PID: "0003"}, 0},
			{&enumerator.PortDetails{Name: "ttyS0", IsUSB: false}, 0},
			{&enumerator.PortDetails{Name: "ttyUSB0", IsUSB: true, VID: "zz", PID: "000a"}, 0},
			{nil, 0},
		}
		for _, tt := range tests {
			if got := len(Match(tt.port)); got != tt.expected {
				t.Errorf("Match(%v) returned %d factories, expected %d", tt.port, got, tt.expected)
			}
		}
	})
}

func TestFindPrefersSerial(t *testing.T) {
	withRegistry(t, func() {
		Register(0x2e8a, 0x000a, func(p *enumerator.PortDetails) (Receiver, error) {
			if p.Name == "ttyACM0" {
				return nil, errors.New("busy")
			}
			return &fakeReceiver{name: p.Name}, nil
		})
		RegisterUSB(func(*enumerator.PortDetails) (Receiver, error) {
			return &fakeReceiver{name: "usb"}, nil
		})

		ports := []*enumerator.PortDetails{
			{Name: "ttyACM0", IsUSB: true, VID: "2e8a", PID: "000a"},
			{Name: "ttyACM1", IsUSB: true, VID: "2e8a", PID: "000a"},
		}
		rx, err := find(ports)
		if err != nil {
			t.Fatalf("find() returned error: %v", err)
		}
		if got := rx.(*fakeReceiver).name; got != "ttyACM1" {
			t.Errorf("found receiver %q, expected %q", got, "ttyACM1")
		}

		rx, err = find(nil)
		if err != nil {
			t.Fatalf("find() returned error: %v", err)
		}
		if got := rx.(*fakeReceiver).name; got != "usb" {
			t.Errorf("found receiver %q, expected %q", got, "usb")
		}
	})
}

func TestFindNothing(t *testing.T) {
	withRegistry(t, func() {
		RegisterUSB(func(*enumerator.PortDetails) (Receiver, error) {
			return nil, errors.New("not present")
		})
		if _, err := find(nil); err == nil {
			t.Errorf("find() succeeded without any receiver")
		}
	})
}

// A serial factory must never be called without port details.
func TestRegisterZeroID(t *testing.T) {
	withRegistry(t, func() {
		called := false
		Register(0, 0, func(p *enumerator.PortDetails) (Receiver, error) {
			called = true
			return &fakeReceiver{name: p.Name}, nil
		})
		if len(registered) != 0 {
			t.Errorf("registry has %d entries, expected none", len(registered))
		}
		if _, err := find(nil); err == nil {
			t.Errorf("find() succeeded without any receiver")
		}
		if called {
			t.Errorf("serial factory called as a USB-only receiver")
		}
	})
}
