package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/sergev/wwvb/clock"
	"github.com/sergev/wwvb/decoder"
	"github.com/sergev/wwvb/wwvb"
)

// value returns the value of the metric with the given name and label
// value, or -1 if absent.
func value(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() returned error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && !hasLabel(m, label) {
				continue
			}
			switch {
			case m.Counter != nil:
				return m.GetCounter().GetValue()
			case m.Gauge != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	return -1
}

func hasLabel(m *dto.Metric, v string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetValue() == v {
			return true
		}
	}
	return false
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	tm := wwvb.Time{Year: 21, YDay: 73, Hour: 8, Minute: 31, DUT1: -3}
	events := []clock.Event{
		{Sample: 49, Symbol: wwvb.Zero, Health: decoder.MaxHealth / 2},
		{Sample: 99, Symbol: wwvb.Mark, Health: decoder.MaxHealth / 2, FrameErr: wwvb.ErrNotFrame},
		{Sample: 149, Symbol: wwvb.Mark, Health: decoder.MaxHealth, Decoded: true, Synced: true, Frame: tm},
		{Sample: 199, Symbol: wwvb.Mark, Health: decoder.MaxHealth, Decoded: true, Synced: true, Frame: tm, Mismatch: true},
	}
	for _, ev := range events {
		m.Observe(ev)
	}

	tests := []struct {
		name, label string
		expected    float64
	}{
		{"wwvb_samples_total", "", 200},
		{"wwvb_symbols_total", "M", 3},
		{"wwvb_symbols_total", "0", 1},
		{"wwvb_frames_total", "decoded", 2},
		{"wwvb_frames_total", "rejected", 1},
		{"wwvb_mismatches_total", "", 1},
		{"wwvb_health_ratio", "", 1},
		{"wwvb_synced", "", 1},
		{"wwvb_last_decoded_timestamp_seconds", "", float64(tm.ToUTC().Unix())},
		{"wwvb_dut1_seconds", "", -0.3},
	}
	for _, tt := range tests {
		got := value(t, reg, tt.name, tt.label)
		if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s{%s} = %v, expected %v", tt.name, tt.label, got, tt.expected)
		}
	}
}

func TestObserveUnsynced(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Observe(clock.Event{Sample: 10, Symbol: wwvb.Invalid, FrameErr: errors.New("x")})

	if got := value(t, reg, "wwvb_synced", ""); got != 0 {
		t.Errorf("wwvb_synced = %v, expected 0", got)
	}
	if got := value(t, reg, "wwvb_samples_total", ""); got != 11 {
		t.Errorf("wwvb_samples_total = %v, expected 11", got)
	}
	if got := value(t, reg, "wwvb_symbols_total", "?"); got != 1 {
		t.Errorf("wwvb_symbols_total{?} = %v, expected 1", got)
	}
}
