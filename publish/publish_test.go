package publish

import (
	"encoding/json"
	"testing"

	"github.com/sergev/wwvb/clock"
	"github.com/sergev/wwvb/decoder"
	"github.com/sergev/wwvb/wwvb"
)

func TestNewPayload(t *testing.T) {
	ev := clock.Event{
		Health:  decoder.MaxHealth * 97 / 100,
		Decoded: true,
		Synced:  true,
		Frame: wwvb.Time{
			Year: 21, YDay: 73, Hour: 8, Minute: 30,
			DST: wwvb.DSTBegins, DUT1: -1,
		},
	}
	p := NewPayload(ev, 6, true)

	if p.UTC != "2021-03-14T08:30:00Z" {
		t.Errorf("UTC = %q, expected %q", p.UTC, "2021-03-14T08:30:00Z")
	}
	if p.Local != "2021-03-14T03:30:00-05:00" {
		t.Errorf("Local = %q, expected %q", p.Local, "2021-03-14T03:30:00-05:00")
	}
	if p.Zone != "CDT" {
		t.Errorf("Zone = %q, expected %q", p.Zone, "CDT")
	}
	if p.Year != 2021 || p.YDay != 73 || p.Hour != 8 || p.Minute != 30 {
		t.Errorf("got %d-%03d %02d:%02d, expected 2021-073 08:30", p.Year, p.YDay, p.Hour, p.Minute)
	}
	if p.DUT1 != -0.1 {
		t.Errorf("DUT1 = %v, expected -0.1", p.DUT1)
	}
	if p.Health != 97 {
		t.Errorf("Health = %v, expected 97", p.Health)
	}
	if p.Timestamp != 1615710600 {
		t.Errorf("Timestamp = %d, expected 1615710600", p.Timestamp)
	}
}

func TestPayloadJSON(t *testing.T) {
	ev := clock.Event{
		Health: decoder.MaxHealth,
		Frame:  wwvb.Time{Year: 16, YDay: 366, Hour: 23, Minute: 59, LY: true, LS: true, DUT1: -4},
	}
	data, err := json.Marshal(NewPayload(ev, 0, false))
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() returned error: %v", err)
	}
	if fields["leap_second"] != true || fields["leap_year"] != true {
		t.Errorf("leap flags missing in %s", data)
	}
	if _, ok := fields["mismatch"]; ok {
		t.Errorf("mismatch present without a mismatch in %s", data)
	}
	if fields["utc"] != "2016-12-31T23:59:00Z" {
		t.Errorf("utc = %v, expected 2016-12-31T23:59:00Z", fields["utc"])
	}
}
