package clock

import (
	"context"
	"errors"
	"testing"

	"github.com/sergev/wwvb/carrier"
	"github.com/sergev/wwvb/wwvb"
)

func minutesSource(t *testing.T, start wwvb.Time, n int, opts carrier.Options) *carrier.Slice {
	t.Helper()
	symbols, err := carrier.Minutes(start, n)
	if err != nil {
		t.Fatalf("Minutes() returned error: %v", err)
	}
	return carrier.NewSlice(carrier.Generate(symbols, opts))
}

func TestClockTracksTime(t *testing.T) {
	start := wwvb.Time{Year: 21, YDay: 73, Hour: 8, Minute: 30, DST: wwvb.DSTBegins, DUT1: -1}

	var events []Event
	c := New(func(ev Event) { events = append(events, ev) })
	if err := c.Run(context.Background(), minutesSource(t, start, 3, carrier.Options{})); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	now, synced := c.Now()
	if !synced {
		t.Fatalf("clock never synchronized")
	}
	expected := start
	expected.AdvanceMinutes(3)
	if now != expected {
		t.Errorf("Now() = %v, expected %v", now, expected)
	}

	stats := c.Stats()
	if stats.Minutes < 2 {
		t.Errorf("decoded %d minutes, expected at least 2", stats.Minutes)
	}
	if stats.Mismatches != 0 {
		t.Errorf("%d decoded minutes disagreed with the running time", stats.Mismatches)
	}
	if stats.Samples != 3*60*50 {
		t.Errorf("Samples = %d, expected %d", stats.Samples, 3*60*50)
	}
	if stats.Seconds != uint64(len(events)) {
		t.Errorf("Seconds = %d, but %d events delivered", stats.Seconds, len(events))
	}

	for i, ev := range events {
		if !ev.Decoded {
			continue
		}
		next := ev.Frame
		next.AdvanceMinutes(1)
		if ev.Time != next {
			t.Errorf("event %d: frame %v decoded at %v, expected %v", i, ev.Frame, ev.Time, next)
		}
	}

	// Between decodes the time advances exactly one second per event
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if !prev.Synced || cur.Decoded {
			continue
		}
		want := prev.Time
		want.AdvanceSeconds(1)
		if cur.Time != want {
			t.Errorf("event %d: time %v, expected %v", i, cur.Time, want)
		}
	}
}

func TestClockLeapSecond(t *testing.T) {
	start := wwvb.Time{Year: 16, YDay: 366, Hour: 23, Minute: 57, LY: true, LS: true, DUT1: -4}

	var last Event
	var sawLeap bool
	c := New(func(ev Event) {
		if ev.Synced && ev.Time.Second == 60 {
			sawLeap = true
		}
		last = ev
	})
	if err := c.Run(context.Background(), minutesSource(t, start, 4, carrier.Options{})); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if !sawLeap {
		t.Errorf("second 60 never reported")
	}
	expected := wwvb.Time{Year: 17, YDay: 1, Minute: 1, DUT1: 6}
	if last.Time != expected {
		t.Errorf("final time %v, expected %v", last.Time, expected)
	}
	if c.Stats().Mismatches != 0 {
		t.Errorf("%d decoded minutes disagreed with the running time", c.Stats().Mismatches)
	}
}

func TestClockFrameErrors(t *testing.T) {
	start := wwvb.Time{Year: 22, YDay: 100, Hour: 10, Minute: 0}

	var marks, failed int
	c := New(func(ev Event) {
		if ev.Symbol == wwvb.Mark {
			marks++
			if ev.FrameErr != nil {
				failed++
			}
		}
	})
	if err := c.Run(context.Background(), minutesSource(t, start, 2, carrier.Options{})); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if uint64(marks) != c.Stats().Marks {
		t.Errorf("saw %d marks, Stats().Marks = %d", marks, c.Stats().Marks)
	}
	if uint64(marks-failed) != c.Stats().Minutes {
		t.Errorf("%d marks without error, expected %d decoded minutes", marks-failed, c.Stats().Minutes)
	}
}

func TestClockRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(nil)
	src := carrier.NewSlice(make([]bool, 1000))
	if err := c.Run(ctx, src); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() returned %v, expected %v", err, context.Canceled)
	}
	if c.Stats().Samples != 0 {
		t.Errorf("processed %d samples after cancellation", c.Stats().Samples)
	}
}

type failingSource struct{ n int }

var errReceiver = errors.New("receiver unplugged")

func (s *failingSource) ReadSample() (bool, error) {
	if s.n == 0 {
		return false, errReceiver
	}
	s.n--
	return false, nil
}

func TestClockRunSourceError(t *testing.T) {
	c := New(nil)
	if err := c.Run(context.Background(), &failingSource{n: 120}); !errors.Is(err, errReceiver) {
		t.Errorf("Run() returned %v, expected %v", err, errReceiver)
	}
	if c.Stats().Samples != 120 {
		t.Errorf("processed %d samples, expected 120", c.Stats().Samples)
	}
}
