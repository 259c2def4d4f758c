// Package clock turns a stream of carrier samples into running time.
//
// A Clock feeds samples to a decoder, tries to decode a minute after
// every mark and keeps the last decoded time ticking forward one second
// per declared second boundary in between.
package clock

import (
	"context"
	"errors"
	"io"

	"github.com/sergev/wwvb/carrier"
	"github.com/sergev/wwvb/decoder"
	"github.com/sergev/wwvb/wwvb"
)

// Event describes one declared second.
type Event struct {
	Sample uint64      // index of the sample that ended the second
	Symbol wwvb.Symbol // symbol of the second that just ended
	Health int         // rolling health score, out of decoder.MaxHealth

	// Time is the current broadcast time, valid once Synced.
	Time   wwvb.Time
	Synced bool

	// Decoded is set when a minute frame was decoded at this second,
	// Frame is then the minute the frame describes.
	// FrameErr holds the reason a mark did not complete a frame.
	// Mismatch is set when the decoded time differs from the running one.
	Decoded  bool
	Frame    wwvb.Time
	FrameErr error
	Mismatch bool
}

// Stats counts what the clock has seen so far.
type Stats struct {
	Samples    uint64
	Seconds    uint64
	Marks      uint64
	Minutes    uint64 // frames decoded
	Mismatches uint64 // decoded frames disagreeing with the running time
}

// Handler receives every event. It runs on the sampling goroutine and
// must not block.
type Handler func(Event)

// Clock is the caller side of a decoder.
type Clock struct {
	dec     *decoder.Decoder
	handler Handler

	now    wwvb.Time
	synced bool
	stats  Stats
}

// New creates a clock with a fresh decoder. handler may be nil.
func New(handler Handler) *Clock {
	return &Clock{
		dec:     decoder.New(),
		handler: handler,
	}
}

// Decoder returns the underlying decoder, for snapshots.
func (c *Clock) Decoder() *decoder.Decoder {
	return c.dec
}

// Now returns the current time and whether a minute has been decoded yet.
func (c *Clock) Now() (wwvb.Time, bool) {
	return c.now, c.synced
}

// Stats returns the counters accumulated so far.
func (c *Clock) Stats() Stats {
	return c.stats
}

// Feed processes one sample. It returns the event and true when the
// sample completed a second.
func (c *Clock) Feed(sample bool) (Event, bool) {
	c.stats.Samples++
	if !c.dec.Update(sample) {
		return Event{}, false
	}
	c.stats.Seconds++

	ev := Event{
		Sample: c.dec.SampleCount() - 1,
		Symbol: c.dec.LastSymbol(),
	}
	ev.Health, _ = c.dec.Health()

	if c.synced {
		c.now.AdvanceSeconds(1)
	}

	if ev.Symbol == wwvb.Mark {
		c.stats.Marks++
		t, err := c.dec.DecodeMinute()
		if err == nil {
			ev.Frame = t
			// The frame's last mark just ended: we are at the start of
			// the next minute, or in the leap second of this one.
			t.AdvanceSeconds(wwvb.FrameLength)
			if c.synced && t != c.now {
				c.stats.Mismatches++
				ev.Mismatch = true
			}
			c.now = t
			c.synced = true
			c.stats.Minutes++
			ev.Decoded = true
		} else {
			ev.FrameErr = err
		}
	}

	ev.Time = c.now
	ev.Synced = c.synced
	if c.handler != nil {
		c.handler(ev)
	}
	return ev, true
}

// Run feeds samples from src until it is exhausted or ctx is cancelled.
// The end of the stream is not an error.
func (c *Clock) Run(ctx context.Context, src carrier.Source) error {
	for i := 0; ; i++ {
		if i%decoder.Subsec == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		b, err := src.ReadSample()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		c.Feed(b)
	}
}
