// Package decoder recovers WWVB symbols from a stream of carrier samples.
//
// The receiver delivers one sample per tick, Subsec ticks per second,
// true while the carrier is reduced. The decoder keeps per-phase statistics
// of the last History seconds, locates the start of second as the phase
// with the sharpest rising edge, and classifies every second into a symbol.
package decoder

import (
	"sync/atomic"

	"github.com/sergev/wwvb/ring"
	"github.com/sergev/wwvb/wwvb"
)

const (
	// Subsec is the number of samples per second.
	Subsec = 50

	// History is how many whole seconds of samples are kept for statistics.
	// 5 seconds is too little, 60 is plenty.
	History = 40

	// BufferSize is the number of raw samples retained.
	BufferSize = Subsec * History

	// SymbolCapacity is the number of decoded symbols retained.
	SymbolCapacity = wwvb.FrameLength

	// SymbolsPerMinute is the window of the health score.
	SymbolsPerMinute = 60

	// MaxHealth is the best possible health score.
	MaxHealth = SymbolsPerMinute * Subsec

	// DefaultHealthPercent is the recommended reliability cutoff.
	DefaultHealthPercent = 97
)

// Decoder holds the complete state of one receiver.
// Update must be called from a single goroutine; Snapshot may be called
// concurrently from one other goroutine. Everything Snapshot reads is
// accessed atomically.
type Decoder struct {
	// seq is twice the number of samples processed, odd while Update runs.
	seq atomic.Uint64

	// Raw samples from the receiver
	signal *ring.BitRing

	// Number of retained seconds with a reduced-carrier sample at each
	// phase, and the difference to the following phase
	counts [Subsec]atomic.Int32
	edges  [Subsec]atomic.Int32

	// subsec is the phase of the next sample, sos the start-of-second
	// phase, tss the ticks since the last second boundary.
	subsec, sos, tss atomic.Int32

	// Decoded symbols, oldest first
	symbols *ring.SymbolRing

	health Health
}

// New creates a decoder with empty history.
func New() *Decoder {
	return &Decoder{
		signal:  ring.NewBitRing(BufferSize),
		symbols: ring.NewSymbolRing(SymbolCapacity, wwvb.SymbolBits),
	}
}

// Update receives the next sample and returns true if it completes a
// second. In that case the second has been decoded and its symbol is
// available from LastSymbol.
func (d *Decoder) Update(b bool) bool {
	d.seq.Add(1)
	subsec := int(d.subsec.Load())
	tss := int(d.tss.Load())

	// Put the new bit & extract the old bit
	ob := d.signal.Put(b)

	// Update the counts array
	if b && !ob {
		d.counts[subsec].Add(1)
	} else if !b && ob {
		d.counts[subsec].Add(-1)
	}

	// Update the edges array
	subsec1 := subsec + 1
	if subsec1 == Subsec {
		subsec1 = 0
	}
	d.edges[subsec].Store(d.counts[subsec1].Load() - d.counts[subsec].Load())

	// Check for sharpest edge
	bi, best := 0, int32(0)
	for i := range d.edges {
		if e := d.edges[i].Load(); e > best {
			bi, best = i, e
		}
	}
	osos := int(d.sos.Load())
	sos := bi + 1
	if sos == Subsec {
		sos = 0
	}
	d.sos.Store(int32(sos))

	subsec = subsec1
	d.subsec.Store(int32(subsec))

	result := false
	if tss > Subsec {
		// It's been too long since the last second, fake one.
		result = true
	} else if tss > Subsec/2 {
		// sos may be wandering, so don't repeat a second too soon
		result = subsec == sos || subsec == osos
	}

	if result {
		tss = 0
		sym, health := d.decodeSymbol()
		d.symbols.Put(int(sym))
		d.health.Record(health)
	} else {
		tss++
	}
	d.tss.Store(int32(tss))

	d.seq.Add(1)
	return result
}

// SampleCount returns the total number of samples processed.
func (d *Decoder) SampleCount() uint64 {
	return d.seq.Load() / 2
}

// SymbolCount returns the total number of symbols decoded.
func (d *Decoder) SymbolCount() uint64 {
	return d.health.Count()
}

// Symbol returns the retained symbol at index i, 0 being the oldest.
func (d *Decoder) Symbol(i int) wwvb.Symbol {
	return wwvb.Symbol(d.symbols.At(i))
}

// LastSymbol returns the most recently decoded symbol.
func (d *Decoder) LastSymbol() wwvb.Symbol {
	return d.Symbol(SymbolCapacity - 1)
}

// StartOfSecond returns the estimated phase of the second boundary.
func (d *Decoder) StartOfSecond() int {
	return int(d.sos.Load())
}

// Health returns the rolling health score and its maximum.
func (d *Decoder) Health() (int, int) {
	return d.health.Total(), MaxHealth
}

// Healthy reports whether the health score reaches percent of the maximum.
func (d *Decoder) Healthy(percent int) bool {
	return d.health.Total()*100 >= percent*MaxHealth
}

// DecodeMinute decodes the last 60 symbols as a minute frame.
// It is meaningful right after a Mark was decoded; the returned time is
// the start of that minute, Second being zero.
func (d *Decoder) DecodeMinute() (wwvb.Time, error) {
	return wwvb.DecodeFrame(func(i int) wwvb.Symbol {
		return d.Symbol(SymbolCapacity - wwvb.FrameLength + i)
	})
}
