package decoder

import (
	"runtime"

	"github.com/sergev/wwvb/ring"
	"github.com/sergev/wwvb/wwvb"
)

// Snapshot is a consistent copy of the decoder state used for reporting.
type Snapshot struct {
	Samples uint64
	Symbols uint64
	Health  int

	// Recent symbols, oldest first
	Recent [SymbolCapacity]wwvb.Symbol

	Counts [Subsec]int16
	Edges  [Subsec]int16

	Subsec, SOS, TSS int
}

// Snapshot copies the decoder state while Update may be running on
// another goroutine. The copy is retried until no sample arrived during it.
func (d *Decoder) Snapshot() Snapshot {
	var s Snapshot
	symbols := ring.NewSymbolRing(SymbolCapacity, wwvb.SymbolBits)
	for {
		seq := d.seq.Load()
		if seq&1 != 0 {
			runtime.Gosched()
			continue
		}

		symbols.CopyFrom(d.symbols)
		for i := range s.Counts {
			s.Counts[i] = int16(d.counts[i].Load())
			s.Edges[i] = int16(d.edges[i].Load())
		}
		s.Subsec = int(d.subsec.Load())
		s.SOS = int(d.sos.Load())
		s.TSS = int(d.tss.Load())
		s.Health = d.health.Total()
		s.Symbols = d.health.Count()

		if d.seq.Load() == seq {
			s.Samples = seq / 2
			break
		}
	}
	for i := range s.Recent {
		s.Recent[i] = wwvb.Symbol(symbols.At(i))
	}
	return s
}

// LastSymbol returns the newest symbol of the snapshot.
func (s *Snapshot) LastSymbol() wwvb.Symbol {
	return s.Recent[SymbolCapacity-1]
}

// SymbolString renders the recent symbols as text, oldest first.
func (s *Snapshot) SymbolString() string {
	b := make([]byte, 0, SymbolCapacity)
	for _, sym := range s.Recent {
		b = append(b, sym.String()[0])
	}
	return string(b)
}
