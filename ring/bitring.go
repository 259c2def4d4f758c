package ring

import (
	"fmt"
	"sync/atomic"
)

// BitRing is a circular buffer of N bits, packed 32 to a word.
// Logical index 0 is the oldest retained bit, N-1 the newest.
//
// One goroutine may Put while others call At or CopyFrom on it: words and
// the write position are accessed atomically. A reader that needs a
// consistent view of several bits must detect concurrent Puts itself.
type BitRing struct {
	data  []atomic.Uint32
	shift atomic.Int32 // physical slot of the next write
	n     int
}

// NewBitRing creates a ring holding exactly n bits, all initially zero.
func NewBitRing(n int) *BitRing {
	if n <= 0 {
		panic(fmt.Sprintf("ring: invalid bit capacity %d", n))
	}
	return &BitRing{
		data: make([]atomic.Uint32, (n+31)/32),
		n:    n,
	}
}

// Len returns the capacity in bits.
func (r *BitRing) Len() int {
	return r.n
}

// At returns the bit at logical index i.
func (r *BitRing) At(i int) bool {
	if i < 0 || i >= r.n {
		panic(fmt.Sprintf("ring: index %d out of range [0, %d)", i, r.n))
	}
	i += int(r.shift.Load())
	if i >= r.n {
		i -= r.n
	}
	return r.data[i/32].Load()&(1<<(i%32)) != 0
}

// Put stores b as the newest bit and returns the oldest bit it overwrote.
// Only one goroutine may call Put.
func (r *BitRing) Put(b bool) bool {
	shift := int(r.shift.Load())
	w := &r.data[shift/32]
	mask := uint32(1) << (shift % 32)

	word := w.Load()
	evicted := word&mask != 0
	if b {
		word |= mask
	} else {
		word &^= mask
	}
	w.Store(word)

	shift++
	if shift == r.n {
		shift = 0
	}
	r.shift.Store(int32(shift))
	return evicted
}

// CopyFrom makes r an exact copy of src. Both rings must have the same capacity.
// src may be written concurrently; r must not be.
func (r *BitRing) CopyFrom(src *BitRing) {
	if r.n != src.n {
		panic(fmt.Sprintf("ring: capacity mismatch %d != %d", r.n, src.n))
	}
	r.shift.Store(src.shift.Load())
	for i := range r.data {
		r.data[i].Store(src.data[i].Load())
	}
}
