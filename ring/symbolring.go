package ring

import "fmt"

// SymbolRing is a circular buffer of N values, each Width bits wide.
// Values are stored most significant bit first in an underlying BitRing.
type SymbolRing struct {
	bits  *BitRing
	width int
}

// NewSymbolRing creates a ring of n symbols of the given bit width.
func NewSymbolRing(n, width int) *SymbolRing {
	if width <= 0 || width > 31 {
		panic(fmt.Sprintf("ring: invalid symbol width %d", width))
	}
	return &SymbolRing{
		bits:  NewBitRing(n * width),
		width: width,
	}
}

// Len returns the capacity in symbols.
func (r *SymbolRing) Len() int {
	return r.bits.Len() / r.width
}

// Width returns the number of bits per symbol.
func (r *SymbolRing) Width() int {
	return r.width
}

// At returns the symbol at logical index i (0 = oldest).
func (r *SymbolRing) At(i int) int {
	if i < 0 || i >= r.Len() {
		panic(fmt.Sprintf("ring: symbol index %d out of range [0, %d)", i, r.Len()))
	}
	result := 0
	for j := 0; j < r.width; j++ {
		result <<= 1
		if r.bits.At(i*r.width + j) {
			result |= 1
		}
	}
	return result
}

// Put appends v as the newest symbol and returns the evicted one.
// Only the low Width bits of v are kept.
func (r *SymbolRing) Put(v int) int {
	result := 0
	top := 1 << (r.width - 1)
	for j := 0; j < r.width; j++ {
		result <<= 1
		if r.bits.Put(v&top != 0) {
			result |= 1
		}
		v <<= 1
	}
	return result
}

// CopyFrom makes r an exact copy of src.
func (r *SymbolRing) CopyFrom(src *SymbolRing) {
	if r.width != src.width {
		panic(fmt.Sprintf("ring: width mismatch %d != %d", r.width, src.width))
	}
	r.bits.CopyFrom(src.bits)
}
