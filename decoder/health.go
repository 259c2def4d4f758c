package decoder

import "sync/atomic"

// Health is the rolling sum of per-symbol health over the last minute.
// Record is called by the decoding goroutine; Total and Count may be
// read from another one.
type Health struct {
	values [SymbolsPerMinute]uint8
	total  atomic.Int64
	count  atomic.Uint64
}

// Record adds the health of a new symbol, replacing the one a minute older.
func (h *Health) Record(v int) {
	count := h.count.Load()
	slot := &h.values[count%SymbolsPerMinute]
	h.total.Add(int64(v - int(*slot)))
	*slot = uint8(v)
	h.count.Store(count + 1)
}

// Total returns the sum of the last SymbolsPerMinute values.
func (h *Health) Total() int {
	return int(h.total.Load())
}

// Count returns the number of values ever recorded.
func (h *Health) Count() uint64 {
	return h.count.Load()
}
