package ring

import (
	"math/rand"
	"sync"
	"testing"
)

// Verify put/evict order and logical indexing of a 6-bit ring.
func TestBitRing(t *testing.T) {
	r := NewBitRing(6)
	for i := 0; i < 6; i++ {
		r.Put(false)
	}

	// The next puts need to read out six zeros
	for i := 0; i < 6; i++ {
		if got := r.Put(true); got {
			t.Errorf("Put #%d evicted %v, expected false", i, got)
		}
	}

	// The next puts need to read out six ones
	for i := 0; i < 6; i++ {
		if got := r.Put(true); !got {
			t.Errorf("Put #%d evicted %v, expected true", i, got)
		}
	}

	r.Put(false)
	// content now 111110
	expected := []bool{true, true, true, true, true, false}
	for i, want := range expected {
		if got := r.At(i); got != want {
			t.Errorf("At(%d) = %v, expected %v", i, got, want)
		}
	}
}

// A ring larger than one word must wrap across word boundaries.
func TestBitRingRoundTrip(t *testing.T) {
	const n = 77
	rng := rand.New(rand.NewSource(42))
	r := NewBitRing(n)

	history := make([]bool, 0, 5*n)
	for k := 0; k < 5*n; k++ {
		b := rng.Intn(2) == 1
		evicted := r.Put(b)

		var want bool
		if len(history) >= n {
			want = history[len(history)-n]
		}
		if evicted != want {
			t.Fatalf("Put #%d evicted %v, expected %v", k, evicted, want)
		}
		history = append(history, b)
	}

	tail := history[len(history)-n:]
	for i := 0; i < n; i++ {
		if got := r.At(i); got != tail[i] {
			t.Errorf("At(%d) = %v, expected %v", i, got, tail[i])
		}
	}
}

func TestBitRingAtOutOfRange(t *testing.T) {
	r := NewBitRing(8)
	for _, i := range []int{-1, 8, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("At(%d) did not panic", i)
				}
			}()
			r.At(i)
		}()
	}
}

// Verify a ring of six 4-bit symbols.
func TestSymbolRing(t *testing.T) {
	r := NewSymbolRing(6, 4)
	for i := 0; i < 6; i++ {
		r.Put(0)
	}

	// The next puts need to read out six zeros
	for i := 0; i < 6; i++ {
		if got := r.Put(i); got != 0 {
			t.Errorf("Put(%d) evicted %d, expected 0", i, got)
		}
	}

	// The next puts need to read out the values above
	for i := 0; i < 6; i++ {
		if got := r.Put(1); got != i {
			t.Errorf("Put #%d evicted %d, expected %d", i, got, i)
		}
	}

	for i := 0; i < 6; i++ {
		r.Put(i)
	}
	// content now 012345
	for i := 0; i < 6; i++ {
		if got := r.At(i); got != i {
			t.Errorf("At(%d) = %d, expected %d", i, got, i)
		}
	}
}

func TestSymbolRingTwoBit(t *testing.T) {
	const n = 60
	rng := rand.New(rand.NewSource(7))
	r := NewSymbolRing(n, 2)

	written := make([]int, 0, 3*n)
	for k := 0; k < 3*n; k++ {
		v := rng.Intn(4)
		r.Put(v)
		written = append(written, v)
	}

	tail := written[len(written)-n:]
	for i := 0; i < n; i++ {
		if got := r.At(i); got != tail[i] {
			t.Errorf("At(%d) = %d, expected %d", i, got, tail[i])
		}
	}
	if r.Len() != n {
		t.Errorf("Len() = %d, expected %d", r.Len(), n)
	}
}

func TestSymbolRingCopyFrom(t *testing.T) {
	src := NewSymbolRing(10, 2)
	for i := 0; i < 13; i++ {
		src.Put(i % 4)
	}
	dst := NewSymbolRing(10, 2)
	dst.CopyFrom(src)
	for i := 0; i < 10; i++ {
		if dst.At(i) != src.At(i) {
			t.Errorf("At(%d) = %d after copy, expected %d", i, dst.At(i), src.At(i))
		}
	}

	// The copy must be independent of the source
	src.Put(3)
	if got := dst.At(9); got != 12%4 {
		t.Errorf("copy At(9) = %d after writing to source, expected %d", got, 12%4)
	}
	if got := src.At(9); got != 3 {
		t.Errorf("source At(9) = %d, expected 3", got)
	}
}

// A reader may copy the ring while another goroutine writes to it.
func TestBitRingConcurrentCopy(t *testing.T) {
	src := NewBitRing(100)
	dst := NewBitRing(100)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20000; i++ {
			src.Put(true)
		}
	}()
	for i := 0; i < 200; i++ {
		dst.CopyFrom(src)
		dst.At(i % 100)
	}
	wg.Wait()

	dst.CopyFrom(src)
	for i := 0; i < dst.Len(); i++ {
		if !dst.At(i) {
			t.Errorf("At(%d) = false after the writer finished, expected true", i)
		}
	}
}
