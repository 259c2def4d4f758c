package carrier

import (
	"fmt"
	"math/rand"

	"github.com/sergev/wwvb/wwvb"
)

// Options controls how symbols are rendered into samples.
type Options struct {
	TicksPerSecond int     // samples per second, 50 if zero
	Jitter         int     // max displacement of each pulse edge, in ticks
	Noise          float64 // probability of flipping any one sample
	Seed           int64   // random seed, for reproducible streams
}

// Reduced-carrier spans of each symbol, in milliseconds from the start of
// the second. An invalid symbol is rendered as a pulse with a gap where a
// mark would be continuous.
var pulses = map[wwvb.Symbol][][2]int{
	wwvb.Zero:    {{0, 200}},
	wwvb.One:     {{0, 500}},
	wwvb.Mark:    {{0, 800}},
	wwvb.Invalid: {{0, 200}, {500, 800}},
}

// Generate renders symbols into samples, one second per symbol.
func Generate(symbols []wwvb.Symbol, opts Options) []bool {
	tps := opts.TicksPerSecond
	if tps <= 0 {
		tps = 50
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	jitter := func() int {
		if opts.Jitter <= 0 {
			return 0
		}
		return rng.Intn(2*opts.Jitter+1) - opts.Jitter
	}

	samples := make([]bool, len(symbols)*tps)
	for n, sym := range symbols {
		second := samples[n*tps : (n+1)*tps]
		for _, span := range pulses[sym] {
			start := span[0]*tps/1000 + jitter()
			end := span[1]*tps/1000 + jitter()
			for i := max(start, 0); i < min(end, tps); i++ {
				second[i] = true
			}
		}
	}

	if opts.Noise > 0 {
		for i := range samples {
			if rng.Float64() < opts.Noise {
				samples[i] = !samples[i]
			}
		}
	}
	return samples
}

// Minutes returns the symbols of n consecutive minute frames beginning
// with the minute of start. Leap seconds are rendered as an extra mark.
func Minutes(start wwvb.Time, n int) ([]wwvb.Symbol, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of minutes %d", n)
	}

	t := start
	t.Second = 0
	symbols := make([]wwvb.Symbol, 0, n*wwvb.FrameLength)
	for i := 0; i < n; i++ {
		frame := EncodeMinute(t)
		symbols = append(symbols, frame...)
		t.AdvanceSeconds(len(frame))
	}
	return symbols, nil
}

// EncodeMinute returns the symbols transmitted during the minute of t,
// which are 59, 60 or 61 long depending on a pending leap second.
func EncodeMinute(t wwvb.Time) []wwvb.Symbol {
	frame := wwvb.EncodeFrame(t)
	switch t.SecondsInMinute() {
	case 61:
		return append(frame[:], wwvb.Mark)
	case 59:
		return frame[:59]
	}
	return frame[:]
}
