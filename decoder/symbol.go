package decoder

import "github.com/sergev/wwvb/wwvb"

// offsetMs converts a time into the second to a phase, rounding to nearest.
func offsetMs(ms int) int {
	return (ms*Subsec + 500) / 1000
}

type interval struct {
	start, end int // phases, end exclusive
}

func (iv interval) len() int {
	return iv.end - iv.start
}

// The second is split where the symbols differ: every symbol starts with
// 200 ms of reduced carrier, a one continues to 500 ms and a mark to 800 ms.
var intervals = [4]interval{
	{offsetMs(0), offsetMs(200)},
	{offsetMs(200), offsetMs(500)},
	{offsetMs(500), offsetMs(800)},
	{offsetMs(800), offsetMs(1000)},
}

// Expected reduced-carrier state of each interval, per symbol.
var expected = map[wwvb.Symbol][4]bool{
	wwvb.Zero: {true, false, false, false},
	wwvb.One:  {true, true, false, false},
	wwvb.Mark: {true, true, true, false},
}

// count returns how many samples in i..j of the raw buffer are true
// (true represents the reduced-carrier state).
func (d *Decoder) count(i, j int) int {
	result := 0
	for ; i < j; i++ {
		if d.signal.At(i) {
			result++
		}
	}
	return result
}

// decodeSymbol classifies the second that just ended. Update calls it when
// the next sample to arrive is the first one of a new second, so the last
// Subsec samples of the buffer are exactly the completed second.
func (d *Decoder) decodeSymbol() (wwvb.Symbol, int) {
	const base = BufferSize - Subsec

	var counts [len(intervals)]int
	for k, iv := range intervals {
		counts[k] = d.count(base+iv.start, base+iv.end)
	}
	sym := classify(counts)
	return sym, symbolHealth(sym, counts)
}

func reduced(k, count int) bool {
	return 2*count > intervals[k].len()
}

func classify(counts [4]int) wwvb.Symbol {
	if reduced(2, counts[2]) {
		if reduced(1, counts[1]) {
			return wwvb.Mark
		}
		return wwvb.Invalid
	}
	if reduced(1, counts[1]) {
		return wwvb.One
	}
	return wwvb.Zero
}

// symbolHealth counts the samples that agree with the classified symbol.
// The result is between 0 and Subsec; an invalid symbol scores 0.
func symbolHealth(sym wwvb.Symbol, counts [4]int) int {
	want, ok := expected[sym]
	if !ok {
		return 0
	}
	score := 0
	for k, iv := range intervals {
		if want[k] {
			score += counts[k]
		} else {
			score += iv.len() - counts[k]
		}
	}
	return score
}
