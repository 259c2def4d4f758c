package wwvb

import (
	"errors"
	"fmt"
)

// FrameLength is the number of symbols in one minute frame.
const FrameLength = 60

// Frame decode failures. None of them is fatal: the receiver simply waits
// for the next mark.
var (
	ErrNotFrame = errors.New("symbols do not match the frame template")
	ErrBCD      = errors.New("invalid BCD digit")
	ErrDUT1Sign = errors.New("invalid DUT1 sign")
	ErrRange    = errors.New("field out of range")
)

// Symbol positions within the frame, least significant bit first.
// Each group of four carries one decimal digit with weights 1, 2, 4, 8.
var (
	minuteBits   = []int{8, 7, 6, 5, 3, 2, 1}
	hourBits     = []int{18, 17, 16, 15, 13, 12}
	ydayBits     = []int{33, 32, 31, 30, 28, 27, 26, 25, 23, 22}
	dut1SignBits = []int{38, 37, 36}
	dut1Bits     = []int{43, 42, 41, 40}
	yearBits     = []int{53, 52, 51, 50, 48, 47, 46, 45}
	lyBits       = []int{55}
	lsBits       = []int{56}
	dstBits      = []int{58, 57}
)

const (
	dut1Negative = 2 // 0-1-0 in positions 36-38
	dut1Positive = 5 // 1-0-1 in positions 36-38
)

// Frame is a complete minute of symbols, position 0 being the reference mark.
type Frame [FrameLength]Symbol

// String renders the frame as a line of symbol characters.
func (f *Frame) String() string {
	b := make([]byte, 0, FrameLength)
	for _, s := range f {
		b = append(b, s.String()[0])
	}
	return string(b)
}

func isMarkPosition(i int) bool {
	return i == 0 || i%10 == 9
}

func isZeroPosition(i int) bool {
	switch i {
	case 10, 11, 20, 21, 35:
		return true
	}
	return i%10 == 4
}

type frameReader func(i int) Symbol

// checkTemplate verifies the fixed marks and unused zero positions.
func (f frameReader) checkTemplate() error {
	for i := 0; i < FrameLength; i++ {
		s := f(i)
		if isMarkPosition(i) != (s == Mark) {
			return fmt.Errorf("%w: symbol %s at position %d", ErrNotFrame, s, i)
		}
		if isZeroPosition(i) && s != Zero {
			return fmt.Errorf("%w: symbol %s at zero position %d", ErrNotFrame, s, i)
		}
	}
	return nil
}

// bcd sums the weighted bits at the given positions, one decade per four.
func (f frameReader) bcd(positions []int) (int, error) {
	value, scale := 0, 1
	for start := 0; start < len(positions); start += 4 {
		decade := positions[start:min(start+4, len(positions))]
		digit := 0
		for k, pos := range decade {
			s := f(pos)
			if !s.IsBit() {
				return 0, fmt.Errorf("%w: symbol %s at position %d", ErrBCD, s, pos)
			}
			digit += int(s) << k
		}
		if digit > 9 {
			return 0, fmt.Errorf("%w: %d at positions %v", ErrBCD, digit, decade)
		}
		value += digit * scale
		scale *= 10
	}
	return value, nil
}

// DecodeFrame validates a minute of symbols and extracts the broadcast time.
// at(i) must return the symbol at frame position i for 0 <= i < 60.
// On any failure the returned Time is zero; no field is partially trusted.
func DecodeFrame(at func(i int) Symbol) (Time, error) {
	f := frameReader(at)
	if err := f.checkTemplate(); err != nil {
		return Time{}, err
	}

	var t Time
	fields := []struct {
		name      string
		positions []int
		value     *int
	}{
		{"minute", minuteBits, &t.Minute},
		{"hour", hourBits, &t.Hour},
		{"day of year", ydayBits, &t.YDay},
		{"year", yearBits, &t.Year},
		{"DUT1", dut1Bits, &t.DUT1},
	}
	for _, field := range fields {
		v, err := f.bcd(field.positions)
		if err != nil {
			return Time{}, fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = v
	}

	flags := []struct {
		name      string
		positions []int
	}{
		{"leap year", lyBits},
		{"leap second", lsBits},
		{"DST", dstBits},
		{"DUT1 sign", dut1SignBits},
	}
	var values [4]int
	for i, flag := range flags {
		v, err := f.bcd(flag.positions)
		if err != nil {
			return Time{}, fmt.Errorf("%s: %w", flag.name, err)
		}
		values[i] = v
	}
	t.LY = values[0] != 0
	t.LS = values[1] != 0
	t.DST = DSTCode(values[2])

	switch values[3] {
	case dut1Negative:
		t.DUT1 = -t.DUT1
	case dut1Positive:
	default:
		return Time{}, fmt.Errorf("%w: code %d", ErrDUT1Sign, values[3])
	}

	if t.Minute > 59 || t.Hour > 23 || t.YDay < 1 || t.YDay > t.daysInYear() {
		return Time{}, fmt.Errorf("%w: %s", ErrRange, t)
	}
	return t, nil
}

// EncodeFrame renders t as the minute frame WWVB transmits for it.
// Second is ignored; |DUT1| is limited to 0.9 s.
func EncodeFrame(t Time) Frame {
	var f Frame
	for i := range f {
		if isMarkPosition(i) {
			f[i] = Mark
		}
	}

	put := func(value int, positions []int) {
		for start := 0; start < len(positions); start += 4 {
			digit := value % 10
			value /= 10
			for k, pos := range positions[start:min(start+4, len(positions))] {
				f[pos] = Symbol((digit >> k) & 1)
			}
		}
	}

	put(t.Minute, minuteBits)
	put(t.Hour, hourBits)
	put(t.YDay, ydayBits)
	put(t.Year, yearBits)
	put(int(t.DST), dstBits)
	if t.LY {
		put(1, lyBits)
	}
	if t.LS {
		put(1, lsBits)
	}

	dut1 := t.DUT1
	if dut1 < 0 {
		put(dut1Negative, dut1SignBits)
		dut1 = -dut1
	} else {
		put(dut1Positive, dut1SignBits)
	}
	put(min(dut1, 9), dut1Bits)
	return f
}
