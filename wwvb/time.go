package wwvb

import (
	"fmt"
	"time"
)

// DSTCode is the two-bit daylight saving schedule broadcast each minute.
type DSTCode int

const (
	DSTStandard DSTCode = 0 // standard time in effect
	DSTEnds     DSTCode = 1 // daylight time ends today
	DSTBegins   DSTCode = 2 // daylight time begins today
	DSTDaylight DSTCode = 3 // daylight time in effect
)

func (d DSTCode) String() string {
	switch d {
	case DSTStandard:
		return "standard"
	case DSTEnds:
		return "dst-ends"
	case DSTBegins:
		return "dst-begins"
	case DSTDaylight:
		return "daylight"
	default:
		return fmt.Sprintf("dst(%d)", int(d))
	}
}

// Time is decoded broadcast time together with its leap second, DST and
// DUT1 metadata. Fresh values come from DecodeFrame; callers then advance
// them in place between frames.
type Time struct {
	Year   int // 0-99, years since 2000
	YDay   int // 1-366
	Hour   int // 0-23
	Minute int // 0-59
	Second int // 0-60 (60 only during an inserted leap second)

	LY   bool    // leap year
	LS   bool    // leap second pending at the end of the month
	DST  DSTCode // daylight saving schedule
	DUT1 int     // UT1-UTC in tenths of a second
}

// IsLeapYear reports whether the full year (e.g. 2024) is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// daysInYear returns the length of the current year according to the LY flag.
func (t Time) daysInYear() int {
	if t.LY {
		return 366
	}
	return 365
}

// ToUTC converts the broadcast time to a UTC instant.
// A leap second (Second == 60) normalizes into the following minute.
func (t Time) ToUTC() time.Time {
	return time.Date(2000+t.Year, time.January, t.YDay, t.Hour, t.Minute, t.Second, 0, time.UTC)
}

// FromUTC builds a Time for the given UTC instant.
// The leap second flag, DST code and DUT1 are taken from the arguments.
func FromUTC(u time.Time, ls bool, dst DSTCode, dut1 int) Time {
	u = u.UTC()
	return Time{
		Year:   u.Year() % 100,
		YDay:   u.YearDay(),
		Hour:   u.Hour(),
		Minute: u.Minute(),
		Second: u.Second(),
		LY:     IsLeapYear(u.Year()),
		LS:     ls,
		DST:    dst,
		DUT1:   dut1,
	}
}

// SecondsInMinute returns the length of the current minute: 60 normally,
// 61 or 59 in the last minute of June 30 or December 31 when a leap second
// is pending. The sign of DUT1 selects an inserted (negative) or deleted
// (positive) second.
func (t Time) SecondsInMinute() int {
	if !t.LS || t.Hour != 23 || t.Minute != 59 {
		return 60
	}
	midYear := 181
	if t.LY {
		midYear++
	}
	if t.YDay != midYear && t.YDay != t.daysInYear() {
		return 60
	}
	if t.DUT1 < 0 {
		return 61
	}
	return 59
}

// AdvanceSeconds moves the time forward by n seconds.
//
// While a leap second is pending the minutes are stepped one at a time,
// since any of them may be 59 or 61 seconds long. Otherwise whole minutes
// are skipped by division.
func (t *Time) AdvanceSeconds(n int) {
	if n <= 0 {
		return
	}
	t.Second += n
	for t.LS {
		sim := t.SecondsInMinute()
		if t.Second < sim {
			return
		}
		t.Second -= sim
		t.AdvanceMinutes(1)
	}
	if t.Second >= 60 {
		minutes := t.Second / 60
		t.Second %= 60
		t.AdvanceMinutes(minutes)
	}
}

// AdvanceMinutes moves the time forward by n minutes, leaving Second alone.
// Leaving a leap minute clears LS and moves DUT1 by a whole second toward
// its new value.
func (t *Time) AdvanceMinutes(n int) {
	for ; n > 0 && t.LS; n-- {
		t.endLeapMinute()
		t.addMinutes(1)
	}
	if n > 0 {
		t.addMinutes(n)
	}
}

func (t *Time) endLeapMinute() {
	switch t.SecondsInMinute() {
	case 61:
		t.DUT1 += 10
		t.LS = false
	case 59:
		t.DUT1 -= 10
		t.LS = false
	}
}

func (t *Time) addMinutes(n int) {
	t.Minute += n
	if t.Minute < 60 {
		return
	}
	t.Hour += t.Minute / 60
	t.Minute %= 60
	if t.Hour < 24 {
		return
	}
	days := t.Hour / 24
	t.Hour %= 24
	t.addDays(days)
}

func (t *Time) addDays(n int) {
	for ; n > 0; n-- {
		t.YDay++
		if t.YDay > t.daysInYear() {
			t.YDay = 1
			t.Year = (t.Year + 1) % 100
			t.LY = IsLeapYear(2000 + t.Year)
		}

		// The schedule bits flip at 00:00 UTC
		switch t.DST {
		case DSTEnds:
			t.DST = DSTStandard
		case DSTBegins:
			t.DST = DSTDaylight
		}
	}
}

// String formats the time as year-day and wall clock, plus flags.
func (t Time) String() string {
	s := fmt.Sprintf("%04d-%03d %02d:%02d:%02d", 2000+t.Year, t.YDay, t.Hour, t.Minute, t.Second)
	if t.LY {
		s += " ly"
	}
	if t.LS {
		s += " ls"
	}
	return fmt.Sprintf("%s %s dut1=%+.1f", s, t.DST, float64(t.DUT1)/10)
}
