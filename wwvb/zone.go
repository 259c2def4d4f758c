package wwvb

import (
	"fmt"
	"time"
)

// ApplyZoneAndDST converts the broadcast time to local time in a US-style zone.
//
// zoneOffset is the standard-time offset in hours west of UTC (5 for
// Eastern, 6 for Central, ...). Daylight time is applied only when
// observeDST is set and the broadcast DST code says it is in effect at this
// local instant: code 1 switches back at 1 AM standard (2 AM daylight) and
// code 2 switches forward at 2 AM standard on the current local day.
func (t Time) ApplyZoneAndDST(zoneOffset int, observeDST bool) time.Time {
	u := t.ToUTC()
	std := u.Add(-time.Duration(zoneOffset) * time.Hour)

	dst := observeDST
	switch t.DST {
	case DSTStandard:
		dst = false
	case DSTEnds:
		if !std.Before(atHour(std, 1)) {
			dst = false
		}
	case DSTBegins:
		if std.Before(atHour(std, 2)) {
			dst = false
		}
	}

	offset := -zoneOffset * 3600
	if dst {
		offset += 3600
	}
	return u.In(time.FixedZone(zoneName(zoneOffset, dst), offset))
}

// atHour returns the given hour on the same day as wall.
func atHour(wall time.Time, hour int) time.Time {
	y, m, d := wall.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, wall.Location())
}

var usZones = map[int][2]string{
	4:  {"AST", "ADT"},
	5:  {"EST", "EDT"},
	6:  {"CST", "CDT"},
	7:  {"MST", "MDT"},
	8:  {"PST", "PDT"},
	9:  {"AKST", "AKDT"},
	10: {"HST", "HDT"},
}

func zoneName(zoneOffset int, dst bool) string {
	if names, ok := usZones[zoneOffset]; ok {
		if dst {
			return names[1]
		}
		return names[0]
	}
	offset := -zoneOffset
	if dst {
		offset++
	}
	if offset == 0 {
		return "UTC"
	}
	return fmt.Sprintf("UTC%+d", offset)
}
