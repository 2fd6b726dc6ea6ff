package outing

import "time"

// IST is the fixed timezone every calendar rule in this package is evaluated
// in. Requests are created across the UTC day boundary, so "today" must be
// computed here and not from the server's local clock.
var IST = time.FixedZone("IST", 5*3600+30*60)

// gatePassCutoffHour/Minute is the earliest time-of-day a gate pass may be
// scheduled for when the leave does not start today.
const (
	gatePassCutoffHour   = 16
	gatePassCutoffMinute = 30
)

// StartOfDay returns IST midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	local := t.In(IST)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, IST)
}

// StartOfToday returns IST midnight of the current day.
func StartOfToday(now time.Time) time.Time {
	return StartOfDay(now)
}

// EndOfDay returns the last instant of the IST day containing t.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// IsBeforeToday reports whether d falls on an IST calendar day strictly
// before the day containing now.
func IsBeforeToday(d, now time.Time) bool {
	return StartOfDay(d).Before(StartOfDay(now))
}

// SameISTDay reports whether a and b fall on the same IST calendar day.
func SameISTDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// IsTodayOrTomorrow reports whether d falls on the IST day containing now or
// the day after. Stay-in-hostel requests may only target those two days.
func IsTodayOrTomorrow(d, now time.Time) bool {
	day := StartOfDay(d)
	today := StartOfDay(now)
	return day.Equal(today) || day.Equal(today.AddDate(0, 0, 1))
}

// MeetsGatePassCutoff reports whether t's IST time-of-day is at or after the
// 16:30 cutoff. The rule is intentionally date-independent: only the clock
// time matters.
func MeetsGatePassCutoff(t time.Time) bool {
	local := t.In(IST)
	if local.Hour() != gatePassCutoffHour {
		return local.Hour() > gatePassCutoffHour
	}
	return local.Minute() >= gatePassCutoffMinute
}
