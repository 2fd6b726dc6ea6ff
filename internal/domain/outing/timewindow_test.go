package outing

import (
	"testing"
	"time"
)

func TestStartOfDayCrossesUTCBoundary(t *testing.T) {
	// 20:00 UTC on March 11 is already 01:30 IST on March 12.
	utcEvening := time.Date(2024, 3, 11, 20, 0, 0, 0, time.UTC)

	start := StartOfDay(utcEvening)
	if start.In(IST).Hour() != 0 || start.In(IST).Day() != 12 {
		t.Fatalf("expected IST midnight of March 12, got %v", start.In(IST))
	}
}

func TestIsBeforeToday(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, IST)

	if !IsBeforeToday(time.Date(2024, 3, 11, 23, 59, 0, 0, IST), now) {
		t.Fatal("yesterday should be before today")
	}
	if IsBeforeToday(time.Date(2024, 3, 12, 0, 0, 0, 0, IST), now) {
		t.Fatal("today should not be before today")
	}
	// 19:30 UTC on March 11 is 01:00 IST March 12: same IST day as now.
	if IsBeforeToday(time.Date(2024, 3, 11, 19, 30, 0, 0, time.UTC), now) {
		t.Fatal("UTC-yesterday that is IST-today should not count as past")
	}
}

func TestIsTodayOrTomorrow(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, IST)

	cases := []struct {
		date time.Time
		want bool
	}{
		{time.Date(2024, 3, 12, 0, 0, 0, 0, IST), true},
		{time.Date(2024, 3, 13, 18, 0, 0, 0, IST), true},
		{time.Date(2024, 3, 14, 0, 0, 0, 0, IST), false},
		{time.Date(2024, 3, 11, 0, 0, 0, 0, IST), false},
	}
	for _, tc := range cases {
		if got := IsTodayOrTomorrow(tc.date, now); got != tc.want {
			t.Fatalf("IsTodayOrTomorrow(%v) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestMeetsGatePassCutoff(t *testing.T) {
	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2024, 3, 10, 16, 30, 0, 0, IST), true},
		{time.Date(2024, 3, 10, 17, 0, 0, 0, IST), true},
		{time.Date(2024, 3, 10, 16, 29, 0, 0, IST), false},
		{time.Date(2024, 3, 10, 15, 0, 0, 0, IST), false},
	}
	for _, tc := range cases {
		if got := MeetsGatePassCutoff(tc.at); got != tc.want {
			t.Fatalf("MeetsGatePassCutoff(%v) = %v, want %v", tc.at, got, tc.want)
		}
	}
}

func TestEndOfDay(t *testing.T) {
	day := time.Date(2024, 3, 14, 9, 0, 0, 0, IST)
	end := EndOfDay(day)
	if !end.After(time.Date(2024, 3, 14, 23, 59, 59, 0, IST)) {
		t.Fatalf("end of day too early: %v", end)
	}
	if !end.Before(time.Date(2024, 3, 15, 0, 0, 0, 0, IST)) {
		t.Fatalf("end of day leaked into next day: %v", end)
	}
}
