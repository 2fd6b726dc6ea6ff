package outing

import (
	"errors"
	"testing"
	"time"
)

var validateNow = time.Date(2024, 3, 10, 10, 0, 0, 0, IST)

func TestValidateLeaveGatePassCutoff(t *testing.T) {
	fields := LeaveFields{
		StartDate:  time.Date(2024, 3, 12, 0, 0, 0, 0, IST),
		EndDate:    time.Date(2024, 3, 14, 0, 0, 0, 0, IST),
		GatePassAt: time.Date(2024, 3, 10, 15, 0, 0, 0, IST),
	}

	_, err := ValidateLeave(fields, "family function", validateNow)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !hasIssue(verr, "gatePassDateTime") {
		t.Fatalf("expected gatePassDateTime issue, got %+v", verr.Issues)
	}

	fields.GatePassAt = time.Date(2024, 3, 10, 17, 0, 0, 0, IST)
	period, err := ValidateLeave(fields, "family function", validateNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !SameISTDay(period.StartDate, fields.StartDate) {
		t.Fatalf("start date not normalized: %v", period.StartDate)
	}
}

func TestValidateLeaveSameDayStartSkipsCutoff(t *testing.T) {
	fields := LeaveFields{
		StartDate:  time.Date(2024, 3, 10, 0, 0, 0, 0, IST),
		EndDate:    time.Date(2024, 3, 11, 0, 0, 0, 0, IST),
		GatePassAt: time.Date(2024, 3, 10, 11, 0, 0, 0, IST),
	}

	// 11:00 is before the 16:30 cutoff, but the leave starts today so the
	// pass only has to be in the future.
	if _, err := ValidateLeave(fields, "urgent travel", validateNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields.GatePassAt = time.Date(2024, 3, 10, 9, 0, 0, 0, IST)
	if _, err := ValidateLeave(fields, "urgent travel", validateNow); err == nil {
		t.Fatal("expected error for gate pass time in the past")
	}
}

func TestValidateLeaveRejectsPastAndInvertedDates(t *testing.T) {
	fields := LeaveFields{
		StartDate:  time.Date(2024, 3, 9, 0, 0, 0, 0, IST),
		EndDate:    time.Date(2024, 3, 8, 0, 0, 0, 0, IST),
		GatePassAt: time.Date(2024, 3, 9, 17, 0, 0, 0, IST),
	}

	_, err := ValidateLeave(fields, "", validateNow)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"reason", "startDate", "endDate"} {
		if !hasIssue(verr, field) {
			t.Fatalf("expected issue on %s, got %+v", field, verr.Issues)
		}
	}
}

func TestValidatePermission(t *testing.T) {
	fields := PermissionFields{
		Date:    time.Date(2024, 3, 10, 0, 0, 0, 0, IST),
		OutTime: "09:00",
		InTime:  "18:30",
	}
	window, err := ValidatePermission(fields, "bank visit", validateNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if window.OutTime != "09:00" || window.InTime != "18:30" {
		t.Fatalf("times not preserved: %+v", window)
	}

	cases := []struct {
		name   string
		mutate func(*PermissionFields)
		field  string
	}{
		{"past date", func(f *PermissionFields) { f.Date = time.Date(2024, 3, 9, 0, 0, 0, 0, IST) }, "permissionDate"},
		{"bad out time", func(f *PermissionFields) { f.OutTime = "9am" }, "outTime"},
		{"bad in time", func(f *PermissionFields) { f.InTime = "25:00" }, "inTime"},
		{"inverted window", func(f *PermissionFields) { f.OutTime = "19:00" }, "outTime"},
	}
	for _, tc := range cases {
		bad := fields
		tc.mutate(&bad)
		_, err := ValidatePermission(bad, "bank visit", validateNow)
		var verr *ValidationError
		if !errors.As(err, &verr) || !hasIssue(verr, tc.field) {
			t.Fatalf("%s: expected issue on %s, got %v", tc.name, tc.field, err)
		}
	}
}

func TestValidateStay(t *testing.T) {
	if _, err := ValidateStay(StayFields{Date: time.Date(2024, 3, 10, 0, 0, 0, 0, IST)}, "exam prep", validateNow); err != nil {
		t.Fatalf("today should be allowed: %v", err)
	}
	if _, err := ValidateStay(StayFields{Date: time.Date(2024, 3, 11, 0, 0, 0, 0, IST)}, "exam prep", validateNow); err != nil {
		t.Fatalf("tomorrow should be allowed: %v", err)
	}
	if _, err := ValidateStay(StayFields{Date: time.Date(2024, 3, 12, 0, 0, 0, 0, IST)}, "exam prep", validateNow); err == nil {
		t.Fatal("day after tomorrow should be rejected")
	}
}

func hasIssue(err *ValidationError, field string) bool {
	for _, issue := range err.Issues {
		if issue.Field == field {
			return true
		}
	}
	return false
}
