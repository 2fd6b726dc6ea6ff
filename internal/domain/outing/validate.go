package outing

import (
	"strings"
	"time"
)

// LeaveFields, PermissionFields and StayFields are the typed creation
// inputs: each application type has its own entry point, so a request can
// never carry a mixed or empty field group.
type LeaveFields struct {
	StartDate  time.Time
	EndDate    time.Time
	GatePassAt time.Time
}

type PermissionFields struct {
	Date    time.Time
	OutTime string
	InTime  string
}

type StayFields struct {
	Date time.Time
}

type issueList struct {
	issues []FieldIssue
}

func (l *issueList) add(field, reason string) {
	l.issues = append(l.issues, FieldIssue{Field: field, Reason: reason})
}

func (l *issueList) err() error {
	if len(l.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: l.issues}
}

func validateReason(v *issueList, reason string) {
	if strings.TrimSpace(reason) == "" {
		v.add("reason", "reason is required")
	}
}

// ValidateLeave checks a leave field group against the calendar rules and
// returns the normalized period. The gate-pass cutoff is waived only when
// the leave starts today, in which case the pass just has to be in the
// future.
func ValidateLeave(f LeaveFields, reason string, now time.Time) (*LeavePeriod, error) {
	var v issueList
	validateReason(&v, reason)

	if f.StartDate.IsZero() {
		v.add("startDate", "start date is required")
	} else if IsBeforeToday(f.StartDate, now) {
		v.add("startDate", "start date cannot be in the past")
	}
	if f.EndDate.IsZero() {
		v.add("endDate", "end date is required")
	} else if !f.StartDate.IsZero() && !f.EndDate.After(f.StartDate) {
		v.add("endDate", "end date must be after start date")
	}
	if f.GatePassAt.IsZero() {
		v.add("gatePassDateTime", "gate pass time is required")
	} else if !f.StartDate.IsZero() && !IsBeforeToday(f.StartDate, now) {
		if SameISTDay(f.StartDate, now) {
			if f.GatePassAt.Before(now) {
				v.add("gatePassDateTime", "gate pass time cannot be in the past")
			}
		} else if !MeetsGatePassCutoff(f.GatePassAt) {
			v.add("gatePassDateTime", "gate pass time must be 4:30 PM or later")
		}
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return &LeavePeriod{
		StartDate:  StartOfDay(f.StartDate),
		EndDate:    StartOfDay(f.EndDate),
		GatePassAt: f.GatePassAt,
	}, nil
}

// ValidatePermission checks a single-day permission field group. Out and in
// times are 24-hour HH:MM strings and must form a forward window.
func ValidatePermission(f PermissionFields, reason string, now time.Time) (*PermissionWindow, error) {
	var v issueList
	validateReason(&v, reason)

	if f.Date.IsZero() {
		v.add("permissionDate", "permission date is required")
	} else if IsBeforeToday(f.Date, now) {
		v.add("permissionDate", "permission date cannot be in the past")
	}

	out, okOut := parseClock(f.OutTime)
	if !okOut {
		v.add("outTime", "must be a valid HH:MM 24-hour time")
	}
	in, okIn := parseClock(f.InTime)
	if !okIn {
		v.add("inTime", "must be a valid HH:MM 24-hour time")
	}
	if okOut && okIn && out >= in {
		v.add("outTime", "out time must be before in time")
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return &PermissionWindow{
		Date:    StartOfDay(f.Date),
		OutTime: f.OutTime,
		InTime:  f.InTime,
	}, nil
}

// ValidateStay checks a stay-in-hostel field group: the stay date must be
// today or tomorrow, nothing further out.
func ValidateStay(f StayFields, reason string, now time.Time) (*StayDate, error) {
	var v issueList
	validateReason(&v, reason)

	if f.Date.IsZero() {
		v.add("stayDate", "stay date is required")
	} else if !IsTodayOrTomorrow(f.Date, now) {
		v.add("stayDate", "stay date must be today or tomorrow")
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return &StayDate{Date: StartOfDay(f.Date)}, nil
}

// parseClock returns minutes since midnight for a HH:MM string.
func parseClock(value string) (int, bool) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}
