package outing

import (
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = fmt.Errorf("request not found")
	ErrStateConflict = fmt.Errorf("request is not in the expected state")
	ErrForbidden     = fmt.Errorf("actor is not authorized for this student")
	ErrInvalidOTP    = fmt.Errorf("incorrect verification code")
	ErrOTPLocked     = fmt.Errorf("too many incorrect codes, resend to continue")
	ErrNotAvailable  = fmt.Errorf("gate pass is not available for scanning")
	ErrDuplicateScan = fmt.Errorf("duplicate scan")
)

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries per-field issues so the caller can render a
// concrete message for every bad input at once.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RateLimitError reports how long the caller must wait before the OTP can be
// resent again.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	wait := e.RetryAfter.Round(time.Second)
	if wait < time.Second {
		wait = time.Second
	}
	return fmt.Sprintf("wait %s before resending the code", wait)
}

// DailyLimitError marks a second request of the same type on the same IST
// calendar day.
type DailyLimitError struct {
	Type ApplicationType
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("a %s request already exists for today", e.Type)
}
