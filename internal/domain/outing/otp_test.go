package outing

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 4 || code[0] == '0' {
			t.Fatalf("expected 4-digit code in [1000,9999], got %q", code)
		}
	}
}

func TestResendCooldown(t *testing.T) {
	createdAt := time.Date(2024, 3, 10, 10, 0, 0, 0, IST)
	otp := OTPState{Code: "4321"}

	if wait := otp.resendWait(createdAt, createdAt.Add(2*time.Minute)); wait == 0 {
		t.Fatal("expected cooldown from creation")
	}
	if wait := otp.resendWait(createdAt, createdAt.Add(5*time.Minute)); wait != 0 {
		t.Fatalf("cooldown should have elapsed, still %v", wait)
	}

	resendAt := createdAt.Add(6 * time.Minute)
	otp.recordResend(resendAt)
	if otp.ResendCount != 1 {
		t.Fatalf("expected resend count 1, got %d", otp.ResendCount)
	}
	if otp.Code != "4321" {
		t.Fatal("resend must reuse the existing code")
	}
	if wait := otp.resendWait(createdAt, resendAt.Add(time.Minute)); wait == 0 {
		t.Fatal("expected cooldown from last resend")
	}
}

func TestOTPAttemptLockout(t *testing.T) {
	otp := OTPState{Code: "4321"}

	for i := 0; i < maxOTPAttempts; i++ {
		if err := otp.check("0000"); !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("attempt %d: expected ErrInvalidOTP, got %v", i, err)
		}
	}
	if !otp.Locked {
		t.Fatal("expected lockout after max attempts")
	}
	if err := otp.check("4321"); !errors.Is(err, ErrOTPLocked) {
		t.Fatalf("locked otp must reject even the right code, got %v", err)
	}

	otp.recordResend(time.Now())
	if err := otp.check("4321"); err != nil {
		t.Fatalf("resend should clear the lockout: %v", err)
	}
}
