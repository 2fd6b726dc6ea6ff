package outing

import (
	"context"
	"testing"
	"time"
)

func seedRequest(env *testEnv, id string, status Status, endDate time.Time) {
	env.store.requests[id] = &OutingRequest{
		ID:        id,
		StudentID: "student-1",
		Type:      TypeLeave,
		Reason:    "seeded",
		Status:    status,
		Leave: &LeavePeriod{
			StartDate:  endDate.AddDate(0, 0, -1),
			EndDate:    endDate,
			GatePassAt: endDate,
		},
		VerificationStatus: VerificationNotVerified,
		CreatedAt:          endDate.AddDate(0, 0, -2),
		UpdatedAt:          endDate.AddDate(0, 0, -2),
	}
}

func TestRunExpiryDeletesStaleRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	yesterday := StartOfDay(env.now).AddDate(0, 0, -1)
	today := StartOfDay(env.now)

	seedRequest(env, "stale-pending-otp", StatusPendingOTPVerification, yesterday)
	seedRequest(env, "stale-verified", StatusWardenVerified, yesterday)
	seedRequest(env, "fresh", StatusPendingOTPVerification, today)
	seedRequest(env, "terminal", StatusApproved, yesterday)

	deleted, err := env.service.RunExpiry(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}

	if _, err := env.store.Get(ctx, "stale-pending-otp"); err == nil {
		t.Fatal("stale request should be gone")
	}
	if _, err := env.store.Get(ctx, "fresh"); err != nil {
		t.Fatal("request ending today must survive")
	}
	if _, err := env.store.Get(ctx, "terminal"); err != nil {
		t.Fatal("terminal request is not the reaper's to delete")
	}

	// Students are told which step never happened.
	otpNote := env.notifier.find("student-1", NotifTypeExpired)
	if otpNote == nil {
		t.Fatal("expected expiry notification")
	}

	// Idempotent: nothing left to reap.
	deleted, err = env.service.RunExpiry(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("second run should delete nothing, got %d", deleted)
	}
}

func TestExpiryMessagesDistinguishStalledStep(t *testing.T) {
	otp := &OutingRequest{Status: StatusPendingOTPVerification}
	verified := &OutingRequest{Status: StatusWardenVerified}
	pending := &OutingRequest{Status: StatusPending}

	if expiryMessage(otp) == expiryMessage(verified) {
		t.Fatal("OTP and principal wording must differ")
	}
	if expiryMessage(pending) == "" {
		t.Fatal("pending requests still get an explanation")
	}
}
