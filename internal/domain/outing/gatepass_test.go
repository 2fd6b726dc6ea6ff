package outing

import (
	"errors"
	"testing"
	"time"
)

func approvedLeave(now time.Time, days int) *OutingRequest {
	req := &OutingRequest{
		ID:        "req-1",
		StudentID: "student-1",
		Type:      TypeLeave,
		Reason:    "family function",
		Status:    StatusApproved,
		Leave: &LeavePeriod{
			StartDate:  StartOfDay(now),
			EndDate:    StartOfDay(now).AddDate(0, 0, days),
			GatePassAt: now,
		},
		VerificationStatus: VerificationNotVerified,
	}
	req.GatePass = NewGatePass(req)
	return req
}

func TestAvailabilityWindow(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, IST)
	req := approvedLeave(now, 2)

	if snap := Availability(req, now); !snap.Available {
		t.Fatalf("expected available inside window: %+v", snap)
	}
	if snap := Availability(req, StartOfDay(now).Add(-time.Hour)); snap.Available {
		t.Fatal("expected unavailable before window")
	}
	// Leave passes open two minutes before IST midnight of the start date.
	if snap := Availability(req, StartOfDay(now).Add(-time.Minute)); !snap.Available {
		t.Fatal("expected available inside the two-minute lead")
	}
	if snap := Availability(req, req.PeriodEnd().Add(time.Hour)); snap.Available {
		t.Fatal("expected unavailable after period end")
	}

	req.Status = StatusPendingPrincipalApproval
	req.GatePass = nil
	if snap := Availability(req, now); snap.Available {
		t.Fatal("expected unavailable before approval")
	}
}

func TestPermissionPassOpensAtMidnight(t *testing.T) {
	day := time.Date(2024, 3, 12, 0, 0, 0, 0, IST)
	req := &OutingRequest{
		ID:         "req-2",
		Type:       TypePermission,
		Status:     StatusApproved,
		Permission: &PermissionWindow{Date: day, OutTime: "09:00", InTime: "18:00"},
	}
	req.GatePass = NewGatePass(req)

	if !req.GatePass.QRAvailableFrom.Equal(day) {
		t.Fatalf("expected availability from IST midnight, got %v", req.GatePass.QRAvailableFrom)
	}
}

func TestOutgoingScanGeneratesIncomingCredentialOnce(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, IST)
	req := approvedLeave(now, 2)

	change, err := applyOutgoingScan(req, "gate-1", "main gate", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.GatePass.VisitCount != 1 || change.GatePass.OutgoingVisitCount != 1 {
		t.Fatalf("unexpected counts: %+v", change.GatePass)
	}
	if !change.GatePass.IncomingQRGenerated {
		t.Fatal("first outgoing scan must generate the incoming credential")
	}
	want := now.Add(incomingQRLifetime)
	if !change.GatePass.IncomingQRExpiresAt.Equal(want) {
		t.Fatalf("expected incoming expiry %v, got %v", want, *change.GatePass.IncomingQRExpiresAt)
	}
	if change.VerificationStatus != VerificationVerified {
		t.Fatalf("expected verified status, got %s", change.VerificationStatus)
	}
}

func TestIncomingExpiryCappedAtPeriodEnd(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, IST)
	// Single-day window: now+24h would overshoot the period end.
	req := approvedLeave(now, 0)
	req.Leave.EndDate = StartOfDay(now)

	change, err := applyOutgoingScan(req, "gate-1", "main gate", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !change.GatePass.IncomingQRExpiresAt.Equal(req.PeriodEnd()) {
		t.Fatalf("expected expiry capped at period end %v, got %v", req.PeriodEnd(), *change.GatePass.IncomingQRExpiresAt)
	}
}

func TestDuplicateOutgoingScanSuppressed(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, IST)
	req := approvedLeave(now, 2)

	change, err := applyOutgoingScan(req, "gate-1", "main gate", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req.Visits = append(req.Visits, change.Visit)
	req.GatePass = &change.GatePass

	if _, err := applyOutgoingScan(req, "gate-1", "main gate", now.Add(10*time.Second)); !errors.Is(err, ErrDuplicateScan) {
		t.Fatalf("expected duplicate scan error, got %v", err)
	}
	// A different terminal outside the duplicate rule still hits the cap.
	second, err := applyOutgoingScan(req, "gate-2", "rear gate", now.Add(10*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.GatePass.VisitCount != MaxVisits || !second.GatePass.VisitLocked {
		t.Fatalf("expected cap reached and lock set: %+v", second.GatePass)
	}
	req.Visits = append(req.Visits, second.Visit)
	req.GatePass = &second.GatePass

	if _, err := applyOutgoingScan(req, "gate-3", "main gate", now.Add(time.Minute)); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("locked pass must reject further scans, got %v", err)
	}
}

func TestIncomingScanCompletesRequest(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, IST)
	req := approvedLeave(now, 2)

	out, err := applyOutgoingScan(req, "gate-1", "main gate", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req.Visits = append(req.Visits, out.Visit)
	req.GatePass = &out.GatePass

	in, err := applyIncomingScan(req, "gate-1", "main gate", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.VerificationStatus != VerificationCompleted || in.CompletedAt == nil {
		t.Fatalf("incoming scan must complete the request: %+v", in)
	}
	if in.GatePass.IncomingVisitCount != 1 || in.GatePass.VisitCount != MaxVisits {
		t.Fatalf("unexpected counts: %+v", in.GatePass)
	}

	req.Visits = append(req.Visits, in.Visit)
	req.GatePass = &in.GatePass
	expiredAt := in.GatePass.IncomingQRExpiresAt.Add(time.Minute)
	if _, err := applyIncomingScan(req, "gate-2", "main gate", expiredAt); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expired incoming credential must be rejected, got %v", err)
	}
}

func TestIncomingScanRequiresCredential(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, IST)
	req := approvedLeave(now, 2)

	if _, err := applyIncomingScan(req, "gate-1", "main gate", now); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("incoming scan without outgoing must fail, got %v", err)
	}
}
