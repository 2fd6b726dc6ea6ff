package outing

import (
	"time"

	"github.com/google/uuid"
)

const (
	duplicateScanWindow = 30 * time.Second
	incomingQRLifetime  = 24 * time.Hour
	outgoingQRLeadTime  = 2 * time.Minute
)

// NewGatePass builds the credential state attached to a request at the
// moment it reaches Approved. Leave passes open two minutes early; a
// permission pass opens at IST midnight of the permission day.
func NewGatePass(req *OutingRequest) *GatePass {
	var from time.Time
	switch req.Type {
	case TypeLeave:
		from = StartOfDay(req.Leave.StartDate).Add(-outgoingQRLeadTime)
	case TypePermission:
		from = StartOfDay(req.Permission.Date)
	default:
		return nil
	}
	return &GatePass{QRAvailableFrom: from}
}

// AvailabilitySnapshot is the read-only eligibility view polled by the
// student's device before rendering the QR code.
type AvailabilitySnapshot struct {
	Available           bool               `json:"available"`
	Reason              string             `json:"reason,omitempty"`
	QRAvailableFrom     time.Time          `json:"qrAvailableFrom"`
	PeriodEnd           time.Time          `json:"periodEnd"`
	VisitLocked         bool               `json:"visitLocked"`
	RemainingVisits     int                `json:"remainingVisits"`
	IncomingQRGenerated bool               `json:"incomingQrGenerated"`
	IncomingQRExpiresAt *time.Time         `json:"incomingQrExpiresAt,omitempty"`
	VerificationStatus  VerificationStatus `json:"verificationStatus"`
}

// Availability computes the snapshot without side effects.
func Availability(req *OutingRequest, now time.Time) AvailabilitySnapshot {
	snapshot := AvailabilitySnapshot{VerificationStatus: req.VerificationStatus}
	if !req.HasGatePass() {
		snapshot.Reason = "this request type has no gate pass"
		return snapshot
	}
	if req.GatePass == nil || req.Status != StatusApproved {
		snapshot.Reason = "request is not approved"
		return snapshot
	}

	gp := req.GatePass
	snapshot.QRAvailableFrom = gp.QRAvailableFrom
	snapshot.PeriodEnd = req.PeriodEnd()
	snapshot.VisitLocked = gp.VisitLocked
	snapshot.RemainingVisits = MaxVisits - gp.VisitCount
	snapshot.IncomingQRGenerated = gp.IncomingQRGenerated
	snapshot.IncomingQRExpiresAt = gp.IncomingQRExpiresAt

	switch {
	case gp.VisitLocked:
		snapshot.Reason = "gate pass already fully scanned"
	case now.Before(gp.QRAvailableFrom):
		snapshot.Reason = "gate pass is not yet available"
	case now.After(snapshot.PeriodEnd):
		snapshot.Reason = "gate pass period has ended"
	default:
		snapshot.Available = true
	}
	return snapshot
}

// applyOutgoingScan decides an outgoing scan against a locked request. The
// first outgoing visit ever also generates the time-limited incoming
// credential.
func applyOutgoingScan(req *OutingRequest, scannedBy, location string, now time.Time) (*GatePassChange, error) {
	snapshot := Availability(req, now)
	if !snapshot.Available {
		return nil, ErrNotAvailable
	}
	if isDuplicateScan(req.Visits, scannedBy, VisitOutgoing, now) {
		return nil, ErrDuplicateScan
	}

	change := &GatePassChange{
		Visit: Visit{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			Type:      VisitOutgoing,
			ScannedBy: scannedBy,
			Location:  location,
			ScannedAt: now,
		},
		GatePass:           *req.GatePass,
		VerificationStatus: VerificationVerified,
	}
	applyVisitCounts(&change.GatePass, len(req.Visits)+1, VisitOutgoing)

	if !change.GatePass.IncomingQRGenerated {
		generatedAt := now
		expiresAt := generatedAt.Add(incomingQRLifetime)
		if end := req.PeriodEnd(); expiresAt.After(end) {
			expiresAt = end
		}
		change.GatePass.IncomingQRGenerated = true
		change.GatePass.IncomingQRGeneratedAt = &generatedAt
		change.GatePass.IncomingQRExpiresAt = &expiresAt
	}
	return change, nil
}

// applyIncomingScan decides a return scan. Recording one marks the student
// as returned even if the approved period has not yet ended.
func applyIncomingScan(req *OutingRequest, scannedBy, location string, now time.Time) (*GatePassChange, error) {
	gp := req.GatePass
	if gp == nil || !gp.IncomingQRGenerated || gp.IncomingQRExpiresAt == nil || now.After(*gp.IncomingQRExpiresAt) {
		return nil, ErrNotAvailable
	}
	if isDuplicateScan(req.Visits, scannedBy, VisitIncoming, now) {
		return nil, ErrDuplicateScan
	}

	completedAt := now
	change := &GatePassChange{
		Visit: Visit{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			Type:      VisitIncoming,
			ScannedBy: scannedBy,
			Location:  location,
			ScannedAt: now,
		},
		GatePass:           *gp,
		VerificationStatus: VerificationCompleted,
		CompletedAt:        &completedAt,
	}
	applyVisitCounts(&change.GatePass, len(req.Visits)+1, VisitIncoming)
	return change, nil
}

// applyVisitCounts recomputes the counters after an append. The total count
// is capped at MaxVisits; reaching the cap locks the pass permanently.
func applyVisitCounts(gp *GatePass, totalVisits int, direction VisitType) {
	gp.VisitCount = totalVisits
	if gp.VisitCount > MaxVisits {
		gp.VisitCount = MaxVisits
	}
	if gp.VisitCount == MaxVisits {
		gp.VisitLocked = true
	}
	switch direction {
	case VisitOutgoing:
		gp.OutgoingVisitCount++
	case VisitIncoming:
		gp.IncomingVisitCount++
	}
}

// isDuplicateScan suppresses a retry by the same scanner in the same
// direction inside the 30-second window.
func isDuplicateScan(visits []Visit, scannedBy string, direction VisitType, now time.Time) bool {
	for _, visit := range visits {
		if visit.ScannedBy != scannedBy || visit.Type != direction {
			continue
		}
		if now.Sub(visit.ScannedAt) < duplicateScanWindow {
			return true
		}
	}
	return false
}
