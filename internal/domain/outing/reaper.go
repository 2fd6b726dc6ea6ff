package outing

import (
	"context"
	"log/slog"
)

// RunExpiry deletes requests whose relevant date has passed without the
// approval chain completing, notifying the student first. Each record is
// handled independently: one failure is logged and the sweep continues. The
// delete is status-guarded, so a human action landing mid-sweep wins and
// the record survives; re-running the sweep is a no-op for anything already
// removed.
func (s *Service) RunExpiry(ctx context.Context) (int, error) {
	requests, err := s.Store.ListByStatus(ctx, awaitingActionStatuses...)
	if err != nil {
		return 0, err
	}

	now := s.now()
	deleted := 0
	for _, req := range requests {
		relevant := req.RelevantDate()
		if relevant.IsZero() || !IsBeforeToday(relevant, now) {
			continue
		}

		s.notify(ctx, req.StudentID, NotifTypeExpired, "Request expired", expiryMessage(req), req.ID)

		removed, err := s.Store.DeleteIfStatusIn(ctx, req.ID, awaitingActionStatuses)
		if err != nil {
			slog.Warn("expiry delete failed", "requestId", req.ID, "err", err)
			continue
		}
		if removed {
			deleted++
		}
	}
	return deleted, nil
}

// expiryMessage distinguishes which step never happened so the student
// knows what stalled.
func expiryMessage(req *OutingRequest) string {
	switch req.Status {
	case StatusPendingOTPVerification:
		return "your request expired because the OTP was never verified"
	case StatusWardenVerified:
		return "your request expired because the principal did not act on it in time"
	default:
		return "your request expired before it could be processed"
	}
}
