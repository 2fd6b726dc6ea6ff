package outing

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// MutateGatePass runs fn against the request row held under FOR UPDATE, so
// the availability/cap check and the visit append commit atomically. A
// second scanner on the same request blocks on the row lock and then sees
// the first scanner's visit.
func (s *Store) MutateGatePass(ctx context.Context, id string, fn GatePassMutator) (*OutingRequest, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM outing_requests WHERE id = $1 FOR UPDATE`, id)
	req, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	visits, err := s.listVisits(ctx, tx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Visits = visits

	change, err := fn(req)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO outing_visits (id, request_id, visit_type, scanned_by, location, scanned_at)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, change.Visit.ID, change.Visit.RequestID, change.Visit.Type, change.Visit.ScannedBy, change.Visit.Location, change.Visit.ScannedAt); err != nil {
		return nil, err
	}

	gp := change.GatePass
	if _, err := tx.Exec(ctx, `
    UPDATE outing_requests
    SET visit_count = $1, outgoing_visit_count = $2, incoming_visit_count = $3, visit_locked = $4,
        incoming_qr_generated = $5, incoming_qr_generated_at = $6, incoming_qr_expires_at = $7,
        verification_status = $8, completed_at = COALESCE($9, completed_at), updated_at = now()
    WHERE id = $10
  `, gp.VisitCount, gp.OutgoingVisitCount, gp.IncomingVisitCount, gp.VisitLocked,
		gp.IncomingQRGenerated, gp.IncomingQRGeneratedAt, gp.IncomingQRExpiresAt,
		change.VerificationStatus, change.CompletedAt, req.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.GatePass = &gp
	req.Visits = append(req.Visits, change.Visit)
	req.VerificationStatus = change.VerificationStatus
	if change.CompletedAt != nil {
		req.CompletedAt = change.CompletedAt
	}
	return req, nil
}

type visitQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Store) listVisits(ctx context.Context, q visitQuerier, requestID string) ([]Visit, error) {
	rows, err := q.Query(ctx, `
    SELECT id, request_id, visit_type, scanned_by, location, scanned_at
    FROM outing_visits
    WHERE request_id = $1
    ORDER BY scanned_at
  `, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.RequestID, &v.Type, &v.ScannedBy, &v.Location, &v.ScannedAt); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
