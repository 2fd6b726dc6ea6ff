package outing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const requestColumns = `
    id, student_id, application_type, reason, status,
    start_date, end_date, gate_pass_at,
    permission_date, out_time, in_time,
    stay_date,
    otp_code, otp_resend_count, otp_last_resend_at, otp_attempts, otp_locked,
    warden_verified_by, warden_verified_at,
    warden_recommended, warden_recommend_comment, warden_recommend_by, warden_recommend_at,
    principal_approved, principal_comment, principal_by, principal_at,
    rejection_reason, rejected_by, rejected_at,
    qr_available_from, visit_count, outgoing_visit_count, incoming_visit_count, visit_locked,
    incoming_qr_generated, incoming_qr_generated_at, incoming_qr_expires_at,
    verification_status, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*OutingRequest, error) {
	var (
		req OutingRequest

		startDate, endDate, gatePassAt *time.Time
		permissionDate                 *time.Time
		outTime, inTime                *string
		stayDate                       *time.Time

		otpCode         *string
		otpResendCount  *int
		otpLastResendAt *time.Time
		otpAttempts     *int
		otpLocked       *bool

		wardenBy *string
		wardenAt *time.Time

		recValue   *bool
		recComment *string
		recBy      *string
		recAt      *time.Time

		decApproved *bool
		decComment  *string
		decBy       *string
		decAt       *time.Time

		rejReason *string
		rejBy     *string
		rejAt     *time.Time

		qrAvailableFrom       *time.Time
		visitCount            int
		outgoingCount         int
		incomingCount         int
		visitLocked           bool
		incomingQRGenerated   bool
		incomingQRGeneratedAt *time.Time
		incomingQRExpiresAt   *time.Time
	)

	err := row.Scan(
		&req.ID, &req.StudentID, &req.Type, &req.Reason, &req.Status,
		&startDate, &endDate, &gatePassAt,
		&permissionDate, &outTime, &inTime,
		&stayDate,
		&otpCode, &otpResendCount, &otpLastResendAt, &otpAttempts, &otpLocked,
		&wardenBy, &wardenAt,
		&recValue, &recComment, &recBy, &recAt,
		&decApproved, &decComment, &decBy, &decAt,
		&rejReason, &rejBy, &rejAt,
		&qrAvailableFrom, &visitCount, &outgoingCount, &incomingCount, &visitLocked,
		&incomingQRGenerated, &incomingQRGeneratedAt, &incomingQRExpiresAt,
		&req.VerificationStatus, &req.CompletedAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case TypeLeave:
		if startDate != nil && endDate != nil && gatePassAt != nil {
			req.Leave = &LeavePeriod{StartDate: *startDate, EndDate: *endDate, GatePassAt: *gatePassAt}
		}
	case TypePermission:
		if permissionDate != nil && outTime != nil && inTime != nil {
			req.Permission = &PermissionWindow{Date: *permissionDate, OutTime: *outTime, InTime: *inTime}
		}
	case TypeStayInHostel:
		if stayDate != nil {
			req.Stay = &StayDate{Date: *stayDate}
		}
	}

	if otpCode != nil {
		otp := OTPState{Code: *otpCode}
		if otpResendCount != nil {
			otp.ResendCount = *otpResendCount
		}
		if otpLastResendAt != nil {
			otp.LastResendAt = *otpLastResendAt
		}
		if otpAttempts != nil {
			otp.Attempts = *otpAttempts
		}
		if otpLocked != nil {
			otp.Locked = *otpLocked
		}
		req.OTP = &otp
	}
	if wardenBy != nil && wardenAt != nil {
		req.WardenVerification = &WardenVerification{By: *wardenBy, At: *wardenAt}
	}
	if recValue != nil && recBy != nil && recAt != nil {
		rec := WardenRecommendation{Recommended: *recValue, By: *recBy, At: *recAt}
		if recComment != nil {
			rec.Comment = *recComment
		}
		req.WardenRecommendation = &rec
	}
	if decApproved != nil && decBy != nil && decAt != nil {
		dec := PrincipalDecision{Approved: *decApproved, By: *decBy, At: *decAt}
		if decComment != nil {
			dec.Comment = *decComment
		}
		req.PrincipalDecision = &dec
	}
	if rejBy != nil && rejAt != nil {
		rej := Rejection{By: *rejBy, At: *rejAt}
		if rejReason != nil {
			rej.Reason = *rejReason
		}
		req.Rejection = &rej
	}
	if qrAvailableFrom != nil {
		req.GatePass = &GatePass{
			QRAvailableFrom:       *qrAvailableFrom,
			VisitCount:            visitCount,
			OutgoingVisitCount:    outgoingCount,
			IncomingVisitCount:    incomingCount,
			VisitLocked:           visitLocked,
			IncomingQRGenerated:   incomingQRGenerated,
			IncomingQRGeneratedAt: incomingQRGeneratedAt,
			IncomingQRExpiresAt:   incomingQRExpiresAt,
		}
	}
	return &req, nil
}

func (s *Store) Insert(ctx context.Context, req *OutingRequest) error {
	var (
		startDate, endDate, gatePassAt *time.Time
		permissionDate                 *time.Time
		outTime, inTime                *string
		stayDate                       *time.Time
	)
	if req.Leave != nil {
		startDate, endDate, gatePassAt = &req.Leave.StartDate, &req.Leave.EndDate, &req.Leave.GatePassAt
	}
	if req.Permission != nil {
		permissionDate, outTime, inTime = &req.Permission.Date, &req.Permission.OutTime, &req.Permission.InTime
	}
	if req.Stay != nil {
		stayDate = &req.Stay.Date
	}

	var otpCode *string
	var otpResendCount, otpAttempts *int
	var otpLastResendAt *time.Time
	var otpLocked *bool
	if req.OTP != nil {
		otpCode = &req.OTP.Code
		otpResendCount = &req.OTP.ResendCount
		otpAttempts = &req.OTP.Attempts
		otpLocked = &req.OTP.Locked
		if !req.OTP.LastResendAt.IsZero() {
			otpLastResendAt = &req.OTP.LastResendAt
		}
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO outing_requests (
      id, student_id, application_type, reason, status,
      start_date, end_date, gate_pass_at,
      permission_date, out_time, in_time,
      stay_date,
      otp_code, otp_resend_count, otp_last_resend_at, otp_attempts, otp_locked,
      verification_status, created_at, updated_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
  `, req.ID, req.StudentID, req.Type, req.Reason, req.Status,
		startDate, endDate, gatePassAt,
		permissionDate, outTime, inTime,
		stayDate,
		otpCode, otpResendCount, otpLastResendAt, otpAttempts, otpLocked,
		req.VerificationStatus, req.CreatedAt, req.UpdatedAt)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*OutingRequest, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM outing_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	visits, err := s.listVisits(ctx, s.DB, req.ID)
	if err != nil {
		return nil, err
	}
	req.Visits = visits
	return req, nil
}

func (s *Store) ListByStudent(ctx context.Context, studentID string) ([]*OutingRequest, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM outing_requests
    WHERE student_id = $1
    ORDER BY created_at DESC
  `, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*OutingRequest, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM outing_requests
    WHERE status = ANY($1)
    ORDER BY created_at
  `, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func collectRequests(rows pgx.Rows) ([]*OutingRequest, error) {
	var out []*OutingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Store) CountCreatedBetween(ctx context.Context, studentID string, appType ApplicationType, from, to time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM outing_requests
    WHERE student_id = $1 AND application_type = $2 AND created_at BETWEEN $3 AND $4
  `, studentID, appType, from, to).Scan(&count)
	return count, err
}

func (s *Store) UpdateOTP(ctx context.Context, id string, otp OTPState) error {
	var lastResendAt *time.Time
	if !otp.LastResendAt.IsZero() {
		lastResendAt = &otp.LastResendAt
	}
	_, err := s.DB.Exec(ctx, `
    UPDATE outing_requests
    SET otp_resend_count = $1, otp_last_resend_at = $2, otp_attempts = $3, otp_locked = $4, updated_at = now()
    WHERE id = $5
  `, otp.ResendCount, lastResendAt, otp.Attempts, otp.Locked, id)
	return err
}

func (s *Store) SetWardenVerified(ctx context.Context, id string, v WardenVerification) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE outing_requests
    SET status = $1, warden_verified_by = $2, warden_verified_at = $3, updated_at = now()
    WHERE id = $4 AND status = $5
  `, StatusWardenVerified, v.By, v.At, id, StatusPendingOTPVerification)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetRejected(ctx context.Context, id string, from []Status, r Rejection) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE outing_requests
    SET status = $1, rejection_reason = $2, rejected_by = $3, rejected_at = $4, updated_at = now()
    WHERE id = $5 AND status = ANY($6)
  `, StatusRejected, r.Reason, r.By, r.At, id, statusStrings(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetPrincipalDecision(ctx context.Context, id string, from, to Status, d PrincipalDecision, gatePass *GatePass) (bool, error) {
	var qrAvailableFrom *time.Time
	if gatePass != nil {
		qrAvailableFrom = &gatePass.QRAvailableFrom
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE outing_requests
    SET status = $1,
        principal_approved = $2, principal_comment = $3, principal_by = $4, principal_at = $5,
        qr_available_from = COALESCE($6, qr_available_from),
        updated_at = now()
    WHERE id = $7 AND status = $8
  `, to, d.Approved, d.Comment, d.By, d.At, qrAvailableFrom, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) SetWardenRecommendation(ctx context.Context, id string, to Status, rec WardenRecommendation) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE outing_requests
    SET status = $1,
        warden_recommended = $2, warden_recommend_comment = $3, warden_recommend_by = $4, warden_recommend_at = $5,
        updated_at = now()
    WHERE id = $6 AND status = $7
  `, to, rec.Recommended, rec.Comment, rec.By, rec.At, id, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteIfStatusIn(ctx context.Context, id string, statuses []Status) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM outing_requests
    WHERE id = $1 AND status = ANY($2)
  `, id, statusStrings(statuses))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
