package outing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hostel/internal/domain/auth"
)

// Notification types emitted by the engine.
const (
	NotifTypeSubmitted   = "outing_submitted"
	NotifTypeOTPVerified = "outing_otp_verified"
	NotifTypeApproved    = "outing_approved"
	NotifTypeRejected    = "outing_rejected"
	NotifTypeRecommended = "outing_recommended"
	NotifTypeExpired     = "outing_expired"
)

// preTerminalStatuses are the states a request can still be acted on or
// deleted from.
var preTerminalStatuses = []Status{
	StatusPending,
	StatusPendingOTPVerification,
	StatusWardenVerified,
	StatusPendingPrincipalApproval,
}

// awaitingActionStatuses are the states the expiry sweep considers: the
// request is waiting on a human and has not reached a terminal outcome.
var awaitingActionStatuses = []Status{
	StatusPending,
	StatusPendingOTPVerification,
	StatusWardenVerified,
}

type Service struct {
	Store     StoreAPI
	Directory Directory
	Notifier  Notifier
	SMS       OTPSender

	now func() time.Time
}

func NewService(store StoreAPI, directory Directory, notifier Notifier, sms OTPSender) *Service {
	return &Service{
		Store:     store,
		Directory: directory,
		Notifier:  notifier,
		SMS:       sms,
		now:       time.Now,
	}
}

// CreateLeave validates and files a multi-day leave request. Leave always
// starts in PendingOTPVerification: a code goes to the parent's phone and a
// warden must verify it before the principal sees the request.
func (s *Service) CreateLeave(ctx context.Context, studentID, reason string, fields LeaveFields) (*OutingRequest, error) {
	now := s.now()
	period, err := ValidateLeave(fields, reason, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkDailyLimit(ctx, studentID, TypeLeave, now); err != nil {
		return nil, err
	}
	student, err := s.Directory.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	req := s.newRequest(studentID, TypeLeave, reason, now)
	req.Leave = period
	req.Status = StatusPendingOTPVerification
	if err := s.attachOTP(req); err != nil {
		return nil, err
	}
	if err := s.Store.Insert(ctx, req); err != nil {
		return nil, err
	}

	s.deliverOTP(ctx, req, student)
	s.notifyRole(ctx, auth.RoleWarden, NotifTypeSubmitted, "Leave request submitted",
		fmt.Sprintf("%s submitted a leave request awaiting OTP verification", student.Name), req.ID)
	return req, nil
}

// CreatePermission files a same-day outing permission. When the parent has
// pre-authorized outings the OTP and warden steps are skipped and the
// request goes straight to the principal.
func (s *Service) CreatePermission(ctx context.Context, studentID, reason string, fields PermissionFields) (*OutingRequest, error) {
	now := s.now()
	window, err := ValidatePermission(fields, reason, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkDailyLimit(ctx, studentID, TypePermission, now); err != nil {
		return nil, err
	}
	student, err := s.Directory.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	req := s.newRequest(studentID, TypePermission, reason, now)
	req.Permission = window
	if student.ParentPermissionForOuting {
		req.Status = StatusPendingOTPVerification
		if err := s.attachOTP(req); err != nil {
			return nil, err
		}
	} else {
		req.Status = StatusPendingPrincipalApproval
	}
	if err := s.Store.Insert(ctx, req); err != nil {
		return nil, err
	}

	if req.OTP != nil {
		s.deliverOTP(ctx, req, student)
		s.notifyRole(ctx, auth.RoleWarden, NotifTypeSubmitted, "Permission request submitted",
			fmt.Sprintf("%s submitted a permission request awaiting OTP verification", student.Name), req.ID)
	} else {
		s.notifyRole(ctx, auth.RolePrincipal, NotifTypeSubmitted, "Permission request submitted",
			fmt.Sprintf("%s submitted a permission request awaiting approval", student.Name), req.ID)
	}
	return req, nil
}

// CreateStay files a stay-in-hostel request for today or tomorrow. No OTP;
// a warden recommendation gates the principal's decision.
func (s *Service) CreateStay(ctx context.Context, studentID, reason string, fields StayFields) (*OutingRequest, error) {
	now := s.now()
	stay, err := ValidateStay(fields, reason, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkDailyLimit(ctx, studentID, TypeStayInHostel, now); err != nil {
		return nil, err
	}
	student, err := s.Directory.Student(ctx, studentID)
	if err != nil {
		return nil, err
	}

	req := s.newRequest(studentID, TypeStayInHostel, reason, now)
	req.Stay = stay
	req.Status = StatusPending
	if err := s.Store.Insert(ctx, req); err != nil {
		return nil, err
	}

	s.notifyRole(ctx, auth.RoleWarden, NotifTypeSubmitted, "Stay-in-hostel request submitted",
		fmt.Sprintf("%s requested to stay in the hostel", student.Name), req.ID)
	return req, nil
}

// ResendOTP redelivers the existing code. Allowed once per five-minute
// cooldown window; the code itself never rotates.
func (s *Service) ResendOTP(ctx context.Context, requestID, studentID string) (int, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return 0, err
	}
	if req.StudentID != studentID {
		return 0, ErrForbidden
	}
	if req.Status != StatusPendingOTPVerification || req.OTP == nil {
		return 0, ErrStateConflict
	}

	now := s.now()
	if wait := req.OTP.resendWait(req.CreatedAt, now); wait > 0 {
		return 0, &RateLimitError{RetryAfter: wait}
	}
	req.OTP.recordResend(now)
	if err := s.Store.UpdateOTP(ctx, req.ID, *req.OTP); err != nil {
		return 0, err
	}

	student, err := s.Directory.Student(ctx, req.StudentID)
	if err == nil {
		s.deliverOTP(ctx, req, student)
	} else {
		slog.Warn("otp resend student lookup failed", "requestId", req.ID, "err", err)
	}
	return req.OTP.ResendCount, nil
}

// VerifyOTP records a warden's verification of the parent's code. A correct
// code advances the request to WardenVerified; a wrong one counts toward
// the attempt cap and changes nothing else.
func (s *Service) VerifyOTP(ctx context.Context, requestID string, actor auth.UserContext, code string) (*OutingRequest, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPendingOTPVerification || req.OTP == nil {
		return nil, ErrStateConflict
	}
	if err := s.authorize(ctx, actor, req.StudentID); err != nil {
		return nil, err
	}

	if err := req.OTP.check(code); err != nil {
		if updateErr := s.Store.UpdateOTP(ctx, req.ID, *req.OTP); updateErr != nil {
			slog.Warn("otp attempt update failed", "requestId", req.ID, "err", updateErr)
		}
		return nil, err
	}

	now := s.now()
	updated, err := s.Store.SetWardenVerified(ctx, req.ID, WardenVerification{By: actor.UserID, At: now})
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrStateConflict
	}

	s.notify(ctx, req.StudentID, NotifTypeOTPVerified, "OTP verified",
		"your request was verified by the warden and forwarded to the principal", req.ID)
	s.notifyRole(ctx, auth.RolePrincipal, NotifTypeSubmitted, "Request awaiting approval",
		"a verified request is awaiting your decision", req.ID)
	return s.Store.Get(ctx, req.ID)
}

// Reject lets a warden or admin refuse a request from any pre-terminal
// state.
func (s *Service) Reject(ctx context.Context, requestID string, actor auth.UserContext, reason string) (*OutingRequest, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, ErrStateConflict
	}
	if err := s.authorize(ctx, actor, req.StudentID); err != nil {
		return nil, err
	}

	rejection := Rejection{Reason: reason, By: actor.UserID, At: s.now()}
	updated, err := s.Store.SetRejected(ctx, req.ID, preTerminalStatuses, rejection)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrStateConflict
	}

	s.notify(ctx, req.StudentID, NotifTypeRejected, "Request rejected",
		rejectionMessage(reason), req.ID)
	return s.Store.Get(ctx, req.ID)
}

// PrincipalApprove issues the final approval on the leave/permission track
// and attaches the gate pass.
func (s *Service) PrincipalApprove(ctx context.Context, requestID string, actor auth.UserContext, comment string) (*OutingRequest, error) {
	return s.principalDecideOuting(ctx, requestID, actor, comment, true)
}

// PrincipalReject issues the final refusal on the leave/permission track.
func (s *Service) PrincipalReject(ctx context.Context, requestID string, actor auth.UserContext, comment string) (*OutingRequest, error) {
	return s.principalDecideOuting(ctx, requestID, actor, comment, false)
}

func (s *Service) principalDecideOuting(ctx context.Context, requestID string, actor auth.UserContext, comment string, approve bool) (*OutingRequest, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusWardenVerified && req.Status != StatusPendingPrincipalApproval {
		return nil, ErrStateConflict
	}
	if err := s.authorize(ctx, actor, req.StudentID); err != nil {
		return nil, err
	}

	decision := PrincipalDecision{Approved: approve, Comment: comment, By: actor.UserID, At: s.now()}
	to := StatusRejected
	var gatePass *GatePass
	if approve {
		to = StatusApproved
		gatePass = NewGatePass(req)
	}
	updated, err := s.Store.SetPrincipalDecision(ctx, req.ID, req.Status, to, decision, gatePass)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrStateConflict
	}

	if approve {
		s.notify(ctx, req.StudentID, NotifTypeApproved, "Request approved",
			"your request was approved; the gate pass will appear when its window opens", req.ID)
	} else {
		s.notify(ctx, req.StudentID, NotifTypeRejected, "Request rejected",
			rejectionMessage(comment), req.ID)
	}
	return s.Store.Get(ctx, req.ID)
}

// Recommend records the warden's recommendation on a stay-in-hostel
// request. A negative recommendation rejects the request outright without a
// principal step.
func (s *Service) Recommend(ctx context.Context, requestID string, actor auth.UserContext, recommended bool, comment string) (*OutingRequest, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Type != TypeStayInHostel || req.Status != StatusPending {
		return nil, ErrStateConflict
	}
	if err := s.authorize(ctx, actor, req.StudentID); err != nil {
		return nil, err
	}

	rec := WardenRecommendation{Recommended: recommended, Comment: comment, By: actor.UserID, At: s.now()}
	to := StatusRejected
	if recommended {
		to = StatusWardenRecommended
	}
	updated, err := s.Store.SetWardenRecommendation(ctx, req.ID, to, rec)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrStateConflict
	}

	if recommended {
		s.notify(ctx, req.StudentID, NotifTypeRecommended, "Request recommended",
			"the warden recommended your stay request to the principal", req.ID)
		s.notifyRole(ctx, auth.RolePrincipal, NotifTypeSubmitted, "Stay request awaiting decision",
			"a recommended stay-in-hostel request is awaiting your decision", req.ID)
	} else {
		s.notify(ctx, req.StudentID, NotifTypeRejected, "Request rejected",
			rejectionMessage(comment), req.ID)
	}
	return s.Store.Get(ctx, req.ID)
}

// Decide records the principal's decision on a recommended stay-in-hostel
// request.
func (s *Service) Decide(ctx context.Context, requestID string, actor auth.UserContext, approve bool, comment string) (*OutingRequest, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Type != TypeStayInHostel || req.Status != StatusWardenRecommended {
		return nil, ErrStateConflict
	}
	if err := s.authorize(ctx, actor, req.StudentID); err != nil {
		return nil, err
	}

	decision := PrincipalDecision{Approved: approve, Comment: comment, By: actor.UserID, At: s.now()}
	to := StatusPrincipalRejected
	if approve {
		to = StatusPrincipalApproved
	}
	updated, err := s.Store.SetPrincipalDecision(ctx, req.ID, StatusWardenRecommended, to, decision, nil)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrStateConflict
	}

	if approve {
		s.notify(ctx, req.StudentID, NotifTypeApproved, "Stay request approved",
			"your stay-in-hostel request was approved", req.ID)
	} else {
		s.notify(ctx, req.StudentID, NotifTypeRejected, "Stay request rejected",
			rejectionMessage(comment), req.ID)
	}
	return s.Store.Get(ctx, req.ID)
}

// Delete removes a student's own request. Terminal requests are immutable
// and can only disappear through the expiry sweep.
func (s *Service) Delete(ctx context.Context, requestID, studentID string) error {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.StudentID != studentID {
		return ErrForbidden
	}
	deleted, err := s.Store.DeleteIfStatusIn(ctx, req.ID, preTerminalStatuses)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrStateConflict
	}
	return nil
}

// Get returns a request to its owner or to a staff actor scoped to the
// student.
func (s *Service) Get(ctx context.Context, requestID string, actor auth.UserContext) (*OutingRequest, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.Role == auth.RoleStudent {
		if req.StudentID != actor.UserID {
			return nil, ErrForbidden
		}
		return req, nil
	}
	if err := s.authorize(ctx, actor, req.StudentID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) ListMine(ctx context.Context, studentID string) ([]*OutingRequest, error) {
	return s.Store.ListByStudent(ctx, studentID)
}

// WardenQueue lists requests waiting on a warden, filtered to the warden's
// scope.
func (s *Service) WardenQueue(ctx context.Context, actor auth.UserContext) ([]*OutingRequest, error) {
	requests, err := s.Store.ListByStatus(ctx, StatusPendingOTPVerification, StatusPending)
	if err != nil {
		return nil, err
	}
	return s.filterScoped(ctx, actor, requests)
}

// PrincipalQueue lists requests waiting on a principal, filtered to the
// principal's courses.
func (s *Service) PrincipalQueue(ctx context.Context, actor auth.UserContext) ([]*OutingRequest, error) {
	requests, err := s.Store.ListByStatus(ctx, StatusWardenVerified, StatusPendingPrincipalApproval, StatusWardenRecommended)
	if err != nil {
		return nil, err
	}
	return s.filterScoped(ctx, actor, requests)
}

// RequestQRView is the read-only availability check polled before
// rendering the code.
func (s *Service) RequestQRView(ctx context.Context, requestID, studentID string) (AvailabilitySnapshot, error) {
	req, err := s.Store.Get(ctx, requestID)
	if err != nil {
		return AvailabilitySnapshot{}, err
	}
	if req.StudentID != studentID {
		return AvailabilitySnapshot{}, ErrForbidden
	}
	return Availability(req, s.now()), nil
}

// RecordOutgoingVisit records a gate terminal's outgoing scan. The cap
// check and the append run under the store's per-request lock so two
// near-simultaneous scanners cannot both pass the check.
func (s *Service) RecordOutgoingVisit(ctx context.Context, requestID, scannerID, location string) (*OutingRequest, error) {
	now := s.now()
	return s.Store.MutateGatePass(ctx, requestID, func(req *OutingRequest) (*GatePassChange, error) {
		return applyOutgoingScan(req, scannerID, location, now)
	})
}

// RecordIncomingVisit records the student's return scan against the
// auto-generated incoming credential.
func (s *Service) RecordIncomingVisit(ctx context.Context, requestID, scannerID, location string) (*OutingRequest, error) {
	now := s.now()
	return s.Store.MutateGatePass(ctx, requestID, func(req *OutingRequest) (*GatePassChange, error) {
		return applyIncomingScan(req, scannerID, location, now)
	})
}

func (s *Service) newRequest(studentID string, appType ApplicationType, reason string, now time.Time) *OutingRequest {
	return &OutingRequest{
		ID:                 uuid.NewString(),
		StudentID:          studentID,
		Type:               appType,
		Reason:             reason,
		VerificationStatus: VerificationNotVerified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *Service) checkDailyLimit(ctx context.Context, studentID string, appType ApplicationType, now time.Time) error {
	from := StartOfToday(now)
	to := EndOfDay(now)
	count, err := s.Store.CountCreatedBetween(ctx, studentID, appType, from, to)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DailyLimitError{Type: appType}
	}
	return nil
}

func (s *Service) attachOTP(req *OutingRequest) error {
	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	req.OTP = &OTPState{Code: code}
	return nil
}

// deliverOTP is fire-and-forget: SMS failure is logged and never rolls back
// the persisted code.
func (s *Service) deliverOTP(ctx context.Context, req *OutingRequest, student StudentInfo) {
	if s.SMS == nil || req.OTP == nil {
		return
	}
	if student.ParentPhone == "" {
		slog.Warn("otp delivery skipped, no parent phone", "requestId", req.ID)
		return
	}
	if err := s.SMS.SendOTP(ctx, student.ParentPhone, req.OTP.Code); err != nil {
		slog.Warn("otp sms delivery failed", "requestId", req.ID, "err", err)
	}
}

func (s *Service) authorize(ctx context.Context, actor auth.UserContext, studentID string) error {
	allowed, err := s.Directory.CanActOn(ctx, actor.UserID, actor.Role, studentID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (s *Service) filterScoped(ctx context.Context, actor auth.UserContext, requests []*OutingRequest) ([]*OutingRequest, error) {
	scoped := make([]*OutingRequest, 0, len(requests))
	for _, req := range requests {
		allowed, err := s.Directory.CanActOn(ctx, actor.UserID, actor.Role, req.StudentID)
		if err != nil {
			return nil, err
		}
		if allowed {
			scoped = append(scoped, req)
		}
	}
	return scoped, nil
}

func (s *Service) notify(ctx context.Context, userID, ntype, title, message, relatedID string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, userID, ntype, title, message, relatedID); err != nil {
		slog.Warn("notification dispatch failed", "userId", userID, "type", ntype, "err", err)
	}
}

func (s *Service) notifyRole(ctx context.Context, role, ntype, title, message, relatedID string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.NotifyRole(ctx, role, ntype, title, message, relatedID); err != nil {
		slog.Warn("role notification dispatch failed", "role", role, "type", ntype, "err", err)
	}
}

func rejectionMessage(reason string) string {
	if reason == "" {
		return "your request was rejected"
	}
	return "your request was rejected: " + reason
}
