package outing

import (
	"context"
	"time"
)

// GatePassChange is the mutation a scan decision produces: the visit to
// append plus the recomputed gate-pass counters.
type GatePassChange struct {
	Visit              Visit
	GatePass           GatePass
	VerificationStatus VerificationStatus
	CompletedAt        *time.Time
}

// GatePassMutator inspects a freshly locked request and either returns the
// change to apply or an error that aborts the mutation.
type GatePassMutator func(req *OutingRequest) (*GatePassChange, error)

// StoreAPI is the persistence contract for outing requests. Transition
// methods are status-guarded: they return false without error when the
// request was not in the expected source state, which callers surface as a
// state conflict.
type StoreAPI interface {
	Insert(ctx context.Context, req *OutingRequest) error
	Get(ctx context.Context, id string) (*OutingRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]*OutingRequest, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*OutingRequest, error)
	CountCreatedBetween(ctx context.Context, studentID string, appType ApplicationType, from, to time.Time) (int, error)

	UpdateOTP(ctx context.Context, id string, otp OTPState) error
	SetWardenVerified(ctx context.Context, id string, v WardenVerification) (bool, error)
	SetRejected(ctx context.Context, id string, from []Status, r Rejection) (bool, error)
	SetPrincipalDecision(ctx context.Context, id string, from, to Status, d PrincipalDecision, gatePass *GatePass) (bool, error)
	SetWardenRecommendation(ctx context.Context, id string, to Status, rec WardenRecommendation) (bool, error)
	DeleteIfStatusIn(ctx context.Context, id string, statuses []Status) (bool, error)

	// MutateGatePass runs fn against the request while it is exclusively
	// locked, so the scan-cap check and the visit append are atomic with
	// respect to concurrent scanners. It returns the request as persisted
	// after the change.
	MutateGatePass(ctx context.Context, id string, fn GatePassMutator) (*OutingRequest, error)
}

// StudentInfo is what the engine needs to know about a student from the
// directory collaborator.
type StudentInfo struct {
	UserID                    string
	Name                      string
	Course                    string
	Branch                    string
	Gender                    string
	ParentPhone               string
	ParentPermissionForOuting bool
}

// Directory resolves students and actor scope. Wardens and principals may
// only act on students inside their course/branch scope.
type Directory interface {
	Student(ctx context.Context, studentID string) (StudentInfo, error)
	CanActOn(ctx context.Context, actorUserID, role, studentID string) (bool, error)
}

// Notifier delivers best-effort notifications. Failures are logged at the
// call site and never change the outcome of the primary operation.
type Notifier interface {
	Notify(ctx context.Context, userID, ntype, title, message, relatedID string) error
	NotifyRole(ctx context.Context, role, ntype, title, message, relatedID string) error
}

// OTPSender delivers the verification code to a parent's phone. Delivery is
// best-effort: a failed send never rolls back code generation.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}
