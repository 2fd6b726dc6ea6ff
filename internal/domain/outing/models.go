package outing

import "time"

type ApplicationType string

const (
	TypeLeave        ApplicationType = "leave"
	TypePermission   ApplicationType = "permission"
	TypeStayInHostel ApplicationType = "stay_in_hostel"
)

type Status string

const (
	StatusPending                  Status = "pending"
	StatusPendingOTPVerification   Status = "pending_otp_verification"
	StatusWardenVerified           Status = "warden_verified"
	StatusPendingPrincipalApproval Status = "pending_principal_approval"
	StatusApproved                 Status = "approved"
	StatusRejected                 Status = "rejected"
	StatusWardenRecommended        Status = "warden_recommended"
	StatusPrincipalApproved        Status = "principal_approved"
	StatusPrincipalRejected        Status = "principal_rejected"
)

// Terminal reports whether s admits no further transitions. Terminal
// requests are immutable except for deletion by the expiry sweep.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusPrincipalApproved, StatusPrincipalRejected:
		return true
	}
	return false
}

type VerificationStatus string

const (
	VerificationNotVerified VerificationStatus = "not_verified"
	VerificationVerified    VerificationStatus = "verified"
	VerificationExpired     VerificationStatus = "expired"
	VerificationCompleted   VerificationStatus = "completed"
)

// LeavePeriod is the field group populated for multi-day leave requests.
type LeavePeriod struct {
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	GatePassAt time.Time `json:"gatePassDateTime"`
}

// PermissionWindow is the field group for single-day outing permissions.
// OutTime and InTime are 24-hour HH:MM strings.
type PermissionWindow struct {
	Date    time.Time `json:"permissionDate"`
	OutTime string    `json:"outTime"`
	InTime  string    `json:"inTime"`
}

// StayDate is the field group for same-day stay-in-hostel requests.
type StayDate struct {
	Date time.Time `json:"stayDate"`
}

type OTPState struct {
	Code         string    `json:"-"`
	ResendCount  int       `json:"resendCount"`
	LastResendAt time.Time `json:"lastResendAt"`
	Attempts     int       `json:"-"`
	Locked       bool      `json:"-"`
}

type WardenVerification struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

type WardenRecommendation struct {
	Recommended bool      `json:"recommended"`
	Comment     string    `json:"comment,omitempty"`
	By          string    `json:"by"`
	At          time.Time `json:"at"`
}

type PrincipalDecision struct {
	Approved bool      `json:"approved"`
	Comment  string    `json:"comment,omitempty"`
	By       string    `json:"by"`
	At       time.Time `json:"at"`
}

type Rejection struct {
	Reason string    `json:"reason,omitempty"`
	By     string    `json:"by"`
	At     time.Time `json:"at"`
}

// MaxVisits is the lifetime scan cap per gate pass: one outgoing and one
// incoming scan.
const MaxVisits = 2

type VisitType string

const (
	VisitOutgoing VisitType = "outgoing"
	VisitIncoming VisitType = "incoming"
)

// Visit is a single recorded scan. Visits are append-only and owned
// exclusively by their request.
type Visit struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	Type      VisitType `json:"type"`
	ScannedBy string    `json:"scannedBy"`
	Location  string    `json:"location"`
	ScannedAt time.Time `json:"scannedAt"`
}

// GatePass is the scannable-credential state attached to an approved leave
// or permission request.
type GatePass struct {
	QRAvailableFrom       time.Time  `json:"qrAvailableFrom"`
	VisitCount            int        `json:"visitCount"`
	OutgoingVisitCount    int        `json:"outgoingVisitCount"`
	IncomingVisitCount    int        `json:"incomingVisitCount"`
	VisitLocked           bool       `json:"visitLocked"`
	IncomingQRGenerated   bool       `json:"incomingQrGenerated"`
	IncomingQRGeneratedAt *time.Time `json:"incomingQrGeneratedAt,omitempty"`
	IncomingQRExpiresAt   *time.Time `json:"incomingQrExpiresAt,omitempty"`
}

// OutingRequest is the aggregate root. Exactly one of Leave, Permission and
// Stay is populated, matching Type; the typed Create inputs enforce this at
// the service boundary and the validator re-checks it on load.
type OutingRequest struct {
	ID        string          `json:"id"`
	StudentID string          `json:"studentId"`
	Type      ApplicationType `json:"applicationType"`
	Reason    string          `json:"reason"`
	Status    Status          `json:"status"`

	Leave      *LeavePeriod      `json:"leave,omitempty"`
	Permission *PermissionWindow `json:"permission,omitempty"`
	Stay       *StayDate         `json:"stay,omitempty"`

	OTP                  *OTPState             `json:"otp,omitempty"`
	WardenVerification   *WardenVerification   `json:"wardenVerification,omitempty"`
	WardenRecommendation *WardenRecommendation `json:"wardenRecommendation,omitempty"`
	PrincipalDecision    *PrincipalDecision    `json:"principalDecision,omitempty"`
	Rejection            *Rejection            `json:"rejection,omitempty"`

	GatePass *GatePass `json:"gatePass,omitempty"`
	Visits   []Visit   `json:"visits,omitempty"`

	VerificationStatus VerificationStatus `json:"verificationStatus"`
	CompletedAt        *time.Time         `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RelevantDate returns the calendar date the expiry sweep compares against
// today: the last day the request could still matter to an approver.
func (r *OutingRequest) RelevantDate() time.Time {
	switch r.Type {
	case TypeLeave:
		if r.Leave != nil {
			return r.Leave.EndDate
		}
	case TypePermission:
		if r.Permission != nil {
			return r.Permission.Date
		}
	case TypeStayInHostel:
		if r.Stay != nil {
			return r.Stay.Date
		}
	}
	return time.Time{}
}

// PeriodEnd returns the last instant the gate pass is scannable.
func (r *OutingRequest) PeriodEnd() time.Time {
	switch r.Type {
	case TypeLeave:
		if r.Leave != nil {
			return EndOfDay(r.Leave.EndDate)
		}
	case TypePermission:
		if r.Permission != nil {
			return EndOfDay(r.Permission.Date)
		}
	}
	return time.Time{}
}

// HasGatePass reports whether this application type carries a scannable
// credential at all. Stay-in-hostel requests never leave the premises.
func (r *OutingRequest) HasGatePass() bool {
	return r.Type == TypeLeave || r.Type == TypePermission
}
