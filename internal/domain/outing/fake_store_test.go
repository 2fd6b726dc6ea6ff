package outing

import (
	"context"
	"sync"
	"time"
)

// fakeStore is an in-memory StoreAPI with the same guarded-update semantics
// as the SQL store.
type fakeStore struct {
	mu       sync.Mutex
	requests map[string]*OutingRequest
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: make(map[string]*OutingRequest)}
}

func cloneRequest(req *OutingRequest) *OutingRequest {
	clone := *req
	if req.Leave != nil {
		v := *req.Leave
		clone.Leave = &v
	}
	if req.Permission != nil {
		v := *req.Permission
		clone.Permission = &v
	}
	if req.Stay != nil {
		v := *req.Stay
		clone.Stay = &v
	}
	if req.OTP != nil {
		v := *req.OTP
		clone.OTP = &v
	}
	if req.WardenVerification != nil {
		v := *req.WardenVerification
		clone.WardenVerification = &v
	}
	if req.WardenRecommendation != nil {
		v := *req.WardenRecommendation
		clone.WardenRecommendation = &v
	}
	if req.PrincipalDecision != nil {
		v := *req.PrincipalDecision
		clone.PrincipalDecision = &v
	}
	if req.Rejection != nil {
		v := *req.Rejection
		clone.Rejection = &v
	}
	if req.GatePass != nil {
		v := *req.GatePass
		if req.GatePass.IncomingQRGeneratedAt != nil {
			at := *req.GatePass.IncomingQRGeneratedAt
			v.IncomingQRGeneratedAt = &at
		}
		if req.GatePass.IncomingQRExpiresAt != nil {
			at := *req.GatePass.IncomingQRExpiresAt
			v.IncomingQRExpiresAt = &at
		}
		clone.GatePass = &v
	}
	if req.CompletedAt != nil {
		at := *req.CompletedAt
		clone.CompletedAt = &at
	}
	clone.Visits = append([]Visit(nil), req.Visits...)
	return &clone
}

func (f *fakeStore) Insert(_ context.Context, req *OutingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[req.ID] = cloneRequest(req)
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*OutingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(req), nil
}

func (f *fakeStore) ListByStudent(_ context.Context, studentID string) ([]*OutingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*OutingRequest
	for _, req := range f.requests {
		if req.StudentID == studentID {
			out = append(out, cloneRequest(req))
		}
	}
	return out, nil
}

func (f *fakeStore) ListByStatus(_ context.Context, statuses ...Status) ([]*OutingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*OutingRequest
	for _, req := range f.requests {
		for _, status := range statuses {
			if req.Status == status {
				out = append(out, cloneRequest(req))
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CountCreatedBetween(_ context.Context, studentID string, appType ApplicationType, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, req := range f.requests {
		if req.StudentID == studentID && req.Type == appType &&
			!req.CreatedAt.Before(from) && !req.CreatedAt.After(to) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) UpdateOTP(_ context.Context, id string, otp OTPState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return ErrNotFound
	}
	v := otp
	req.OTP = &v
	return nil
}

func (f *fakeStore) SetWardenVerified(_ context.Context, id string, v WardenVerification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != StatusPendingOTPVerification {
		return false, nil
	}
	req.Status = StatusWardenVerified
	verification := v
	req.WardenVerification = &verification
	return true, nil
}

func (f *fakeStore) SetRejected(_ context.Context, id string, from []Status, r Rejection) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || !statusIn(req.Status, from) {
		return false, nil
	}
	req.Status = StatusRejected
	rejection := r
	req.Rejection = &rejection
	return true, nil
}

func (f *fakeStore) SetPrincipalDecision(_ context.Context, id string, from, to Status, d PrincipalDecision, gatePass *GatePass) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	decision := d
	req.PrincipalDecision = &decision
	if gatePass != nil {
		gp := *gatePass
		req.GatePass = &gp
	}
	return true, nil
}

func (f *fakeStore) SetWardenRecommendation(_ context.Context, id string, to Status, rec WardenRecommendation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != StatusPending {
		return false, nil
	}
	req.Status = to
	recommendation := rec
	req.WardenRecommendation = &recommendation
	return true, nil
}

func (f *fakeStore) DeleteIfStatusIn(_ context.Context, id string, statuses []Status) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || !statusIn(req.Status, statuses) {
		return false, nil
	}
	delete(f.requests, id)
	return true, nil
}

func (f *fakeStore) MutateGatePass(_ context.Context, id string, fn GatePassMutator) (*OutingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	change, err := fn(cloneRequest(req))
	if err != nil {
		return nil, err
	}
	gp := change.GatePass
	req.GatePass = &gp
	req.Visits = append(req.Visits, change.Visit)
	req.VerificationStatus = change.VerificationStatus
	if change.CompletedAt != nil {
		req.CompletedAt = change.CompletedAt
	}
	return cloneRequest(req), nil
}

func statusIn(status Status, list []Status) bool {
	for _, candidate := range list {
		if status == candidate {
			return true
		}
	}
	return false
}

type fakeDirectory struct {
	mu       sync.Mutex
	students map[string]StudentInfo
	denied   map[string]bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{students: make(map[string]StudentInfo), denied: make(map[string]bool)}
}

func (f *fakeDirectory) Student(_ context.Context, studentID string) (StudentInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	student, ok := f.students[studentID]
	if !ok {
		return StudentInfo{}, ErrNotFound
	}
	return student, nil
}

func (f *fakeDirectory) CanActOn(_ context.Context, actorUserID, _, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.denied[actorUserID], nil
}

type notifRecord struct {
	Target  string
	Type    string
	Message string
	Related string
}

type fakeNotifier struct {
	mu      sync.Mutex
	records []notifRecord
}

func (f *fakeNotifier) Notify(_ context.Context, userID, ntype, _, message, relatedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, notifRecord{Target: userID, Type: ntype, Message: message, Related: relatedID})
	return nil
}

func (f *fakeNotifier) NotifyRole(_ context.Context, role, ntype, _, message, relatedID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, notifRecord{Target: "role:" + role, Type: ntype, Message: message, Related: relatedID})
	return nil
}

func (f *fakeNotifier) find(target, ntype string) *notifRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].Target == target && f.records[i].Type == ntype {
			return &f.records[i]
		}
	}
	return nil
}

type smsRecord struct {
	Phone string
	Code  string
}

type fakeSMS struct {
	mu    sync.Mutex
	sends []smsRecord
}

func (f *fakeSMS) SendOTP(_ context.Context, phone, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, smsRecord{Phone: phone, Code: code})
	return nil
}
