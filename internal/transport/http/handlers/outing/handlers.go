package outinghandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hostel/internal/domain/auth"
	"hostel/internal/domain/outing"
	"hostel/internal/platform/jobs"
	"hostel/internal/transport/http/api"
	"hostel/internal/transport/http/middleware"
	"hostel/internal/transport/http/shared"
)

type Handler struct {
	Service *outing.Service
	Jobs    *jobs.Service
}

func NewHandler(service *outing.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/outing", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RoleStudent)).Post("/requests", h.handleCreate)
		r.With(middleware.RequireRole(auth.RoleStudent)).Get("/requests", h.handleListMine)
		r.With(middleware.RequireAuth).Get("/requests/{requestID}", h.handleGet)
		r.With(middleware.RequireRole(auth.RoleStudent)).Delete("/requests/{requestID}", h.handleDelete)

		r.With(middleware.RequireRole(auth.RoleStudent)).Post("/requests/{requestID}/otp/resend", h.handleResendOTP)
		r.With(middleware.RequireRole(auth.RoleWarden, auth.RoleAdmin)).Post("/requests/{requestID}/otp/verify", h.handleVerifyOTP)

		r.With(middleware.RequireRole(auth.RoleWarden, auth.RoleAdmin)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequireRole(auth.RolePrincipal)).Post("/requests/{requestID}/principal/approve", h.handlePrincipalApprove)
		r.With(middleware.RequireRole(auth.RolePrincipal)).Post("/requests/{requestID}/principal/reject", h.handlePrincipalReject)
		r.With(middleware.RequireRole(auth.RoleWarden)).Post("/requests/{requestID}/recommend", h.handleRecommend)
		r.With(middleware.RequireRole(auth.RolePrincipal)).Post("/requests/{requestID}/decision", h.handleDecision)

		r.With(middleware.RequireRole(auth.RoleStudent)).Get("/requests/{requestID}/gatepass", h.handleGatePass)
		r.With(middleware.RequireRole(auth.RoleStudent)).Get("/requests/{requestID}/gatepass/qr.png", h.handleGatePassQR)
		r.With(middleware.RequireRole(auth.RoleStudent)).Get("/requests/{requestID}/gatepass/pdf", h.handleGatePassPDF)

		r.With(middleware.RequireRole(auth.RoleSecurity, auth.RoleAdmin)).Post("/scan/outgoing", h.handleScanOutgoing)
		r.With(middleware.RequireRole(auth.RoleSecurity, auth.RoleAdmin)).Post("/scan/incoming", h.handleScanIncoming)

		r.With(middleware.RequireRole(auth.RoleWarden, auth.RoleAdmin)).Get("/queue/warden", h.handleWardenQueue)
		r.With(middleware.RequireRole(auth.RolePrincipal)).Get("/queue/principal", h.handlePrincipalQueue)

		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/expiry/run", h.handleRunExpiry)
	})
}

type createPayload struct {
	ApplicationType  string `json:"applicationType"`
	Reason           string `json:"reason"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	GatePassDateTime string `json:"gatePassDateTime"`
	PermissionDate   string `json:"permissionDate"`
	OutTime          string `json:"outTime"`
	InTime           string `json:"inTime"`
	StayDate         string `json:"stayDate"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	var (
		req *outing.OutingRequest
		err error
	)
	switch outing.ApplicationType(payload.ApplicationType) {
	case outing.TypeLeave:
		var fields outing.LeaveFields
		fields.StartDate, err = shared.ParseDateIn(payload.StartDate, outing.IST)
		if err == nil {
			fields.EndDate, err = shared.ParseDateIn(payload.EndDate, outing.IST)
		}
		if err == nil {
			fields.GatePassAt, err = shared.ParseDateTimeIn(payload.GatePassDateTime, outing.IST)
		}
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date in request payload", middleware.GetRequestID(r.Context()))
			return
		}
		req, err = h.Service.CreateLeave(r.Context(), user.UserID, payload.Reason, fields)
	case outing.TypePermission:
		var fields outing.PermissionFields
		fields.Date, err = shared.ParseDateIn(payload.PermissionDate, outing.IST)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date in request payload", middleware.GetRequestID(r.Context()))
			return
		}
		fields.OutTime = payload.OutTime
		fields.InTime = payload.InTime
		req, err = h.Service.CreatePermission(r.Context(), user.UserID, payload.Reason, fields)
	case outing.TypeStayInHostel:
		var fields outing.StayFields
		fields.Date, err = shared.ParseDateIn(payload.StayDate, outing.IST)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date in request payload", middleware.GetRequestID(r.Context()))
			return
		}
		req, err = h.Service.CreateStay(r.Context(), user.UserID, payload.Reason, fields)
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "applicationType must be leave, permission or stay_in_hostel", middleware.GetRequestID(r.Context()))
		return
	}

	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.ListMine(r.Context(), user.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "requestID"), user.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	resendCount, err := h.Service.ResendOTP(r.Context(), chi.URLParam(r, "requestID"), user.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, map[string]int{"resendCount": resendCount}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	req, err := h.Service.VerifyOTP(r.Context(), chi.URLParam(r, "requestID"), user, payload.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	req, err := h.Service.Reject(r.Context(), chi.URLParam(r, "requestID"), user, payload.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePrincipalApprove(w http.ResponseWriter, r *http.Request) {
	h.principalDecision(w, r, true)
}

func (h *Handler) handlePrincipalReject(w http.ResponseWriter, r *http.Request) {
	h.principalDecision(w, r, false)
}

func (h *Handler) principalDecision(w http.ResponseWriter, r *http.Request, approve bool) {
	user, _ := middleware.GetUser(r.Context())
	payload := struct {
		Comment string `json:"comment"`
	}{}
	// Comment body is optional on approval.
	_ = json.NewDecoder(r.Body).Decode(&payload)

	var (
		req *outing.OutingRequest
		err error
	)
	if approve {
		req, err = h.Service.PrincipalApprove(r.Context(), chi.URLParam(r, "requestID"), user, payload.Comment)
	} else {
		req, err = h.Service.PrincipalReject(r.Context(), chi.URLParam(r, "requestID"), user, payload.Comment)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Recommended *bool  `json:"recommended"`
		Comment     string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Recommended == nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "recommended flag is required", middleware.GetRequestID(r.Context()))
		return
	}
	req, err := h.Service.Recommend(r.Context(), chi.URLParam(r, "requestID"), user, *payload.Recommended, payload.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload struct {
		Approve *bool  `json:"approve"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Approve == nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "approve flag is required", middleware.GetRequestID(r.Context()))
		return
	}
	req, err := h.Service.Decide(r.Context(), chi.URLParam(r, "requestID"), user, *payload.Approve, payload.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGatePass(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	snapshot, err := h.Service.RequestQRView(r.Context(), chi.URLParam(r, "requestID"), user.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGatePassQR(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	payload, err := outing.CurrentQRPayload(req, time.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	png, err := outing.QRPNG(payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

func (h *Handler) handleGatePassPDF(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	student, err := h.Service.Directory.Student(r.Context(), req.StudentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pdf, err := outing.GatePassPDF(req, student, time.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=gate-pass-"+req.ID+".pdf")
	_, _ = w.Write(pdf)
}

type scanPayload struct {
	RequestID string `json:"requestId"`
	Location  string `json:"location"`
}

func (h *Handler) handleScanOutgoing(w http.ResponseWriter, r *http.Request) {
	h.handleScan(w, r, h.Service.RecordOutgoingVisit)
}

func (h *Handler) handleScanIncoming(w http.ResponseWriter, r *http.Request) {
	h.handleScan(w, r, h.Service.RecordIncomingVisit)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request, record func(ctx context.Context, requestID, scannerID, location string) (*outing.OutingRequest, error)) {
	user, _ := middleware.GetUser(r.Context())
	var payload scanPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RequestID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "requestId is required", middleware.GetRequestID(r.Context()))
		return
	}
	req, err := record(r.Context(), payload.RequestID, user.UserID, payload.Location)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleWardenQueue(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.WardenQueue(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePrincipalQueue(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requests, err := h.Service.PrincipalQueue(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunExpiry(w http.ResponseWriter, r *http.Request) {
	details, err := h.Jobs.RunExpiryNow(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var validationErr *outing.ValidationError
	if errors.As(err, &validationErr) {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
			map[string]any{"fields": validationErr.Issues}, requestID)
		return
	}
	var dailyErr *outing.DailyLimitError
	if errors.As(err, &dailyErr) {
		api.Fail(w, http.StatusConflict, "daily_limit", dailyErr.Error(), requestID)
		return
	}
	var rateErr *outing.RateLimitError
	if errors.As(err, &rateErr) {
		w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())+1))
		api.Fail(w, http.StatusTooManyRequests, "otp_cooldown", rateErr.Error(), requestID)
		return
	}

	switch {
	case errors.Is(err, outing.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", requestID)
	case errors.Is(err, outing.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, outing.ErrStateConflict):
		api.Fail(w, http.StatusConflict, "state_conflict", err.Error(), requestID)
	case errors.Is(err, outing.ErrInvalidOTP):
		api.Fail(w, http.StatusBadRequest, "invalid_otp", err.Error(), requestID)
	case errors.Is(err, outing.ErrOTPLocked):
		api.Fail(w, http.StatusLocked, "otp_locked", err.Error(), requestID)
	case errors.Is(err, outing.ErrNotAvailable):
		api.Fail(w, http.StatusConflict, "not_available", err.Error(), requestID)
	case errors.Is(err, outing.ErrDuplicateScan):
		api.Fail(w, http.StatusConflict, "duplicate_scan", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", requestID)
	}
}
