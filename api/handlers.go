/*
handlers.go - HTTP API handlers for the leave management service

PURPOSE:
  Exposes leave.Service via REST. Handles HTTP request/response and JSON
  serialization, and delegates every rule to the domain layer.

ENDPOINTS:
  Auth:
    POST   /auth/register             Create account, returns token
    POST   /auth/login                Exchange credentials for token
    GET    /auth/me                   Caller summary incl. leave balance

  Leave types:
    GET    /leavetypes                List catalog (public)
    POST   /leavetypes                Create category (admin)

  Leaves:
    POST   /leaves                    Submit request (employee)
    GET    /leaves/my                 Caller's requests, type embedded
    GET    /leaves                    Filtered listing (admin), user+type embedded
    PUT    /leaves/{id}/decision      Approve or reject (admin)
    GET    /leaves/report             Monthly report (admin), JSON or XLSX

  Notifications:
    GET    /notifications             Caller's outbox, newest first
    PUT    /notifications/{id}/read   Mark one read (owner only)

REQUEST FLOW:
  1. Parse HTTP request
  2. Call leave.Service
  3. Serialize response
  4. Map errors through errors.go

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: Error to status mapping
  - report.go: Report endpoint and XLSX export
*/
package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/leave-manager/auth"
	"github.com/warp/leave-manager/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Tokens  *auth.Tokens

	logger *log.Logger
}

// NewHandler creates a handler. A nil logger means log.Default().
func NewHandler(svc *leave.Service, tokens *auth.Tokens, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{Service: svc, Tokens: tokens, logger: logger}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates an account and returns a token.
// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.fail(w, r, leave.ErrMissingFields)
		return
	}

	role := leave.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role == "" {
		role = leave.RoleEmployee
	}
	if !role.Valid() {
		h.fail(w, r, leave.ErrInvalidRole)
		return
	}
	if role == leave.RoleEmployee {
		if err := auth.ValidatePasswordStrength(req.Password); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Service.Register(r.Context(), leave.Registration{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login exchanges email and password for a token.
// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.fail(w, r, leave.ErrMissingFields)
		return
	}

	user, err := h.Service.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if leave.IsNotFound(err) {
			err = auth.ErrInvalidCredentials
		}
		h.fail(w, r, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *leave.User) {
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, User: toUserDTO(user)})
}

// Me returns the caller with their leave balance.
// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	balance, err := h.Service.Balance(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dto := toUserDTO(user)
	dto.LeaveBalance = balance
	writeJSON(w, http.StatusOK, MeResponse{User: dto})
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

// ListLeaveTypes returns the catalog.
// GET /leavetypes
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.LeaveTypes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dtos := make([]LeaveTypeDTO, len(types))
	for i := range types {
		dtos[i] = toLeaveTypeDTO(&types[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLeaveType adds a category.
// POST /leavetypes
func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	days := 0
	if req.DefaultDaysPerYear != nil {
		days = *req.DefaultDaysPerYear
	}

	t, err := h.Service.CreateLeaveType(r.Context(), req.Name, days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveTypeDTO(t))
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// SubmitLeave records a PENDING request for the caller.
// POST /leaves
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	created, err := h.Service.Submit(r.Context(), leave.Submission{
		UserID:    CurrentUser(r.Context()).ID,
		TypeID:    req.TypeID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(created))
}

// MyLeaves lists the caller's requests with the leave type embedded.
// GET /leaves/my
func (h *Handler) MyLeaves(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.MyRequests(r.Context(), CurrentUser(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.newPopulator(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dtos := make([]RequestDTO, len(reqs))
	for i := range reqs {
		dtos[i] = toRequestDTO(&reqs[i])
		dtos[i].Type = p.leaveType(reqs[i].TypeID)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListLeaves lists requests across users, filtered by typeId, status and
// userId query parameters.
// GET /leaves
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := leave.RequestFilter{
		TypeID: strings.TrimSpace(q.Get("typeId")),
		UserID: strings.TrimSpace(q.Get("userId")),
		Status: leave.Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
	}

	reqs, err := h.Service.Requests(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.newPopulator(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dtos := make([]RequestDTO, len(reqs))
	for i := range reqs {
		dtos[i] = toRequestDTO(&reqs[i])
		dtos[i].Type = p.leaveType(reqs[i].TypeID)
		if dtos[i].User, err = p.user(r, reqs[i].UserID); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DecideLeave approves or rejects a PENDING request.
// PUT /leaves/{id}/decision
func (h *Handler) DecideLeave(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	updated, err := h.Service.Decide(r.Context(), leave.DecisionInput{
		RequestID: chi.URLParam(r, "id"),
		AdminID:   CurrentUser(r.Context()).ID,
		Decision:  leave.Status(strings.ToUpper(strings.TrimSpace(req.Decision))),
		Comment:   req.Comment,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.newPopulator(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dto := toRequestDTO(updated)
	dto.Type = p.leaveType(updated.TypeID)
	writeJSON(w, http.StatusOK, dto)
}

// populator resolves embedded types and users for listings. Users are
// cached per response.
type populator struct {
	h     *Handler
	types map[string]*LeaveTypeDTO
	users map[string]*UserRefDTO
}

func (h *Handler) newPopulator(r *http.Request) (*populator, error) {
	types, err := h.Service.LeaveTypes(r.Context())
	if err != nil {
		return nil, err
	}

	p := &populator{
		h:     h,
		types: make(map[string]*LeaveTypeDTO, len(types)),
		users: make(map[string]*UserRefDTO),
	}
	for i := range types {
		dto := toLeaveTypeDTO(&types[i])
		p.types[types[i].ID] = &dto
	}
	return p, nil
}

func (p *populator) leaveType(id string) *LeaveTypeDTO {
	return p.types[id]
}

// user returns nil for users that no longer exist.
func (p *populator) user(r *http.Request, id string) (*UserRefDTO, error) {
	if ref, ok := p.users[id]; ok {
		return ref, nil
	}

	u, err := p.h.Service.User(r.Context(), id)
	if err != nil {
		if leave.IsNotFound(err) {
			p.users[id] = nil
			return nil, nil
		}
		return nil, err
	}
	ref := &UserRefDTO{ID: u.ID, Name: u.Name, Email: u.Email}
	p.users[id] = ref
	return ref, nil
}

// =============================================================================
// NOTIFICATION HANDLERS
// =============================================================================

// ListNotifications returns the caller's notifications, newest first.
// GET /notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.Service.Notifications(r.Context(), CurrentUser(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dtos := make([]NotificationDTO, len(ns))
	for i := range ns {
		dtos[i] = toNotificationDTO(&ns[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkNotificationRead marks one of the caller's notifications read.
// PUT /notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.MarkNotificationRead(r.Context(), CurrentUser(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationDTO(n))
}
