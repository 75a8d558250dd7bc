package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/warp/leave-manager/auth"
	"github.com/warp/leave-manager/leave"
)

// =============================================================================
// ERROR MAPPING
// =============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Msg string `json:"msg"`
}

const (
	msgServerError   = "Server error"
	msgInvalidBody   = "Invalid request body"
	msgNoToken       = "No token, authorization denied"
	msgInvalidToken  = "Token is not valid"
	msgUserNotFound  = "User not found"
	msgNotAuthed     = "Not authenticated"
	msgAdminResource = "Admin resource"
	msgEmployeeOnly  = "Employee resource"
	msgWeakPassword  = "Password must be at least 8 characters and include uppercase, lowercase, and a special character."
	msgLongPassword  = "Password must be at most 72 bytes"
	msgInvalidFormat = "Invalid format"
)

type errorMapping struct {
	target error
	status int
	msg    string
}

// First match wins.
var errorMappings = []errorMapping{
	{leave.ErrMissingFields, http.StatusBadRequest, "Missing fields"},
	{leave.ErrInvalidDate, http.StatusBadRequest, "Invalid date"},
	{leave.ErrPastStartDate, http.StatusBadRequest, "Cannot apply for past dates"},
	{leave.ErrEndBeforeStart, http.StatusBadRequest, "End date must be after start date"},
	{leave.ErrUnknownLeaveType, http.StatusBadRequest, "Invalid leave type"},
	{leave.ErrInsufficientBalance, http.StatusBadRequest, "Insufficient leave balance"},
	{leave.ErrInvalidDecision, http.StatusBadRequest, "Invalid decision"},
	{leave.ErrAlreadyDecided, http.StatusBadRequest, "Request already decided"},
	{leave.ErrInvalidStatus, http.StatusBadRequest, "Invalid status"},
	{leave.ErrInvalidRole, http.StatusBadRequest, "Invalid role"},
	{leave.ErrLeaveTypeNameRequired, http.StatusBadRequest, "Name required"},
	{leave.ErrInvalidLeaveTypeName, http.StatusBadRequest, "Invalid leave type name"},
	{leave.ErrInvalidAllotment, http.StatusBadRequest, "Default days per year must not be negative"},
	{leave.ErrDuplicateLeaveType, http.StatusBadRequest, "Leave type exists"},
	{leave.ErrDuplicateEmail, http.StatusBadRequest, "User already exists"},
	{auth.ErrInvalidCredentials, http.StatusBadRequest, "Invalid credentials"},
	{auth.ErrWeakPassword, http.StatusBadRequest, msgWeakPassword},
	{auth.ErrPasswordTooLong, http.StatusBadRequest, msgLongPassword},
	{leave.ErrRequestNotFound, http.StatusNotFound, "Leave request not found"},
	{leave.ErrNotificationNotFound, http.StatusNotFound, "Not found"},
	{leave.ErrLeaveTypeNotFound, http.StatusNotFound, "Leave type not found"},
	{leave.ErrUserNotFound, http.StatusNotFound, msgUserNotFound},
	{leave.ErrForbidden, http.StatusForbidden, "Forbidden"},
}

// statusFor maps err to an HTTP status and client message. ok is false for
// unexpected errors.
func statusFor(err error) (status int, msg string, ok bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.msg, true
		}
	}
	return http.StatusInternalServerError, msgServerError, false
}

// fail writes the mapped error. Unexpected errors are logged with the route
// and answered with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg, ok := statusFor(err)
	if !ok {
		h.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, msg)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Msg: msg})
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
