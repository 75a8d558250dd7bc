/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names are
  camelCase and ids are plain strings so the browser client can consume
  every backend's output the same way.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers around DTOs

DATES:
  startDate/endDate are YYYY-MM-DD calendar days. Timestamps (createdAt,
  decidedAt, ...) are RFC3339 in UTC.

VALIDATION:
  Validation is done in handlers and leave.Service, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-manager/leave"
)

// =============================================================================
// AUTH
// =============================================================================

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserDTO is the user summary. LeaveBalance is only filled by /auth/me.
type UserDTO struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	LeaveBalance map[string]int `json:"leaveBalance,omitempty"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type MeResponse struct {
	User UserDTO `json:"user"`
}

func toUserDTO(u *leave.User) UserDTO {
	return UserDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

type LeaveTypeDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	DefaultDaysPerYear int    `json:"defaultDaysPerYear"`
	CreatedAt          string `json:"createdAt,omitempty"`
}

// CreateLeaveTypeRequest leaves DefaultDaysPerYear nil when omitted, which
// means 0.
type CreateLeaveTypeRequest struct {
	Name               string `json:"name"`
	DefaultDaysPerYear *int   `json:"defaultDaysPerYear,omitempty"`
}

func toLeaveTypeDTO(t *leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		ID:                 t.ID,
		Name:               t.Name,
		DefaultDaysPerYear: t.DefaultDaysPerYear,
		CreatedAt:          formatTime(t.CreatedAt),
	}
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type SubmitLeaveRequest struct {
	TypeID    string `json:"typeId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason,omitempty"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment,omitempty"`
}

// UserRefDTO is the requester embedded in admin listings.
type UserRefDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RequestDTO is a leave request. Type and User are embedded when the
// endpoint populates them.
type RequestDTO struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	User         *UserRefDTO   `json:"user,omitempty"`
	TypeID       string        `json:"typeId"`
	Type         *LeaveTypeDTO `json:"type,omitempty"`
	StartDate    string        `json:"startDate"`
	EndDate      string        `json:"endDate"`
	Days         int           `json:"days"`
	Reason       string        `json:"reason,omitempty"`
	Status       string        `json:"status"`
	AdminComment string        `json:"adminComment,omitempty"`
	DecidedBy    string        `json:"decidedBy,omitempty"`
	DecidedAt    string        `json:"decidedAt,omitempty"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
}

func toRequestDTO(r *leave.Request) RequestDTO {
	dto := RequestDTO{
		ID:           r.ID,
		UserID:       r.UserID,
		TypeID:       r.TypeID,
		StartDate:    r.StartDate.String(),
		EndDate:      r.EndDate.String(),
		Days:         r.Days,
		Reason:       r.Reason,
		Status:       string(r.Status),
		AdminComment: r.AdminComment,
		DecidedBy:    r.DecidedBy,
		CreatedAt:    formatTime(r.CreatedAt),
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = formatTime(*r.DecidedAt)
	}
	return dto
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

type NotificationDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

func toNotificationDTO(n *leave.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: formatTime(n.CreatedAt),
	}
}

// =============================================================================
// REPORT
// =============================================================================

type ReportBucketDTO struct {
	Count         int             `json:"count"`
	RequestedDays int             `json:"requestedDays"`
	ApprovedDays  int             `json:"approvedDays"`
	ApprovalRate  decimal.Decimal `json:"approvalRate"`
}

type ReportDTO struct {
	Month              string                     `json:"month"`
	TotalRequests      int                        `json:"totalRequests"`
	ByStatus           map[string]int             `json:"byStatus"`
	ByType             map[string]ReportBucketDTO `json:"byType"`
	ByUser             map[string]ReportBucketDTO `json:"byUser"`
	TotalDaysRequested int                        `json:"totalDaysRequested"`
	TotalDaysApproved  int                        `json:"totalDaysApproved"`
	ApprovalRate       decimal.Decimal            `json:"approvalRate"`
}

func toReportDTO(rep *leave.Report) ReportDTO {
	dto := ReportDTO{
		Month:              rep.Month.String(),
		TotalRequests:      rep.TotalRequests,
		ByStatus:           make(map[string]int, len(rep.ByStatus)),
		ByType:             toBucketDTOs(rep.ByType),
		ByUser:             toBucketDTOs(rep.ByUser),
		TotalDaysRequested: rep.TotalDaysRequested,
		TotalDaysApproved:  rep.TotalDaysApproved,
		ApprovalRate:       rep.ApprovalRate,
	}
	for st, n := range rep.ByStatus {
		dto.ByStatus[string(st)] = n
	}
	return dto
}

func toBucketDTOs(in map[string]*leave.ReportBucket) map[string]ReportBucketDTO {
	out := make(map[string]ReportBucketDTO, len(in))
	for k, b := range in {
		out[k] = ReportBucketDTO{
			Count:         b.Count,
			RequestedDays: b.RequestedDays,
			ApprovedDays:  b.ApprovedDays,
			ApprovalRate:  b.ApprovalRate,
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
