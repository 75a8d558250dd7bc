/*
Package leave provides the leave accounting core.

PURPOSE:
  Employees submit leave requests against typed leave categories. Admins
  decide them, manage the category catalog and read monthly reports. Both
  roles receive notifications as side effects of request transitions.

KEY CONCEPTS IN THIS FILE (types.go):
  - User: identity, role and per-category Balance
  - Balance: category name -> remaining days, keys always uppercased
  - LeaveType: named category with a default yearly allotment
  - Request: a submitted request and its PENDING -> APPROVED|REJECTED lifecycle
  - Notification: a per-user message in the outbox

SOURCE OF TRUTH FOR BALANCES:
  The stored Balance is authoritative. It is decremented exactly once per
  approval, by the store's conditional decision write, and never recomputed
  from request history on read.

SEE ALSO:
  - service.go: Orchestration of submission, decision and outbox
  - store.go: Persistence interfaces
  - report.go: Monthly aggregation
*/
package leave

import (
	"strings"
	"time"
)

// =============================================================================
// IDENTITY
// =============================================================================

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// User is a registered account. PasswordHash is opaque to this package.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Balance      Balance
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Label is the "name <email>" form used by reports.
func (u User) Label() string {
	return u.Name + " <" + u.Email + ">"
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// =============================================================================
// BALANCE - Case-insensitive category -> days mapping
// =============================================================================

// Balance maps an uppercased category name to the remaining day count.
// Always go through Get/Set so keys stay normalized.
type Balance map[string]int

// DefaultBalance is granted to every newly registered user.
func DefaultBalance() Balance {
	return Balance{"ANNUAL": 5, "CASUAL": 5, "MEDICAL": 10}
}

// BalanceKey normalizes a category name for balance lookups.
func BalanceKey(category string) string {
	return strings.ToUpper(strings.TrimSpace(category))
}

// Get returns the days left for category. Absent keys read as 0.
func (b Balance) Get(category string) int {
	if b == nil {
		return 0
	}
	return b[BalanceKey(category)]
}

// Set stores days for category, floored at zero.
func (b Balance) Set(category string, days int) {
	if days < 0 {
		days = 0
	}
	b[BalanceKey(category)] = days
}

// Deduct subtracts days from category, never going below zero, and
// returns the new value.
func (b Balance) Deduct(category string, days int) int {
	left := b.Get(category) - days
	b.Set(category, left)
	return b.Get(category)
}

// Normalized returns a copy with every key uppercased and negative values
// clamped. Used at store boundaries.
func (b Balance) Normalized() Balance {
	out := make(Balance, len(b))
	for k, v := range b {
		out.Set(k, out.Get(k)+v)
	}
	return out
}

// Clone returns an independent copy.
func (b Balance) Clone() Balance {
	out := make(Balance, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// =============================================================================
// CATALOG
// =============================================================================

// LeaveType is a named leave category.
type LeaveType struct {
	ID                 string
	Name               string
	DefaultDaysPerYear int
	CreatedAt          time.Time
}

// DefaultLeaveTypes are seeded into an empty catalog on first boot.
func DefaultLeaveTypes() []LeaveType {
	return []LeaveType{
		{Name: "ANNUAL", DefaultDaysPerYear: 12},
		{Name: "CASUAL", DefaultDaysPerYear: 7},
		{Name: "MEDICAL", DefaultDaysPerYear: 10},
	}
}

// =============================================================================
// REQUEST LEDGER
// =============================================================================

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Statuses lists every status in report order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// IsDecision reports whether s is a value an admin may decide with.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request is a leave request. It leaves PENDING at most once.
type Request struct {
	ID           string
	UserID       string
	TypeID       string
	StartDate    Date
	EndDate      Date
	Days         int
	Reason       string
	Status       Status
	AdminComment string
	DecidedBy    string
	DecidedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RequestFilter narrows request listings. Zero fields match everything.
type RequestFilter struct {
	UserID string
	TypeID string
	Status Status

	// StartFrom/StartTo bound StartDate inclusively when non-zero.
	StartFrom Date
	StartTo   Date
}

// Match reports whether r passes the filter.
func (f RequestFilter) Match(r Request) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.TypeID != "" && r.TypeID != f.TypeID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.StartFrom.IsZero() && r.StartDate.Before(f.StartFrom) {
		return false
	}
	if !f.StartTo.IsZero() && r.StartDate.After(f.StartTo) {
		return false
	}
	return true
}

// Decision is the single transition applied to a PENDING request.
type Decision struct {
	Status    Status
	Comment   string
	DecidedBy string
	DecidedAt time.Time

	// Deduction is applied in the same write as the transition. Nil for
	// rejections.
	Deduction *Deduction
}

// Deduction removes Days from a user's balance under Category, floored at 0.
type Deduction struct {
	UserID   string
	Category string
	Days     int
}

// =============================================================================
// NOTIFICATION OUTBOX
// =============================================================================

// Notification is a message addressed to exactly one user.
type Notification struct {
	ID        string
	UserID    string
	Message   string
	Read      bool
	CreatedAt time.Time
}
