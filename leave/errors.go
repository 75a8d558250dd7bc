/*
errors.go - Error taxonomy for the leave core

ERROR CATEGORIES:
  1. Validation - missing or malformed input, invalid enum values
  2. Business rules - past dates, insufficient balance, already decided,
     duplicate names
  3. Not found - unknown ids
  4. Authorization - non-owner access

  Anything else is an infrastructure failure and surfaces as 500.

USAGE:
  if errors.Is(err, leave.ErrAlreadyDecided) { ... }

  var ib *leave.InsufficientBalanceError
  if errors.As(err, &ib) { ... ib.Available ... }

SEE ALSO:
  - api/errors.go: Maps these errors to HTTP status and message
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// Validation
	ErrMissingFields         = errors.New("missing required fields")
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidDecision       = errors.New("invalid decision")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidRole           = errors.New("invalid role")
	ErrLeaveTypeNameRequired = errors.New("leave type name required")
	ErrInvalidLeaveTypeName  = errors.New(`leave type name must not contain "." or "$"`)
	ErrInvalidAllotment      = errors.New("default days per year must not be negative")

	// Business rules
	ErrPastStartDate       = errors.New("start date is in the past")
	ErrEndBeforeStart      = errors.New("end date before start date")
	ErrUnknownLeaveType    = errors.New("unknown leave type")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrAlreadyDecided      = errors.New("request already decided")
	ErrDuplicateLeaveType  = errors.New("leave type already exists")
	ErrDuplicateEmail      = errors.New("user already exists")

	// Not found
	ErrUserNotFound         = errors.New("user not found")
	ErrLeaveTypeNotFound    = errors.New("leave type not found")
	ErrRequestNotFound      = errors.New("leave request not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// Authorization
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InsufficientBalanceError carries the numbers behind a rejected submission.
type InsufficientBalanceError struct {
	Category  string
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance: %s has %d days, requested %d",
		e.Category, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the caller can fix the failure by changing
// the input.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrMissingFields, ErrInvalidDate, ErrInvalidDecision, ErrInvalidStatus,
		ErrInvalidRole, ErrLeaveTypeNameRequired, ErrInvalidLeaveTypeName, ErrInvalidAllotment,
		ErrPastStartDate, ErrEndBeforeStart, ErrUnknownLeaveType,
		ErrInsufficientBalance, ErrAlreadyDecided, ErrDuplicateLeaveType,
		ErrDuplicateEmail,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrLeaveTypeNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrNotificationNotFound)
}

// IsForbidden returns true for ownership violations.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
