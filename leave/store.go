/*
store.go - Persistence interfaces for the leave core

PURPOSE:
  Defines the boundary between the accounting service and the database.
  Implementations live in store/memory, store/sqlite and store/mongostore.

CONTRACT:
  - Lookups by id return the matching *NotFound sentinel, never (nil, nil).
  - Balances cross this boundary uppercased (Balance.Normalized).
  - DecideRequest is the ONLY path that changes a request's status or
    decrements a balance. It must transition only while the stored status is
    still PENDING and apply the Deduction in the same write. A caller that
    loses the race gets ErrAlreadyDecided.
  - Requests and notifications are never deleted.

SEE ALSO:
  - service.go: The only caller of DecideRequest
*/
package leave

import "context"

// UserStore persists identities and their balances.
type UserStore interface {
	// CreateUser inserts u, assigning ID and timestamps when empty.
	// Returns ErrDuplicateEmail if the email is taken.
	CreateUser(ctx context.Context, u *User) error

	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsersByRole(ctx context.Context, role Role) ([]User, error)

	// ResetBalances overwrites every user's balance and returns how many
	// users were touched.
	ResetBalances(ctx context.Context, b Balance) (int, error)
}

// LeaveTypeStore persists the category catalog.
type LeaveTypeStore interface {
	// CreateLeaveType returns ErrDuplicateLeaveType when the name (compared
	// case-insensitively) already exists.
	CreateLeaveType(ctx context.Context, t *LeaveType) error

	GetLeaveType(ctx context.Context, id string) (*LeaveType, error)
	ListLeaveTypes(ctx context.Context) ([]LeaveType, error)
}

// RequestStore persists the request ledger.
type RequestStore interface {
	CreateRequest(ctx context.Context, r *Request) error
	GetRequest(ctx context.Context, id string) (*Request, error)

	// ListRequests returns matching requests, newest first.
	ListRequests(ctx context.Context, f RequestFilter) ([]Request, error)

	// DecideRequest conditionally moves a PENDING request to d.Status and
	// applies d.Deduction atomically with it.
	DecideRequest(ctx context.Context, id string, d Decision) (*Request, error)
}

// NotificationStore persists the outbox.
type NotificationStore interface {
	CreateNotifications(ctx context.Context, ns []Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)

	// ListNotifications returns the user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string) ([]Notification, error)

	// MarkNotificationRead sets Read. Marking twice is not an error.
	MarkNotificationRead(ctx context.Context, id string) (*Notification, error)
}

// Store is everything the service needs.
type Store interface {
	UserStore
	LeaveTypeStore
	RequestStore
	NotificationStore

	Close() error
}
