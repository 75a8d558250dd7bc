/*
service.go - Leave accounting service

PURPOSE:
  Orchestrates validation, balance checks, day counting and the cross-entity
  side effects of every leave operation. Handlers never touch a Store
  directly for writes; they go through Service so the invariants below hold
  regardless of which backend is wired.

INVARIANTS:
  - Request.Days is the inclusive calendar-day count of its range.
  - A request leaves PENDING at most once (Store.DecideRequest is
    conditional).
  - Balances are decremented only on approval, floored at zero.
  - Notification failures are logged and swallowed; they never undo the
    primary write.

CONCURRENCY:
  Submissions and decisions share a per-requester lock, so a submission's
  balance check never runs while an approval for the same user is lowering
  that balance. Pending requests do not reserve days. Exactly-once
  transitions come from the store's conditional DecideRequest.

USAGE:
  svc := leave.NewService(store, leave.WithLocation(loc))
  req, err := svc.Submit(ctx, leave.Submission{...})
  req, err = svc.Decide(ctx, leave.DecisionInput{...})

SEE ALSO:
  - request.go: Submit / Decide / listings
  - outbox.go: Notifications
  - report.go: Monthly report
*/
package leave

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Service is the leave accounting service.
type Service struct {
	store  Store
	now    func() time.Time
	loc    *time.Location
	logger *log.Logger

	userLocks keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger used for swallowed side-effect failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		loc:    time.UTC,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day in the service's timezone.
func (s *Service) Today() Date { return DateOf(s.now(), s.loc) }

// Location returns the timezone used for calendar days.
func (s *Service) Location() *time.Location { return s.loc }

// =============================================================================
// IDENTITY
// =============================================================================

// Registration is the input for creating a user. The password must already
// be hashed.
type Registration struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// Register creates a user with the default balance.
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	name := strings.TrimSpace(reg.Name)
	email := normalizeEmail(reg.Email)
	if name == "" || email == "" || reg.PasswordHash == "" {
		return nil, ErrMissingFields
	}

	role := reg.Role
	if role == "" {
		role = RoleEmployee
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, reg.Role)
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: reg.PasswordHash,
		Role:         role,
		Balance:      DefaultBalance(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// User returns a user by id.
func (s *Service) User(ctx context.Context, id string) (*User, error) {
	return s.store.GetUser(ctx, id)
}

// UserByEmail returns a user by (case-insensitive) email.
func (s *Service) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.GetUserByEmail(ctx, normalizeEmail(email))
}

// Balance is the effective balance: the stored mapping, which approvals
// decrement exactly once.
func (s *Service) Balance(ctx context.Context, userID string) (Balance, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Balance.Normalized(), nil
}

// ResetBalances overwrites every user's balance with b.
func (s *Service) ResetBalances(ctx context.Context, b Balance) (int, error) {
	return s.store.ResetBalances(ctx, b.Normalized())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// =============================================================================
// CATALOG
// =============================================================================

// LeaveTypes lists the catalog.
func (s *Service) LeaveTypes(ctx context.Context) ([]LeaveType, error) {
	return s.store.ListLeaveTypes(ctx)
}

// CreateLeaveType adds a category. Names are unique case-insensitively
// because balance keys are uppercased.
func (s *Service) CreateLeaveType(ctx context.Context, name string, defaultDays int) (*LeaveType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrLeaveTypeNameRequired
	}
	if defaultDays < 0 {
		return nil, ErrInvalidAllotment
	}

	t := &LeaveType{Name: name, DefaultDaysPerYear: defaultDays}
	if err := s.store.CreateLeaveType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SeedLeaveTypes fills an empty catalog with DefaultLeaveTypes and returns
// how many were created.
func (s *Service) SeedLeaveTypes(ctx context.Context) (int, error) {
	existing, err := s.store.ListLeaveTypes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list leave types: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	n := 0
	for _, t := range DefaultLeaveTypes() {
		if err := s.store.CreateLeaveType(ctx, &t); err != nil {
			return n, fmt.Errorf("seed %s: %w", t.Name, err)
		}
		n++
	}
	return n, nil
}

// =============================================================================
// KEYED MUTEX
// =============================================================================

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
