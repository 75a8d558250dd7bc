// Package memory provides an in-memory leave.Store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-manager/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory keeps every record in maps guarded by one RWMutex. Every value
// handed out is a copy.
type Memory struct {
	mu            sync.RWMutex
	users         map[string]leave.User
	usersByEmail  map[string]string
	leaveTypes    map[string]leave.LeaveType
	requests      map[string]leave.Request
	notifications map[string]leave.Notification

	// seq breaks CreatedAt ties so newest-first listings are stable.
	seq  map[string]uint64
	next uint64

	now func() time.Time
}

var _ leave.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]leave.User),
		usersByEmail:  make(map[string]string),
		leaveTypes:    make(map[string]leave.LeaveType),
		requests:      make(map[string]leave.Request),
		notifications: make(map[string]leave.Notification),
		seq:           make(map[string]uint64),
		now:           time.Now,
	}
}

func (m *Memory) Close() error { return nil }

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) CreateUser(_ context.Context, u *leave.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, ok := m.usersByEmail[email]; ok {
		return leave.ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := m.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Balance = u.Balance.Normalized()

	m.users[u.ID] = cloneUser(*u)
	m.usersByEmail[email] = u.ID
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*leave.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, leave.ErrUserNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*leave.User, error) {
	m.mu.RLock()
	id, ok := m.usersByEmail[strings.ToLower(email)]
	m.mu.RUnlock()
	if !ok {
		return nil, leave.ErrUserNotFound
	}
	return m.GetUser(ctx, id)
}

func (m *Memory) ListUsersByRole(_ context.Context, role leave.Role) ([]leave.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []leave.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ResetBalances(_ context.Context, b leave.Balance) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	for id, u := range m.users {
		u.Balance = b.Normalized()
		u.UpdatedAt = now
		m.users[id] = u
	}
	return len(m.users), nil
}

func cloneUser(u leave.User) leave.User {
	u.Balance = u.Balance.Clone()
	return u
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (m *Memory) CreateLeaveType(_ context.Context, t *leave.LeaveType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.leaveTypes {
		if strings.EqualFold(existing.Name, t.Name) {
			return leave.ErrDuplicateLeaveType
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.now().UTC()
	}
	m.leaveTypes[t.ID] = *t
	return nil
}

func (m *Memory) GetLeaveType(_ context.Context, id string) (*leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.leaveTypes[id]
	if !ok {
		return nil, leave.ErrLeaveTypeNotFound
	}
	return &t, nil
}

func (m *Memory) ListLeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]leave.LeaveType, 0, len(m.leaveTypes))
	for _, t := range m.leaveTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) CreateRequest(_ context.Context, r *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := m.now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	m.requests[r.ID] = *r
	m.stamp(r.ID)
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	return &r, nil
}

func (m *Memory) ListRequests(_ context.Context, f leave.RequestFilter) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []leave.Request{}
	for _, r := range m.requests {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.newer(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt) })
	return out, nil
}

// DecideRequest transitions and deducts under the write lock, so the status
// check and both writes are one step.
func (m *Memory) DecideRequest(_ context.Context, id string, d leave.Decision) (*leave.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	if r.Status != leave.StatusPending {
		return nil, leave.ErrAlreadyDecided
	}

	if d.Deduction != nil {
		u, ok := m.users[d.Deduction.UserID]
		if !ok {
			return nil, leave.ErrUserNotFound
		}
		u = cloneUser(u)
		if u.Balance == nil {
			u.Balance = leave.Balance{}
		}
		u.Balance.Deduct(d.Deduction.Category, d.Deduction.Days)
		u.UpdatedAt = m.now().UTC()
		m.users[u.ID] = u
	}

	decidedAt := d.DecidedAt
	r.Status = d.Status
	r.AdminComment = d.Comment
	r.DecidedBy = d.DecidedBy
	r.DecidedAt = &decidedAt
	r.UpdatedAt = m.now().UTC()
	m.requests[id] = r
	return &r, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (m *Memory) CreateNotifications(_ context.Context, ns []leave.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	for i := range ns {
		if ns[i].ID == "" {
			ns[i].ID = uuid.NewString()
		}
		if ns[i].CreatedAt.IsZero() {
			ns[i].CreatedAt = now
		}
		m.notifications[ns[i].ID] = ns[i]
		m.stamp(ns[i].ID)
	}
	return nil
}

func (m *Memory) GetNotification(_ context.Context, id string) (*leave.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, leave.ErrNotificationNotFound
	}
	return &n, nil
}

func (m *Memory) ListNotifications(_ context.Context, userID string) ([]leave.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []leave.Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.newer(out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, id string) (*leave.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, leave.ErrNotificationNotFound
	}
	n.Read = true
	m.notifications[id] = n
	return &n, nil
}

func (m *Memory) stamp(id string) {
	m.next++
	m.seq[id] = m.next
}

func (m *Memory) newer(a, b string, at, bt time.Time) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return m.seq[a] > m.seq[b]
}
