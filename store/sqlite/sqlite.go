/*
Package sqlite provides a SQLite-backed implementation of leave.Store.

KEY TABLES:
  users:          Identities (email unique, case-insensitive)
  user_balances:  (user_id, category) -> days, CHECK days >= 0
  leave_types:    Category catalog (name unique, case-insensitive)
  requests:       Request ledger, never deleted
  notifications:  Per-user outbox

DECISIONS:
  DecideRequest runs in one SQL transaction:
    1. UPDATE requests ... WHERE id = ? AND status = 'PENDING'
    2. zero rows -> ErrRequestNotFound or ErrAlreadyDecided
    3. approval -> upsert user_balances with MAX(0, days - n)
  Two concurrent deciders cannot both see a row affected.

CONCURRENCY:
  A single open connection plus sync.RWMutex. SQLite has one writer at a
  time anyway, and ":memory:" databases are per-connection.

TIMESTAMPS:
  Stored as fixed-width UTC strings (timeLayout) so ORDER BY created_at
  sorts chronologically. Dates are stored as YYYY-MM-DD.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/warp/leave-manager/leave"
)

const (
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout = "2006-01-02"
)

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leave.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL COLLATE NOCASE UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'EMPLOYEE',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

	CREATE TABLE IF NOT EXISTS user_balances (
		user_id TEXT NOT NULL REFERENCES users(id),
		category TEXT NOT NULL,
		days INTEGER NOT NULL CHECK (days >= 0),
		PRIMARY KEY (user_id, category)
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL COLLATE NOCASE UNIQUE,
		default_days_per_year INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		type_id TEXT NOT NULL REFERENCES leave_types(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		admin_comment TEXT NOT NULL DEFAULT '',
		decided_by TEXT NOT NULL DEFAULT '',
		decided_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user ON requests(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_start_date ON requests(start_date);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		message TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// USERS
// =============================================================================

// CreateUser inserts the user and its balance rows atomically.
func (s *Store) CreateUser(ctx context.Context, u *leave.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Balance = u.Balance.Normalized()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return leave.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if err := writeBalance(ctx, tx, u.ID, u.Balance); err != nil {
		return err
	}
	return tx.Commit()
}

func writeBalance(ctx context.Context, q querier, userID string, b leave.Balance) error {
	for category, days := range b {
		_, err := q.ExecContext(ctx, `
			INSERT INTO user_balances (user_id, category, days) VALUES (?, ?, ?)
			ON CONFLICT(user_id, category) DO UPDATE SET days = excluded.days
		`, userID, category, days)
		if err != nil {
			return fmt.Errorf("failed to write balance %s: %w", category, err)
		}
	}
	return nil
}

// GetUser returns a user with its balance.
func (s *Store) GetUser(ctx context.Context, id string) (*leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUser(ctx, s.db, `WHERE id = ?`, id)
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUser(ctx, s.db, `WHERE email = ?`, email)
}

func (s *Store) getUser(ctx context.Context, q querier, where string, arg any) (*leave.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users ` + where

	u, err := scanUser(q.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, leave.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Balance, err = loadBalance(ctx, q, u.ID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsersByRole returns users holding role, oldest first.
func (s *Store) ListUsersByRole(ctx context.Context, role leave.Role) ([]leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE role = ? ORDER BY created_at ASC
	`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []leave.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		users[i].Balance, err = loadBalance(ctx, s.db, users[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return users, nil
}

// ResetBalances replaces every user's balance rows with b.
func (s *Store) ResetBalances(ctx context.Context, b leave.Balance) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_balances`); err != nil {
		return 0, fmt.Errorf("failed to clear balances: %w", err)
	}
	for category, days := range b.Normalized() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_balances (user_id, category, days)
			SELECT id, ?, ? FROM users
		`, category, days)
		if err != nil {
			return 0, fmt.Errorf("failed to reset balance %s: %w", category, err)
		}
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	now := formatTime(time.Now().UTC())
	if _, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = ?`, now); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func loadBalance(ctx context.Context, q querier, userID string) (leave.Balance, error) {
	rows, err := q.QueryContext(ctx, `SELECT category, days FROM user_balances WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	defer rows.Close()

	b := leave.Balance{}
	for rows.Next() {
		var category string
		var days int
		if err := rows.Scan(&category, &days); err != nil {
			return nil, err
		}
		b.Set(category, days)
	}
	return b, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (leave.User, error) {
	var u leave.User
	var role, createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &createdAt, &updatedAt); err != nil {
		return u, err
	}
	u.Role = leave.Role(role)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// CreateLeaveType inserts a category. The NOCASE unique index rejects names
// differing only in case.
func (s *Store) CreateLeaveType(ctx context.Context, t *leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types (id, name, default_days_per_year, created_at)
		VALUES (?, ?, ?, ?)
	`, t.ID, t.Name, t.DefaultDaysPerYear, formatTime(t.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return leave.ErrDuplicateLeaveType
		}
		return fmt.Errorf("failed to insert leave type: %w", err)
	}
	return nil
}

func (s *Store) GetLeaveType(ctx context.Context, id string) (*leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t leave.LeaveType
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, default_days_per_year, created_at FROM leave_types WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.DefaultDaysPerYear, &createdAt)
	if err == sql.ErrNoRows {
		return nil, leave.ErrLeaveTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave type: %w", err)
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, default_days_per_year, created_at
		FROM leave_types ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	defer rows.Close()

	types := []leave.LeaveType{}
	for rows.Next() {
		var t leave.LeaveType
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &t.DefaultDaysPerYear, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		types = append(types, t)
	}
	return types, rows.Err()
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = `
	id, user_id, type_id, start_date, end_date, days, reason, status,
	admin_comment, decided_by, decided_at, created_at, updated_at`

// CreateRequest inserts a new request.
func (s *Store) CreateRequest(ctx context.Context, r *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.UserID, r.TypeID, r.StartDate.String(), r.EndDate.String(), r.Days,
		r.Reason, r.Status, r.AdminComment, r.DecidedBy, nullTime(r.DecidedAt),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// GetRequest returns a request by id.
func (s *Store) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q querier, id string) (*leave.Request, error) {
	r, err := scanRequest(q.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, leave.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &r, nil
}

// ListRequests returns requests matching f, newest first.
func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.TypeID != "" {
		where = append(where, "type_id = ?")
		args = append(args, f.TypeID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if !f.StartFrom.IsZero() {
		where = append(where, "start_date >= ?")
		args = append(args, f.StartFrom.String())
	}
	if !f.StartTo.IsZero() {
		where = append(where, "start_date <= ?")
		args = append(args, f.StartTo.String())
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := []leave.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// DecideRequest applies d only if the request is still PENDING.
func (s *Store) DecideRequest(ctx context.Context, id string, d leave.Decision) (*leave.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE requests
		SET status = ?, admin_comment = ?, decided_by = ?, decided_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, d.Status, d.Comment, d.DecidedBy, formatTime(d.DecidedAt),
		formatTime(time.Now().UTC()), id, leave.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM requests WHERE id = ?`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, leave.ErrRequestNotFound
		}
		return nil, leave.ErrAlreadyDecided
	}

	if ded := d.Deduction; ded != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_balances (user_id, category, days) VALUES (?, ?, 0)
			ON CONFLICT(user_id, category) DO UPDATE SET days = MAX(0, days - ?)
		`, ded.UserID, leave.BalanceKey(ded.Category), ded.Days)
		if err != nil {
			return nil, fmt.Errorf("failed to deduct balance: %w", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`,
			formatTime(time.Now().UTC()), ded.UserID)
		if err != nil {
			return nil, err
		}
	}

	r, err := getRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit decision: %w", err)
	}
	return r, nil
}

func scanRequest(row scanner) (leave.Request, error) {
	var r leave.Request
	var status, start, end, createdAt, updatedAt string
	var decidedAt sql.NullString
	err := row.Scan(
		&r.ID, &r.UserID, &r.TypeID, &start, &end, &r.Days, &r.Reason, &status,
		&r.AdminComment, &r.DecidedBy, &decidedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return r, err
	}

	r.Status = leave.Status(status)
	r.StartDate = parseDate(start)
	r.EndDate = parseDate(end)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	if decidedAt.Valid {
		t := parseTime(decidedAt.String)
		r.DecidedAt = &t
	}
	return r, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// CreateNotifications inserts ns in one transaction.
func (s *Store) CreateNotifications(ctx context.Context, ns []leave.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range ns {
		if ns[i].ID == "" {
			ns[i].ID = uuid.NewString()
		}
		if ns[i].CreatedAt.IsZero() {
			ns[i].CreatedAt = now
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notifications (id, user_id, message, read, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, ns[i].ID, ns[i].UserID, ns[i].Message, ns[i].Read, formatTime(ns[i].CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetNotification(ctx context.Context, id string) (*leave.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getNotification(ctx, s.db, id)
}

func getNotification(ctx context.Context, q querier, id string) (*leave.Notification, error) {
	n, err := scanNotification(q.QueryRowContext(ctx, `
		SELECT id, user_id, message, read, created_at FROM notifications WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, leave.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]leave.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, read, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	ns := []leave.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) (*leave.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, leave.ErrNotificationNotFound
	}
	return getNotification(ctx, s.db, id)
}

func scanNotification(row scanner) (leave.Notification, error) {
	var n leave.Notification
	var createdAt string
	if err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.Read, &createdAt); err != nil {
		return n, err
	}
	n.CreatedAt = parseTime(createdAt)
	return n, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseDate(s string) leave.Date {
	t, _ := time.Parse(dateLayout, s)
	return leave.NewDate(t.Year(), t.Month(), t.Day())
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
