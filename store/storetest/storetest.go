// Package storetest is a behavioural suite every leave.Store must pass.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-manager/leave"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) leave.Store

// Run executes the whole suite against fresh stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("ResetBalances", func(t *testing.T) { testResetBalances(t, newStore(t)) })
	t.Run("LeaveTypes", func(t *testing.T) { testLeaveTypes(t, newStore(t)) })
	t.Run("Requests", func(t *testing.T) { testRequests(t, newStore(t)) })
	t.Run("DecideRequest", func(t *testing.T) { testDecideRequest(t, newStore(t)) })
	t.Run("DecideRequestConcurrent", func(t *testing.T) { testDecideConcurrent(t, newStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
}

var base = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

func createUser(t *testing.T, s leave.Store, name, email string, role leave.Role, b leave.Balance) *leave.User {
	t.Helper()
	u := &leave.User{Name: name, Email: email, PasswordHash: "hash", Role: role, Balance: b}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func createType(t *testing.T, s leave.Store, name string) *leave.LeaveType {
	t.Helper()
	lt := &leave.LeaveType{Name: name, DefaultDaysPerYear: 10}
	require.NoError(t, s.CreateLeaveType(context.Background(), lt))
	require.NotEmpty(t, lt.ID)
	return lt
}

func createRequest(t *testing.T, s leave.Store, userID, typeID, start, end string, created time.Time) *leave.Request {
	t.Helper()
	sd, ed := leave.MustParseDate(start), leave.MustParseDate(end)
	r := &leave.Request{
		UserID:    userID,
		TypeID:    typeID,
		StartDate: sd,
		EndDate:   ed,
		Days:      leave.DaysInclusive(sd, ed),
		Reason:    "family",
		Status:    leave.StatusPending,
		CreatedAt: created,
	}
	require.NoError(t, s.CreateRequest(context.Background(), r))
	require.NotEmpty(t, r.ID)
	return r
}

// =============================================================================
// USERS
// =============================================================================

func testUsers(t *testing.T, s leave.Store) {
	ctx := context.Background()

	alice := createUser(t, s, "Alice", "alice@example.com", leave.RoleEmployee, leave.Balance{"annual": 5, "MEDICAL": 10})
	createUser(t, s, "Root", "root@example.com", leave.RoleAdmin, nil)

	got, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, leave.RoleEmployee, got.Role)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, leave.Balance{"ANNUAL": 5, "MEDICAL": 10}, got.Balance)

	byEmail, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	err = s.CreateUser(ctx, &leave.User{Name: "Dup", Email: "Alice@Example.com", PasswordHash: "x", Role: leave.RoleEmployee})
	assert.ErrorIs(t, err, leave.ErrDuplicateEmail)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, leave.ErrUserNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, leave.ErrUserNotFound)

	admins, err := s.ListUsersByRole(ctx, leave.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "Root", admins[0].Name)
}

func testResetBalances(t *testing.T, s leave.Store) {
	ctx := context.Background()
	a := createUser(t, s, "A", "a@example.com", leave.RoleEmployee, leave.Balance{"ANNUAL": 1, "STUDY": 4})
	b := createUser(t, s, "B", "b@example.com", leave.RoleAdmin, nil)

	n, err := s.ResetBalances(ctx, leave.Balance{"annual": 5, "CASUAL": 5})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{a.ID, b.ID} {
		u, err := s.GetUser(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, leave.Balance{"ANNUAL": 5, "CASUAL": 5}, u.Balance)
	}
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func testLeaveTypes(t *testing.T, s leave.Store) {
	ctx := context.Background()

	annual := &leave.LeaveType{Name: "ANNUAL", DefaultDaysPerYear: 12, CreatedAt: base}
	require.NoError(t, s.CreateLeaveType(ctx, annual))
	casual := &leave.LeaveType{Name: "Casual", DefaultDaysPerYear: 7, CreatedAt: base.Add(time.Second)}
	require.NoError(t, s.CreateLeaveType(ctx, casual))

	err := s.CreateLeaveType(ctx, &leave.LeaveType{Name: "annual"})
	assert.ErrorIs(t, err, leave.ErrDuplicateLeaveType)

	got, err := s.GetLeaveType(ctx, casual.ID)
	require.NoError(t, err)
	assert.Equal(t, "Casual", got.Name)
	assert.Equal(t, 7, got.DefaultDaysPerYear)

	_, err = s.GetLeaveType(ctx, "missing")
	assert.ErrorIs(t, err, leave.ErrLeaveTypeNotFound)

	all, err := s.ListLeaveTypes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ANNUAL", all[0].Name)
	assert.Equal(t, "Casual", all[1].Name)
}

// =============================================================================
// REQUESTS
// =============================================================================

func testRequests(t *testing.T, s leave.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "Alice", "alice@example.com", leave.RoleEmployee, nil)
	bob := createUser(t, s, "Bob", "bob@example.com", leave.RoleEmployee, nil)
	annual := createType(t, s, "ANNUAL")
	medical := createType(t, s, "MEDICAL")

	r1 := createRequest(t, s, alice.ID, annual.ID, "2024-03-01", "2024-03-03", base)
	r2 := createRequest(t, s, bob.ID, medical.ID, "2024-03-31", "2024-04-02", base.Add(time.Minute))
	r3 := createRequest(t, s, alice.ID, medical.ID, "2024-04-10", "2024-04-10", base.Add(2*time.Minute))

	got, err := s.GetRequest(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", got.StartDate.String())
	assert.Equal(t, "2024-03-03", got.EndDate.String())
	assert.Equal(t, 3, got.Days)
	assert.Equal(t, "family", got.Reason)
	assert.Equal(t, leave.StatusPending, got.Status)
	assert.Nil(t, got.DecidedAt)

	_, err = s.GetRequest(ctx, "missing")
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)

	ids := func(rs []leave.Request) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	all, err := s.ListRequests(ctx, leave.RequestFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{r3.ID, r2.ID, r1.ID}, ids(all))

	mine, err := s.ListRequests(ctx, leave.RequestFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{r3.ID, r1.ID}, ids(mine))

	byType, err := s.ListRequests(ctx, leave.RequestFilter{TypeID: medical.ID, UserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{r2.ID}, ids(byType))

	march, err := s.ListRequests(ctx, leave.RequestFilter{
		StartFrom: leave.MustParseDate("2024-03-01"),
		StartTo:   leave.MustParseDate("2024-03-31"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{r2.ID, r1.ID}, ids(march))

	none, err := s.ListRequests(ctx, leave.RequestFilter{Status: leave.StatusApproved})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDecideRequest(t *testing.T, s leave.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "Alice", "alice@example.com", leave.RoleEmployee, leave.Balance{"ANNUAL": 2})
	annual := createType(t, s, "ANNUAL")
	study := createType(t, s, "STUDY")

	r := createRequest(t, s, alice.ID, annual.ID, "2024-03-04", "2024-03-06", base)
	decidedAt := base.Add(time.Hour)

	// Approval deducts and floors at zero
	updated, err := s.DecideRequest(ctx, r.ID, leave.Decision{
		Status:    leave.StatusApproved,
		Comment:   "enjoy",
		DecidedBy: "admin-1",
		DecidedAt: decidedAt,
		Deduction: &leave.Deduction{UserID: alice.ID, Category: "ANNUAL", Days: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, updated.Status)
	assert.Equal(t, "enjoy", updated.AdminComment)
	assert.Equal(t, "admin-1", updated.DecidedBy)
	require.NotNil(t, updated.DecidedAt)
	assert.True(t, decidedAt.Equal(*updated.DecidedAt))

	u, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Balance.Get("ANNUAL"))

	// Second decision fails and changes nothing
	_, err = s.DecideRequest(ctx, r.ID, leave.Decision{Status: leave.StatusRejected, DecidedAt: base})
	assert.ErrorIs(t, err, leave.ErrAlreadyDecided)
	stored, err := s.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, stored.Status)
	assert.Equal(t, "enjoy", stored.AdminComment)

	_, err = s.DecideRequest(ctx, "missing", leave.Decision{Status: leave.StatusRejected, DecidedAt: base})
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)

	// Rejection leaves balances alone
	r2 := createRequest(t, s, alice.ID, annual.ID, "2024-03-10", "2024-03-10", base)
	rejected, err := s.DecideRequest(ctx, r2.ID, leave.Decision{Status: leave.StatusRejected, DecidedAt: base})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)

	// Deducting from a category the user never had stores zero
	r3 := createRequest(t, s, alice.ID, study.ID, "2024-03-11", "2024-03-11", base)
	_, err = s.DecideRequest(ctx, r3.ID, leave.Decision{
		Status:    leave.StatusApproved,
		DecidedAt: base,
		Deduction: &leave.Deduction{UserID: alice.ID, Category: "study", Days: 1},
	})
	require.NoError(t, err)
	u, err = s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	days, ok := u.Balance["STUDY"]
	assert.True(t, ok)
	assert.Equal(t, 0, days)
}

func testDecideConcurrent(t *testing.T, s leave.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "Alice", "alice@example.com", leave.RoleEmployee, leave.Balance{"ANNUAL": 10})
	annual := createType(t, s, "ANNUAL")
	r := createRequest(t, s, alice.ID, annual.ID, "2024-03-04", "2024-03-05", base)

	const deciders = 6
	errs := make([]error, deciders)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < deciders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = s.DecideRequest(ctx, r.ID, leave.Decision{
				Status:    leave.StatusApproved,
				DecidedAt: base,
				Deduction: &leave.Deduction{UserID: alice.ID, Category: "ANNUAL", Days: 2},
			})
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, leave.ErrAlreadyDecided), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	u, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, u.Balance.Get("ANNUAL"))
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func testNotifications(t *testing.T, s leave.Store) {
	ctx := context.Background()
	u1 := createUser(t, s, "One", "one@example.com", leave.RoleAdmin, nil)
	u2 := createUser(t, s, "Two", "two@example.com", leave.RoleAdmin, nil)

	batch := []leave.Notification{
		{UserID: u1.ID, Message: "first", CreatedAt: base},
		{UserID: u2.ID, Message: "other user", CreatedAt: base},
	}
	require.NoError(t, s.CreateNotifications(ctx, batch))
	require.NoError(t, s.CreateNotifications(ctx, []leave.Notification{
		{UserID: u1.ID, Message: "second", CreatedAt: base.Add(time.Minute)},
	}))
	require.NoError(t, s.CreateNotifications(ctx, nil))
	require.NotEmpty(t, batch[0].ID)

	list, err := s.ListNotifications(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Message)
	assert.Equal(t, "first", list[1].Message)
	assert.False(t, list[0].Read)

	got, err := s.GetNotification(ctx, batch[0].ID)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, got.UserID)

	read, err := s.MarkNotificationRead(ctx, batch[0].ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	again, err := s.MarkNotificationRead(ctx, batch[0].ID)
	require.NoError(t, err)
	assert.True(t, again.Read)

	_, err = s.GetNotification(ctx, "missing")
	assert.ErrorIs(t, err, leave.ErrNotificationNotFound)
	_, err = s.MarkNotificationRead(ctx, "missing")
	assert.ErrorIs(t, err, leave.ErrNotificationNotFound)
}
