package mongostore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-manager/leave"
	"github.com/warp/leave-manager/store/storetest"
)

// Set LEAVE_TEST_MONGO_URI (e.g. mongodb://localhost:27017) to run these.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("LEAVE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("LEAVE_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := "leave_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	store, err := New(ctx, uri, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Drop(context.Background())
		store.Close()
	})
	return store
}

func TestMongoStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) leave.Store { return newTestStore(t) })
}

func TestBalanceField(t *testing.T) {
	tests := []struct {
		category string
		want     string
		wantErr  bool
	}{
		{"annual", "leaveBalance.ANNUAL", false},
		{" Study Leave ", "leaveBalance.STUDY LEAVE", false},
		{"a.b", "", true},
		{"$set", "", true},
		{"  ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got, err := balanceField(tt.category)
			if tt.wantErr {
				assert.ErrorIs(t, err, leave.ErrInvalidLeaveTypeName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMongo_RejectsUnsafeBalanceField(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DecideRequest(context.Background(), "any", leave.Decision{
		Status:    leave.StatusApproved,
		Deduction: &leave.Deduction{UserID: "u", Category: "a.b", Days: 1},
	})
	assert.ErrorIs(t, err, leave.ErrInvalidLeaveTypeName)
}

func TestMongo_RejectsUnsafeLeaveTypeName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// GIVEN: Names that could never be approved against a balance field
	// WHEN: Creating them
	// THEN: They are refused and the catalog stays empty
	for _, name := range []string{"Half.Day", "$Bonus"} {
		err := s.CreateLeaveType(ctx, &leave.LeaveType{Name: name})
		assert.ErrorIs(t, err, leave.ErrInvalidLeaveTypeName, name)
	}
	types, err := s.ListLeaveTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)
}
