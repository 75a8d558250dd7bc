package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-manager/leave"
)

func reportRequest(typeID, userID string, days int, st leave.Status) leave.Request {
	return leave.Request{TypeID: typeID, UserID: userID, Days: days, Status: st}
}

func TestBuildReport_TwoApprovedOneRejected(t *testing.T) {
	// GIVEN: Two APPROVED (3 and 2 days) and one REJECTED (1 day), same type
	reqs := []leave.Request{
		reportRequest("t1", "u1", 3, leave.StatusApproved),
		reportRequest("t1", "u1", 2, leave.StatusApproved),
		reportRequest("t1", "u2", 1, leave.StatusRejected),
	}
	month := leave.Month{Year: 2024, Month: time.March}

	// WHEN: Aggregating
	rep := leave.BuildReport(month, reqs,
		map[string]string{"t1": "ANNUAL"},
		map[string]string{"u1": "Alice <alice@example.com>"},
	)

	// THEN: Status counts always carry all three keys
	assert.Equal(t, 3, rep.TotalRequests)
	assert.Equal(t, map[leave.Status]int{
		leave.StatusPending: 0, leave.StatusApproved: 2, leave.StatusRejected: 1,
	}, rep.ByStatus)

	annual := rep.ByType["ANNUAL"]
	require.NotNil(t, annual)
	assert.Equal(t, 3, annual.Count)
	assert.Equal(t, 6, annual.RequestedDays)
	assert.Equal(t, 5, annual.ApprovedDays)
	assert.Equal(t, "0.83", annual.ApprovalRate.String())

	// Unresolved users fall back to their id
	assert.Equal(t, 5, rep.ByUser["Alice <alice@example.com>"].ApprovedDays)
	assert.Equal(t, 1, rep.ByUser["u2"].RequestedDays)

	assert.Equal(t, 6, rep.TotalDaysRequested)
	assert.Equal(t, 5, rep.TotalDaysApproved)
}

func TestBuildReport_UnknownTypeAndEmptyMonth(t *testing.T) {
	month := leave.Month{Year: 2024, Month: time.March}

	rep := leave.BuildReport(month, []leave.Request{reportRequest("gone", "u1", 2, leave.StatusPending)}, nil, nil)
	assert.Equal(t, 2, rep.ByType[leave.UnknownLabel].RequestedDays)
	assert.True(t, rep.ByType[leave.UnknownLabel].ApprovalRate.IsZero())

	empty := leave.BuildReport(month, nil, nil, nil)
	assert.Zero(t, empty.TotalRequests)
	assert.Len(t, empty.ByStatus, 3)
	assert.Empty(t, empty.ByType)
	assert.True(t, empty.ApprovalRate.IsZero())
}

func TestMonthlyReport_SelectsByStartDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// January: one approved 3-day request spilling into no other month
	jan, err := f.submit("ANNUAL", "2024-01-29", "2024-01-31")
	require.NoError(t, err)
	_, err = f.decide(jan.ID, leave.StatusApproved, "")
	require.NoError(t, err)

	// Starts on the last day of January, ends in February: still January
	_, err = f.submit("MEDICAL", "2024-01-31", "2024-02-02")
	require.NoError(t, err)

	// February only
	_, err = f.submit("CASUAL", "2024-02-01", "2024-02-01")
	require.NoError(t, err)

	rep, err := f.svc.MonthlyReport(ctx, leave.Month{Year: 2024, Month: time.January})
	require.NoError(t, err)

	assert.Equal(t, 2, rep.TotalRequests)
	assert.Equal(t, 1, rep.ByStatus[leave.StatusApproved])
	assert.Equal(t, 1, rep.ByStatus[leave.StatusPending])
	assert.Equal(t, 6, rep.TotalDaysRequested)
	assert.Equal(t, 3, rep.TotalDaysApproved)
	assert.Equal(t, 3, rep.ByUser["Alice <alice@example.com>"].ApprovedDays)
	assert.NotContains(t, rep.ByType, "CASUAL")
	assert.Equal(t, "0.5", rep.ApprovalRate.String())

	feb, err := f.svc.MonthlyReport(ctx, leave.Month{Year: 2024, Month: time.February})
	require.NoError(t, err)
	assert.Equal(t, 1, feb.TotalRequests)
}
