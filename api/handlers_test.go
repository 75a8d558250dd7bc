/*
handlers_test.go - HTTP tests for the leave API

Runs the real chi router against the in-memory store with a fixed clock
(2024-01-01), so "today" and every calendar day are deterministic.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/leave-manager/auth"
	"github.com/warp/leave-manager/leave"
	"github.com/warp/leave-manager/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const strongPassword = "Secret#123"

// longPassword passes the strength rule but is past what bcrypt can hash.
var longPassword = "Aa!" + strings.Repeat("x", 80)

type testAPI struct {
	t      *testing.T
	router http.Handler
	svc    *leave.Service
	tokens *auth.Tokens
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	quiet := log.New(io.Discard, "", 0)
	store := memory.NewMemory()
	t.Cleanup(func() { store.Close() })

	svc := leave.NewService(store,
		leave.WithClock(func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }),
		leave.WithLogger(quiet),
	)
	_, err := svc.SeedLeaveTypes(context.Background())
	require.NoError(t, err)

	tokens := auth.NewTokens("test-secret", time.Hour)
	h := NewHandler(svc, tokens, quiet)

	return &testAPI{
		t:      t,
		router: NewRouter(h, RouterConfig{BasePath: "/api", AllowedOrigins: []string{"*"}}),
		svc:    svc,
		tokens: tokens,
	}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		buf = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errMsg(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, rec).Msg
}

func (a *testAPI) register(name, email, role string) (string, UserDTO) {
	a.t.Helper()
	rec := a.do("POST", "/api/auth/register", "", RegisterRequest{
		Name: name, Email: email, Password: strongPassword, Role: role,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[AuthResponse](a.t, rec)
	return resp.Token, resp.User
}

func (a *testAPI) typeID(name string) string {
	a.t.Helper()
	types, err := a.svc.LeaveTypes(context.Background())
	require.NoError(a.t, err)
	for _, lt := range types {
		if lt.Name == name {
			return lt.ID
		}
	}
	a.t.Fatalf("leave type %s not seeded", name)
	return ""
}

func (a *testAPI) submit(token, typeName, start, end string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do("POST", "/api/leaves", token, SubmitLeaveRequest{
		TypeID: a.typeID(typeName), StartDate: start, EndDate: end, Reason: "trip",
	})
}

// =============================================================================
// HEALTH + AUTH
// =============================================================================

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do("GET", "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthMessage, rec.Body.String())
}

func TestRegister_DefaultsAndMe(t *testing.T) {
	// GIVEN: A freshly registered employee (no role given)
	a := newTestAPI(t)
	token, user := a.register("Alice", "Alice@Example.com", "")

	// THEN: Role defaults to EMPLOYEE and the email is normalized
	assert.Equal(t, "EMPLOYEE", user.Role)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, token)

	// WHEN: Asking who we are
	rec := a.do("GET", "/api/auth/me", token, nil)

	// THEN: The default balance is returned
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[MeResponse](t, rec)
	assert.Equal(t, user.ID, me.User.ID)
	assert.Equal(t, map[string]int{"ANNUAL": 5, "CASUAL": 5, "MEDICAL": 10}, me.User.LeaveBalance)
}

func TestRegister_Validation(t *testing.T) {
	a := newTestAPI(t)
	a.register("Alice", "alice@example.com", "")

	tests := []struct {
		name    string
		body    RegisterRequest
		wantMsg string
	}{
		{"missing fields", RegisterRequest{Email: "x@example.com", Password: strongPassword}, "Missing fields"},
		{"weak employee password", RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "password"}, msgWeakPassword},
		{"invalid role", RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: strongPassword, Role: "MANAGER"}, "Invalid role"},
		{"employee password too long", RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: longPassword}, msgLongPassword},
		{"admin password too long", RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: longPassword, Role: "ADMIN"}, msgLongPassword},
		{"duplicate email", RegisterRequest{Name: "Alice 2", Email: "ALICE@example.com", Password: strongPassword}, "User already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do("POST", "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantMsg, errMsg(t, rec))
		})
	}
}

func TestRegister_AdminSkipsStrengthRule(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do("POST", "/api/auth/register", "", RegisterRequest{
		Name: "Root", Email: "root@example.com", Password: "simple", Role: "admin",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "ADMIN", decode[AuthResponse](t, rec).User.Role)
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t)
	_, user := a.register("Alice", "alice@example.com", "")

	t.Run("success", func(t *testing.T) {
		rec := a.do("POST", "/api/auth/login", "", LoginRequest{Email: "ALICE@example.com", Password: strongPassword})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[AuthResponse](t, rec)
		assert.Equal(t, user.ID, resp.User.ID)

		id, err := a.tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := a.do("POST", "/api/auth/login", "", LoginRequest{Email: "alice@example.com", Password: "Wrong#123"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid credentials", errMsg(t, rec))
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := a.do("POST", "/api/auth/login", "", LoginRequest{Email: "nobody@example.com", Password: strongPassword})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid credentials", errMsg(t, rec))
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := a.do("POST", "/api/auth/login", "", LoginRequest{Email: "alice@example.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing fields", errMsg(t, rec))
	})
}

func TestAuthenticate(t *testing.T) {
	a := newTestAPI(t)

	ghost, err := a.tokens.Issue("ghost")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{"no token", "", msgNoToken},
		{"garbage token", "garbage", msgInvalidToken},
		{"deleted user", ghost, msgUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do("GET", "/api/auth/me", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantMsg, errMsg(t, rec))
		})
	}
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func TestLeaveTypes(t *testing.T) {
	a := newTestAPI(t)
	admin, _ := a.register("Root", "root@example.com", "ADMIN")
	employee, _ := a.register("Alice", "alice@example.com", "")

	// Public listing shows the seeded catalog
	rec := a.do("GET", "/api/leavetypes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]LeaveTypeDTO](t, rec), 3)

	// Employees cannot create
	rec = a.do("POST", "/api/leavetypes", employee, CreateLeaveTypeRequest{Name: "STUDY"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgAdminResource, errMsg(t, rec))

	// Admin creates, allotment defaults to 0
	rec = a.do("POST", "/api/leavetypes", admin, CreateLeaveTypeRequest{Name: "STUDY"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[LeaveTypeDTO](t, rec)
	assert.Equal(t, "STUDY", created.Name)
	assert.Equal(t, 0, created.DefaultDaysPerYear)

	// Names are unique regardless of case
	rec = a.do("POST", "/api/leavetypes", admin, CreateLeaveTypeRequest{Name: "study"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Leave type exists", errMsg(t, rec))

	rec = a.do("POST", "/api/leavetypes", admin, CreateLeaveTypeRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name required", errMsg(t, rec))
}

// =============================================================================
// LEAVES
// =============================================================================

func TestLeaveLifecycle(t *testing.T) {
	a := newTestAPI(t)
	admin, adminUser := a.register("Root", "root@example.com", "ADMIN")
	alice, aliceUser := a.register("Alice", "alice@example.com", "")

	// GIVEN: Alice submits three ANNUAL days
	rec := a.submit(alice, "ANNUAL", "2024-01-01", "2024-01-03")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[RequestDTO](t, rec)
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, 3, created.Days)
	assert.Equal(t, "2024-01-01", created.StartDate)

	// THEN: The admin is notified
	rec = a.do("GET", "/api/notifications", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	adminNotes := decode[[]NotificationDTO](t, rec)
	require.Len(t, adminNotes, 1)
	assert.Equal(t, "New leave request from Alice (alice@example.com) for ANNUAL 2024-01-01 - 2024-01-03", adminNotes[0].Message)

	// WHEN: The admin approves with a comment
	rec = a.do("PUT", "/api/leaves/"+created.ID+"/decision", admin, DecisionRequest{Decision: "APPROVED", Comment: "Enjoy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decided := decode[RequestDTO](t, rec)
	assert.Equal(t, "APPROVED", decided.Status)
	assert.Equal(t, "Enjoy", decided.AdminComment)
	assert.Equal(t, adminUser.ID, decided.DecidedBy)
	assert.NotEmpty(t, decided.DecidedAt)
	require.NotNil(t, decided.Type)
	assert.Equal(t, "ANNUAL", decided.Type.Name)

	// THEN: Balance drops from 5 to 2
	me := decode[MeResponse](t, a.do("GET", "/api/auth/me", alice, nil))
	assert.Equal(t, 2, me.User.LeaveBalance["ANNUAL"])

	// AND: Alice is told
	notes := decode[[]NotificationDTO](t, a.do("GET", "/api/notifications", alice, nil))
	require.Len(t, notes, 1)
	assert.Equal(t, "Your leave request (ANNUAL 2024-01-01 - 2024-01-03) was APPROVED.\nComment: Enjoy", notes[0].Message)
	assert.Equal(t, aliceUser.ID, notes[0].UserID)

	// AND: A second decision is refused
	rec = a.do("PUT", "/api/leaves/"+created.ID+"/decision", admin, DecisionRequest{Decision: "REJECTED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request already decided", errMsg(t, rec))

	// AND: Alice's own listing embeds the type
	mine := decode[[]RequestDTO](t, a.do("GET", "/api/leaves/my", alice, nil))
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Type)
	assert.Equal(t, "ANNUAL", mine[0].Type.Name)
	assert.Nil(t, mine[0].User)
}

func TestSubmitLeave_Rejections(t *testing.T) {
	a := newTestAPI(t)
	admin, _ := a.register("Root", "root@example.com", "ADMIN")
	alice, _ := a.register("Alice", "alice@example.com", "")

	t.Run("admins cannot submit", func(t *testing.T) {
		rec := a.submit(admin, "ANNUAL", "2024-01-02", "2024-01-02")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, msgEmployeeOnly, errMsg(t, rec))
	})

	t.Run("past start", func(t *testing.T) {
		rec := a.submit(alice, "ANNUAL", "2023-12-31", "2024-01-01")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Cannot apply for past dates", errMsg(t, rec))
	})

	t.Run("end before start", func(t *testing.T) {
		rec := a.submit(alice, "ANNUAL", "2024-01-05", "2024-01-04")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "End date must be after start date", errMsg(t, rec))
	})

	t.Run("insufficient balance", func(t *testing.T) {
		rec := a.submit(alice, "CASUAL", "2024-01-02", "2024-01-07")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Insufficient leave balance", errMsg(t, rec))
	})

	t.Run("unknown type", func(t *testing.T) {
		rec := a.do("POST", "/api/leaves", alice, SubmitLeaveRequest{TypeID: "nope", StartDate: "2024-01-02", EndDate: "2024-01-02"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid leave type", errMsg(t, rec))
	})

	t.Run("malformed date", func(t *testing.T) {
		rec := a.submit(alice, "ANNUAL", "next tuesday", "2024-01-02")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid date", errMsg(t, rec))
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := a.do("POST", "/api/leaves", alice, SubmitLeaveRequest{StartDate: "2024-01-02"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing fields", errMsg(t, rec))
	})

	// Nothing was recorded
	mine := decode[[]RequestDTO](t, a.do("GET", "/api/leaves/my", alice, nil))
	assert.Empty(t, mine)
}

func TestListLeaves_Admin(t *testing.T) {
	a := newTestAPI(t)
	admin, _ := a.register("Root", "root@example.com", "ADMIN")
	alice, aliceUser := a.register("Alice", "alice@example.com", "")
	bob, _ := a.register("Bob", "bob@example.com", "")

	require.Equal(t, http.StatusCreated, a.submit(alice, "ANNUAL", "2024-01-02", "2024-01-02").Code)
	require.Equal(t, http.StatusCreated, a.submit(bob, "MEDICAL", "2024-01-03", "2024-01-04").Code)

	t.Run("employees are refused", func(t *testing.T) {
		rec := a.do("GET", "/api/leaves", alice, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("all, newest first, populated", func(t *testing.T) {
		rec := a.do("GET", "/api/leaves", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		all := decode[[]RequestDTO](t, rec)
		require.Len(t, all, 2)
		require.NotNil(t, all[0].User)
		assert.Equal(t, "Bob", all[0].User.Name)
		require.NotNil(t, all[0].Type)
		assert.Equal(t, "MEDICAL", all[0].Type.Name)
	})

	t.Run("filter by user", func(t *testing.T) {
		rec := a.do("GET", "/api/leaves?userId="+aliceUser.ID, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[[]RequestDTO](t, rec)
		require.Len(t, got, 1)
		assert.Equal(t, "alice@example.com", got[0].User.Email)
	})

	t.Run("filter by type and status", func(t *testing.T) {
		rec := a.do("GET", "/api/leaves?status=pending&typeId="+a.typeID("MEDICAL"), admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]RequestDTO](t, rec), 1)
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := a.do("GET", "/api/leaves?status=CANCELLED", admin, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid status", errMsg(t, rec))
	})
}

func TestDecideLeave_Errors(t *testing.T) {
	a := newTestAPI(t)
	admin, _ := a.register("Root", "root@example.com", "ADMIN")
	alice, _ := a.register("Alice", "alice@example.com", "")
	created := decode[RequestDTO](t, a.submit(alice, "ANNUAL", "2024-01-02", "2024-01-02"))

	rec := a.do("PUT", "/api/leaves/"+created.ID+"/decision", admin, DecisionRequest{Decision: "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid decision", errMsg(t, rec))

	rec = a.do("PUT", "/api/leaves/unknown/decision", admin, DecisionRequest{Decision: "APPROVED"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Leave request not found", errMsg(t, rec))

	rec = a.do("PUT", "/api/leaves/"+created.ID+"/decision", alice, DecisionRequest{Decision: "APPROVED"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Rejection leaves the balance alone
	rec = a.do("PUT", "/api/leaves/"+created.ID+"/decision", admin, DecisionRequest{Decision: "rejected"})
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[MeResponse](t, a.do("GET", "/api/auth/me", alice, nil))
	assert.Equal(t, 5, me.User.LeaveBalance["ANNUAL"])
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func TestMarkNotificationRead(t *testing.T) {
	a := newTestAPI(t)
	admin, _ := a.register("Root", "root@example.com", "ADMIN")
	alice, _ := a.register("Alice", "alice@example.com", "")
	require.Equal(t, http.StatusCreated, a.submit(alice, "ANNUAL", "2024-01-02", "2024-01-02").Code)

	notes := decode[[]NotificationDTO](t, a.do("GET", "/api/notifications", admin, nil))
	require.Len(t, notes, 1)
	assert.False(t, notes[0].Read)
	path := "/api/notifications/" + notes[0].ID + "/read"

	// Someone else's notification
	rec := a.do("PUT", path, alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", errMsg(t, rec))

	// Unknown id
	rec = a.do("PUT", "/api/notifications/missing/read", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", errMsg(t, rec))

	// Owner, twice
	for i := 0; i < 2; i++ {
		rec = a.do("PUT", path, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[NotificationDTO](t, rec).Read)
	}
}

// =============================================================================
// REPORT
// =============================================================================

func seedReportMonth(t *testing.T, a *testAPI) string {
	t.Helper()
	admin, _ := a.register("Root", "root@example.com", "ADMIN")
	alice, _ := a.register("Alice", "alice@example.com", "")
	bob, _ := a.register("Bob", "bob@example.com", "")

	decide := func(token, start, end, decision string) {
		created := decode[RequestDTO](t, a.submit(token, "ANNUAL", start, end))
		rec := a.do("PUT", "/api/leaves/"+created.ID+"/decision", admin, DecisionRequest{Decision: decision})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	decide(alice, "2024-01-10", "2024-01-12", "APPROVED")
	decide(bob, "2024-01-15", "2024-01-16", "APPROVED")
	decide(bob, "2024-01-20", "2024-01-20", "REJECTED")

	// Outside the month
	require.Equal(t, http.StatusCreated, a.submit(alice, "CASUAL", "2024-02-01", "2024-02-01").Code)
	return admin
}

func TestReport_JSON(t *testing.T) {
	a := newTestAPI(t)
	admin := seedReportMonth(t, a)

	rec := a.do("GET", "/api/leaves/report?month=2024-01", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[ReportDTO](t, rec)

	assert.Equal(t, "2024-01", rep.Month)
	assert.Equal(t, 3, rep.TotalRequests)
	assert.Equal(t, map[string]int{"PENDING": 0, "APPROVED": 2, "REJECTED": 1}, rep.ByStatus)

	annual := rep.ByType["ANNUAL"]
	assert.Equal(t, 3, annual.Count)
	assert.Equal(t, 6, annual.RequestedDays)
	assert.Equal(t, 5, annual.ApprovedDays)
	assert.Equal(t, "0.83", annual.ApprovalRate.String())

	assert.Equal(t, 3, rep.ByUser["Bob <bob@example.com>"].RequestedDays)
	assert.Equal(t, 2, rep.ByUser["Bob <bob@example.com>"].ApprovedDays)
	assert.Equal(t, 6, rep.TotalDaysRequested)
	assert.Equal(t, 5, rep.TotalDaysApproved)
}

func TestReport_DefaultsToCurrentMonth(t *testing.T) {
	a := newTestAPI(t)
	admin := seedReportMonth(t, a)

	rep := decode[ReportDTO](t, a.do("GET", "/api/leaves/report?month=garbage", admin, nil))
	assert.Equal(t, "2024-01", rep.Month)
	assert.Equal(t, 3, rep.TotalRequests)
}

func TestReport_XLSX(t *testing.T) {
	a := newTestAPI(t)
	admin := seedReportMonth(t, a)

	rec := a.do("GET", "/api/leaves/report?month=2024-01&format=xlsx", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), "leave-report-2024-01.xlsx"))

	book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{SheetSummary, SheetByType, SheetByUser}, book.GetSheetList())

	month, err := book.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01", month)

	rows, err := book.GetRows(SheetByType)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ANNUAL", "3", "6", "5", "0.83"}, rows[1])
}

func TestReport_BadFormat(t *testing.T) {
	a := newTestAPI(t)
	admin, _ := a.register("Root", "root@example.com", "ADMIN")

	rec := a.do("GET", "/api/leaves/report?format=pdf", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidFormat, errMsg(t, rec))
}
