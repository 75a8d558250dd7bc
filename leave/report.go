/*
report.go - Monthly aggregate report

PURPOSE:
  Read-side aggregation over every request whose start date falls inside a
  calendar month. No side effects.

OUTPUT:
  - TotalRequests
  - ByStatus: PENDING/APPROVED/REJECTED, always all three keys
  - ByType:   leave type name -> bucket
  - ByUser:   "name <email>" -> bucket
  - TotalDaysRequested / TotalDaysApproved
  - ApprovalRate: approved days / requested days, 2 decimal places

  A bucket is {Count, RequestedDays, ApprovedDays, ApprovalRate}.

SEE ALSO:
  - api/report.go: XLSX rendering of the same report
*/
package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// UnknownLabel names a bucket whose type or user no longer resolves.
const UnknownLabel = "UNKNOWN"

// ReportBucket aggregates a group of requests.
type ReportBucket struct {
	Count         int
	RequestedDays int
	ApprovedDays  int
	ApprovalRate  decimal.Decimal
}

func (b *ReportBucket) add(r Request) {
	b.Count++
	b.RequestedDays += r.Days
	if r.Status == StatusApproved {
		b.ApprovedDays += r.Days
	}
}

func (b *ReportBucket) finish() {
	b.ApprovalRate = approvalRate(b.ApprovedDays, b.RequestedDays)
}

// Report is the monthly aggregate.
type Report struct {
	Month              Month
	TotalRequests      int
	ByStatus           map[Status]int
	ByType             map[string]*ReportBucket
	ByUser             map[string]*ReportBucket
	TotalDaysRequested int
	TotalDaysApproved  int
	ApprovalRate       decimal.Decimal
}

// MonthlyReport aggregates requests starting within m.
func (s *Service) MonthlyReport(ctx context.Context, m Month) (*Report, error) {
	reqs, err := s.store.ListRequests(ctx, RequestFilter{StartFrom: m.First(), StartTo: m.Last()})
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	types, err := s.store.ListLeaveTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leave types: %w", err)
	}
	typeNames := make(map[string]string, len(types))
	for _, t := range types {
		typeNames[t.ID] = t.Name
	}

	userLabels := make(map[string]string)
	for _, r := range reqs {
		if _, ok := userLabels[r.UserID]; ok {
			continue
		}
		u, err := s.store.GetUser(ctx, r.UserID)
		switch {
		case err == nil:
			userLabels[r.UserID] = u.Label()
		case IsNotFound(err):
			userLabels[r.UserID] = r.UserID
		default:
			return nil, fmt.Errorf("load user %s: %w", r.UserID, err)
		}
	}

	return BuildReport(m, reqs, typeNames, userLabels), nil
}

// BuildReport aggregates reqs. typeNames maps type id -> name and
// userLabels maps user id -> label; missing entries fall back to
// UnknownLabel and the raw user id respectively.
func BuildReport(m Month, reqs []Request, typeNames, userLabels map[string]string) *Report {
	rep := &Report{
		Month:    m,
		ByStatus: make(map[Status]int, len(Statuses)),
		ByType:   make(map[string]*ReportBucket),
		ByUser:   make(map[string]*ReportBucket),
	}
	for _, st := range Statuses {
		rep.ByStatus[st] = 0
	}

	for _, r := range reqs {
		rep.TotalRequests++
		rep.ByStatus[r.Status]++

		tname, ok := typeNames[r.TypeID]
		if !ok {
			tname = UnknownLabel
		}
		bucketFor(rep.ByType, tname).add(r)

		uname, ok := userLabels[r.UserID]
		if !ok {
			uname = r.UserID
		}
		bucketFor(rep.ByUser, uname).add(r)

		rep.TotalDaysRequested += r.Days
		if r.Status == StatusApproved {
			rep.TotalDaysApproved += r.Days
		}
	}

	for _, b := range rep.ByType {
		b.finish()
	}
	for _, b := range rep.ByUser {
		b.finish()
	}
	rep.ApprovalRate = approvalRate(rep.TotalDaysApproved, rep.TotalDaysRequested)
	return rep
}

func bucketFor(m map[string]*ReportBucket, key string) *ReportBucket {
	b, ok := m[key]
	if !ok {
		b = &ReportBucket{}
		m[key] = b
	}
	return b
}

func approvalRate(approved, requested int) decimal.Decimal {
	if requested == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(approved)).
		Div(decimal.NewFromInt(int64(requested))).
		Round(2)
}
