/*
request.go - Leave request lifecycle

REQUEST FLOW:
  Submit:  validate -> resolve type -> count days -> check balance
           -> persist PENDING -> notify every admin (best effort)

  Decide:  validate decision -> load PENDING request -> conditional
           transition (+ balance deduction on approval)
           -> notify requester (best effort)

VALIDATION ORDER (Submit):
  1. typeId, startDate, endDate present        ErrMissingFields
  2. dates parse                               ErrInvalidDate
  3. start not before today                    ErrPastStartDate
  4. end not before start                      ErrEndBeforeStart
  5. type exists                               ErrUnknownLeaveType
  6. stored balance >= days                    *InsufficientBalanceError

SEE ALSO:
  - store.go: DecideRequest contract
  - outbox.go: Notification side effects
*/
package leave

import (
	"context"
	"fmt"
	"strings"
)

// Submission is an employee's leave application. Dates are raw client
// strings so the validation order above stays in one place.
type Submission struct {
	UserID    string
	TypeID    string
	StartDate string
	EndDate   string
	Reason    string
}

// Submit validates and records a new PENDING request.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Request, error) {
	if strings.TrimSpace(sub.TypeID) == "" ||
		strings.TrimSpace(sub.StartDate) == "" ||
		strings.TrimSpace(sub.EndDate) == "" {
		return nil, ErrMissingFields
	}

	start, err := ParseDate(sub.StartDate, s.loc)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(sub.EndDate, s.loc)
	if err != nil {
		return nil, err
	}
	if start.Before(s.Today()) {
		return nil, ErrPastStartDate
	}
	if end.Before(start) {
		return nil, ErrEndBeforeStart
	}

	lt, err := s.store.GetLeaveType(ctx, sub.TypeID)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLeaveType, sub.TypeID)
		}
		return nil, err
	}

	days := DaysInclusive(start, end)

	unlock := s.userLocks.Lock(sub.UserID)
	user, err := s.store.GetUser(ctx, sub.UserID)
	if err != nil {
		unlock()
		return nil, err
	}
	if available := user.Balance.Get(lt.Name); available < days {
		unlock()
		return nil, &InsufficientBalanceError{
			Category:  BalanceKey(lt.Name),
			Available: available,
			Requested: days,
		}
	}

	req := &Request{
		UserID:    user.ID,
		TypeID:    lt.ID,
		StartDate: start,
		EndDate:   end,
		Days:      days,
		Reason:    strings.TrimSpace(sub.Reason),
		Status:    StatusPending,
	}
	err = s.store.CreateRequest(ctx, req)
	unlock()
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.notifyAdmins(ctx, user, lt, req)
	return req, nil
}

// DecisionInput is an admin's verdict on a request.
type DecisionInput struct {
	RequestID string
	AdminID   string
	Decision  Status
	Comment   string
}

// Decide moves a PENDING request to APPROVED or REJECTED. Approval deducts
// the request's days from the requester's balance, floored at zero.
func (s *Service) Decide(ctx context.Context, in DecisionInput) (*Request, error) {
	if !in.Decision.IsDecision() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, in.Decision)
	}

	req, err := s.store.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyDecided
	}

	lt, err := s.store.GetLeaveType(ctx, req.TypeID)
	if err != nil {
		return nil, fmt.Errorf("load leave type %s: %w", req.TypeID, err)
	}

	d := Decision{
		Status:    in.Decision,
		Comment:   strings.TrimSpace(in.Comment),
		DecidedBy: in.AdminID,
		DecidedAt: s.now().UTC(),
	}
	if d.Status == StatusApproved {
		d.Deduction = &Deduction{
			UserID:   req.UserID,
			Category: BalanceKey(lt.Name),
			Days:     req.Days,
		}
	}

	// Same lock as Submit, so a submission never checks a balance that an
	// approval is about to lower.
	unlock := s.userLocks.Lock(req.UserID)
	updated, err := s.store.DecideRequest(ctx, req.ID, d)
	unlock()
	if err != nil {
		return nil, err
	}

	s.notifyRequester(ctx, lt, updated)
	return updated, nil
}

// GetRequest returns a single request.
func (s *Service) GetRequest(ctx context.Context, id string) (*Request, error) {
	return s.store.GetRequest(ctx, id)
}

// MyRequests lists the caller's own requests, newest first.
func (s *Service) MyRequests(ctx context.Context, userID string) ([]Request, error) {
	return s.store.ListRequests(ctx, RequestFilter{UserID: userID})
}

// Requests lists requests across users for admins.
func (s *Service) Requests(ctx context.Context, f RequestFilter) ([]Request, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	return s.store.ListRequests(ctx, f)
}
