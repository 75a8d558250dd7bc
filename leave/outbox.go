package leave

import (
	"context"
	"fmt"
)

// =============================================================================
// NOTIFICATION OUTBOX
// =============================================================================

// Notifications lists the user's own notifications, newest first.
func (s *Service) Notifications(ctx context.Context, userID string) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID)
}

// MarkNotificationRead flips Read for a notification owned by userID.
// Already-read notifications are returned unchanged.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, id string) (*Notification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, ErrForbidden
	}
	if n.Read {
		return n, nil
	}
	return s.store.MarkNotificationRead(ctx, id)
}

// notifyAdmins tells every admin about a new request. Best effort.
func (s *Service) notifyAdmins(ctx context.Context, requester *User, lt *LeaveType, req *Request) {
	admins, err := s.store.ListUsersByRole(ctx, RoleAdmin)
	if err != nil {
		s.logger.Printf("notify admins for request %s failed: %v", req.ID, err)
		return
	}
	if len(admins) == 0 {
		return
	}

	msg := fmt.Sprintf("New leave request from %s (%s) for %s %s - %s",
		requester.Name, requester.Email, lt.Name, req.StartDate, req.EndDate)

	ns := make([]Notification, 0, len(admins))
	for _, a := range admins {
		ns = append(ns, Notification{UserID: a.ID, Message: msg})
	}
	if err := s.store.CreateNotifications(ctx, ns); err != nil {
		s.logger.Printf("notify admins for request %s failed: %v", req.ID, err)
	}
}

// notifyRequester tells the requester how their request was decided. Best
// effort.
func (s *Service) notifyRequester(ctx context.Context, lt *LeaveType, req *Request) {
	msg := fmt.Sprintf("Your leave request (%s %s - %s) was %s.",
		lt.Name, req.StartDate, req.EndDate, req.Status)
	if req.AdminComment != "" {
		msg += "\nComment: " + req.AdminComment
	}

	n := []Notification{{UserID: req.UserID, Message: msg}}
	if err := s.store.CreateNotifications(ctx, n); err != nil {
		s.logger.Printf("notify requester for request %s failed: %v", req.ID, err)
	}
}
