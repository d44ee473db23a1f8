// Package notificationsvc reads and acknowledges the signed-in user's notifications.
package notificationsvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
)

// NotificationPage is one page of notifications, newest first.
type NotificationPage struct {
	Notifications []domain.Notification `json:"notifications"`
	Pagination    domain.Pagination     `json:"pagination"`
}

// NotificationService is the client side of the notification resource.
type NotificationService struct {
	API apiclient.API
	Log logging.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(api apiclient.API) *NotificationService {
	return &NotificationService{
		API: api,
		Log: logging.GetLogger("svc.notificationsvc.notification_service"),
	}
}

// List returns one page of notifications.
func (s *NotificationService) List(ctx context.Context, page, limit int, unreadOnly bool) (*NotificationPage, error) {
	q := apiclient.NewQuery().Int("page", max(page, 1)).Int("limit", limit)
	if unreadOnly {
		q.Bool("unreadOnly", &unreadOnly)
	}

	var raw apiclient.RawBody
	if err := s.API.Get(ctx, q.Path("/api/notifications"), &raw); err != nil {
		return nil, fmt.Errorf("get notifications: %w", err)
	}

	result := &NotificationPage{}

	if err := apiclient.UnwrapList(raw, "notifications", &result.Notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	found, err := apiclient.Lookup(raw, &result.Pagination, []string{"data", "pagination"}, []string{"pagination"})
	if err != nil {
		return nil, fmt.Errorf("decode pagination: %w", err)
	}

	if !found {
		result.Pagination = domain.NewPagination(len(result.Notifications), max(page, 1), limit)
	}

	if result.Notifications == nil {
		result.Notifications = []domain.Notification{}
	}

	return result, nil
}

// UnreadCount returns the number of unread notifications. A badge is not
// worth an error: failures are logged and count as zero.
func (s *NotificationService) UnreadCount(ctx context.Context) int {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/notifications/unread-count", &raw); err != nil {
		s.Log.WarnContext(ctx, "failed to count unread notifications", "error", err)

		return 0
	}

	var count int

	found, err := apiclient.Lookup(raw, &count,
		[]string{"data", "count"}, []string{"data", "unreadCount"}, []string{"count"}, []string{"data"})
	if err != nil || !found {
		s.Log.WarnContext(ctx, "unexpected unread count response", "error", err)

		return 0
	}

	return count
}

// MarkRead marks the notification with id as read.
func (s *NotificationService) MarkRead(ctx context.Context, id domain.ID) (*domain.Notification, error) {
	var raw apiclient.RawBody
	if err := s.API.Patch(ctx, "/api/notifications/"+id.String()+"/read", struct{}{}, &raw); err != nil {
		return nil, fmt.Errorf("mark notification %s read: %w", id, err)
	}

	var notification domain.Notification
	if err := apiclient.Unwrap(raw, "notification", &notification); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}

	return &notification, nil
}

// MarkAllRead marks every notification as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int, error) {
	var raw apiclient.RawBody
	if err := s.API.Patch(ctx, "/api/notifications/read-all", struct{}{}, &raw); err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}

	var updated int
	if _, err := apiclient.Lookup(raw, &updated, []string{"data", "updated"}, []string{"updated"}); err != nil {
		return 0, fmt.Errorf("decode read-all result: %w", err)
	}

	return updated, nil
}
