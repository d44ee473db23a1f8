package notificationsvc_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/storefront/internal/backendtest"
	"github.com/mkrupp/storefront/internal/domain"
	. "github.com/mkrupp/storefront/internal/svc/notificationsvc"
)

func setupTestService(t *testing.T) (*NotificationService, *backendtest.Server, domain.ID) {
	t.Helper()

	backend := backendtest.New(t)
	owner, client := backend.SignIn(t, "customer@example.com", domain.RoleCustomer)

	return NewNotificationService(client), backend, owner
}

func TestNotificationService_ListAndRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, backend, owner := setupTestService(t)

	first := backend.SeedNotification(owner, domain.Notification{Type: "ORDER_STATUS", Title: "one"})
	backend.SeedNotification(owner, domain.Notification{Type: "ORDER_STATUS", Title: "two"})
	backend.SeedNotification(owner, domain.Notification{Type: "ORDER_STATUS", Title: "read", IsRead: true})
	backend.SeedNotification("someone-else", domain.Notification{Title: "foreign"})

	all, err := svc.List(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.Len(t, all.Notifications, 3)
	assert.Equal(t, "read", all.Notifications[0].Title, "newest first")

	unread, err := svc.List(ctx, 1, 10, true)
	require.NoError(t, err)
	assert.Len(t, unread.Notifications, 2)
	assert.Contains(t, backend.Requests(), "GET /api/notifications?limit=10&page=1&unreadOnly=true")

	assert.Equal(t, 2, svc.UnreadCount(ctx))

	read, err := svc.MarkRead(ctx, first)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.Equal(t, 1, svc.UnreadCount(ctx))

	updated, err := svc.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Zero(t, svc.UnreadCount(ctx))

	_, err = svc.MarkRead(ctx, "n404")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationService_UnreadCountToleratesFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		inject func(b *backendtest.Server)
	}{
		{
			name: "server error",
			inject: func(b *backendtest.Server) {
				b.Fail(http.MethodGet, "/api/notifications/unread-count", http.StatusInternalServerError, "boom")
			},
		},
		{
			name: "network failure",
			inject: func(b *backendtest.Server) {
				b.FailNetwork(http.MethodGet, "/api/notifications/unread-count")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, backend, owner := setupTestService(t)
			backend.SeedNotification(owner, domain.Notification{Title: "unread"})

			tt.inject(backend)

			assert.Zero(t, svc.UnreadCount(context.Background()))
		})
	}
}

func TestNotificationService_RequiresSession(t *testing.T) {
	t.Parallel()

	backend := backendtest.New(t)
	svc := NewNotificationService(backend.NewClient(t, ""))

	_, err := svc.List(context.Background(), 1, 10, false)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, svc.UnreadCount(context.Background()))
}
