package ordersvc_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/storefront/internal/domain"
	. "github.com/mkrupp/storefront/internal/svc/ordersvc"
)

func nextCount(t *testing.T, updates <-chan int) int {
	t.Helper()

	select {
	case n, ok := <-updates:
		require.True(t, ok, "updates closed")

		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no badge update received")

		return 0
	}
}

func TestQueueBadge_RecountsOnAccept(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := setupActors(t)

	first := a.seedOrder(domain.OrderStatusPendingConfirmation)
	a.seedOrder(domain.OrderStatusPendingConfirmation)

	badge := NewQueueBadge(a.staff)
	updates, unsubscribe := badge.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})

	go func() {
		defer close(done)
		badge.Run(ctx)
	}()

	assert.Equal(t, 2, nextCount(t, updates))

	// accepting through another service instance still reaches the badge
	_, err := a.admin.AcceptOrder(ctx, first)
	require.Error(t, err, "admins cannot accept")

	other := NewOrderService(a.staff.API, a.events)
	_, err = other.AcceptOrder(ctx, first)
	require.NoError(t, err)

	assert.Equal(t, 1, nextCount(t, updates))
	assert.Equal(t, 1, badge.Count())

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("badge did not stop")
	}
}

func TestQueueBadge_RefreshFailureKeepsCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupActors(t)
	a.seedOrder(domain.OrderStatusPendingConfirmation)

	badge := NewQueueBadge(a.staff)

	n, err := badge.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a.backend.FailNetwork(http.MethodGet, "/api/orders/staff/queue")

	n, err = badge.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, n)
}
