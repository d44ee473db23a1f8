package ordersvc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/repo/kv"
	. "github.com/mkrupp/storefront/internal/svc/ordersvc"
)

func items() []domain.OrderItem {
	return []domain.OrderItem{
		{ProductID: "p1", ProductName: "Mug", Quantity: 2},
		{ProductID: "p2", ProductName: "Plate", Quantity: 1},
	}
}

func TestChecklist_CompletePrepared(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupActors(t)
	store := kv.NewMemoryStore("inv_")

	id := a.seedOrder(domain.OrderStatusPreparing, items()...)
	order, err := a.staff.FetchOrderByID(ctx, id)
	require.NoError(t, err)

	checklist, err := NewChecklist(ctx, a.staff, store, *order)
	require.NoError(t, err)
	assert.False(t, checklist.Done())

	require.NoError(t, checklist.Check(ctx, "p1", true))

	before := len(a.backend.Requests())

	_, err = checklist.CompletePrepared(ctx)
	require.ErrorIs(t, err, domain.ErrChecklistIncomplete)
	assert.Len(t, a.backend.Requests(), before, "incomplete checklist must not reach the backend")

	require.NoError(t, checklist.Check(ctx, "p2", true))

	checked, total := checklist.Progress()
	assert.Equal(t, 2, checked)
	assert.Equal(t, 2, total)

	done, err := checklist.CompletePrepared(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReadyToShip, done.Status)

	found, err := store.Has(ctx, ChecklistKey(id))
	require.NoError(t, err)
	assert.False(t, found, "completed checklist is discarded")
}

func TestChecklist_Persists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore("inv_")
	order := domain.Order{ID: "o1", Status: domain.OrderStatusPreparing, Items: items()}

	first, err := NewChecklist(ctx, nil, store, order)
	require.NoError(t, err)
	require.NoError(t, first.Check(ctx, "p2", true))

	second, err := NewChecklist(ctx, nil, store, order)
	require.NoError(t, err)

	assert.Equal(t, []ChecklistItem{
		{ProductID: "p1", ProductName: "Mug", Quantity: 2},
		{ProductID: "p2", ProductName: "Plate", Quantity: 1, Checked: true},
	}, second.Items())

	require.NoError(t, second.Check(ctx, "p2", false))

	third, err := NewChecklist(ctx, nil, store, order)
	require.NoError(t, err)

	checked, _ := third.Progress()
	assert.Zero(t, checked)
}

func TestChecklist_UnknownProduct(t *testing.T) {
	t.Parallel()

	order := domain.Order{ID: "o1", Items: items()}

	checklist, err := NewChecklist(context.Background(), nil, nil, order)
	require.NoError(t, err)

	require.ErrorIs(t, checklist.Check(context.Background(), "p9", true), domain.ErrNotFound)
}

func TestChecklist_DiscardedOutsidePreparation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore("inv_")
	order := domain.Order{ID: "o1", Status: domain.OrderStatusPreparing, Items: items()}

	first, err := NewChecklist(ctx, nil, store, order)
	require.NoError(t, err)
	require.NoError(t, first.Check(ctx, "p1", true))

	order.Status = domain.OrderStatusCancelled

	stale, err := NewChecklist(ctx, nil, store, order)
	require.NoError(t, err)

	checked, _ := stale.Progress()
	assert.Zero(t, checked)

	found, err := store.Has(ctx, ChecklistKey("o1"))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, stale.Check(ctx, "p2", true))

	found, err = store.Has(ctx, ChecklistKey("o1"))
	require.NoError(t, err)
	assert.False(t, found, "ticks on a finished order stay in memory")
}
