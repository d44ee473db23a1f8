package cartsvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/repo/kv"
	. "github.com/mkrupp/storefront/internal/svc/cartsvc"
)

var errDiskFull = errors.New("disk full")

// failingStore wraps a MemoryStore and rejects writes while fail is set.
type failingStore struct {
	*kv.MemoryStore
	fail bool
}

func (s *failingStore) Set(ctx context.Context, key string, value any) error {
	if s.fail {
		return errDiskFull
	}

	return s.MemoryStore.Set(ctx, key, value)
}

func newCart(t *testing.T) (*Cart, *failingStore) {
	t.Helper()

	store := &failingStore{MemoryStore: kv.NewMemoryStore("inv_")}

	cart, err := NewCart(context.Background(), store)
	require.NoError(t, err)
	t.Cleanup(cart.Close)

	return cart, store
}

func TestCart_Mutations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		apply func(ctx context.Context, c *Cart) error
		want  []domain.CartLine
	}{
		{
			name: "add merges lines for the same product",
			apply: func(ctx context.Context, c *Cart) error {
				return errors.Join(c.Add(ctx, "p1", 2), c.Add(ctx, "p1", 3))
			},
			want: []domain.CartLine{{ProductID: "p1", Qty: 5}},
		},
		{
			name: "add keeps insertion order",
			apply: func(ctx context.Context, c *Cart) error {
				return errors.Join(c.Add(ctx, "p2", 1), c.Add(ctx, "p1", 1), c.Add(ctx, "p2", 1))
			},
			want: []domain.CartLine{{ProductID: "p2", Qty: 2}, {ProductID: "p1", Qty: 1}},
		},
		{
			name: "negative add that empties a line removes it",
			apply: func(ctx context.Context, c *Cart) error {
				return errors.Join(c.Add(ctx, "p1", 2), c.Add(ctx, "p1", -2))
			},
			want: []domain.CartLine{},
		},
		{
			name: "set qty zero removes the line",
			apply: func(ctx context.Context, c *Cart) error {
				return errors.Join(c.Add(ctx, "p1", 2), c.Add(ctx, "p2", 1), c.SetQty(ctx, "p1", 0))
			},
			want: []domain.CartLine{{ProductID: "p2", Qty: 1}},
		},
		{
			name: "set qty negative removes the line",
			apply: func(ctx context.Context, c *Cart) error {
				return errors.Join(c.Add(ctx, "p1", 2), c.SetQty(ctx, "p1", -1))
			},
			want: []domain.CartLine{},
		},
		{
			name: "set qty overwrites",
			apply: func(ctx context.Context, c *Cart) error {
				return errors.Join(c.Add(ctx, "p1", 2), c.SetQty(ctx, "p1", 7))
			},
			want: []domain.CartLine{{ProductID: "p1", Qty: 7}},
		},
		{
			name: "remove of an absent line is a no-op",
			apply: func(ctx context.Context, c *Cart) error {
				return errors.Join(c.Add(ctx, "p1", 1), c.Remove(ctx, "p9"))
			},
			want: []domain.CartLine{{ProductID: "p1", Qty: 1}},
		},
		{
			name: "clear empties the cart",
			apply: func(ctx context.Context, c *Cart) error {
				return errors.Join(c.Add(ctx, "p1", 1), c.Add(ctx, "p2", 4), c.Clear(ctx))
			},
			want: []domain.CartLine{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			cart, store := newCart(t)

			require.NoError(t, tt.apply(ctx, cart))
			assert.Equal(t, tt.want, cart.Lines())

			var persisted []domain.CartLine
			found, err := store.Get(ctx, kv.KeyCart, &persisted)
			require.NoError(t, err)
			require.True(t, found)
			assert.ElementsMatch(t, tt.want, persisted, "persisted lines must match memory")
		})
	}
}

func TestCart_Count(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cart, _ := newCart(t)

	assert.Zero(t, cart.Count())

	require.NoError(t, cart.Add(ctx, "p1", 2))
	require.NoError(t, cart.Add(ctx, "p2", 3))
	assert.Equal(t, 5, cart.Count())
}

func TestCart_Total(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cart, _ := newCart(t)

	require.NoError(t, cart.Add(ctx, "p1", 2))
	require.NoError(t, cart.Add(ctx, "gone", 3))
	require.NoError(t, cart.Add(ctx, "p2", 1))

	catalog := map[domain.ID]*domain.Product{
		"p1": {ID: "p1", Price: decimal.RequireFromString("19.90")},
		"p2": {ID: "p2", Price: decimal.RequireFromString("5.05")},
	}

	resolver := ProductResolverFunc(func(_ context.Context, id domain.ID) (*domain.Product, bool) {
		p, ok := catalog[id]

		return p, ok
	})

	assert.Equal(t, "44.85", cart.Total(ctx, resolver).StringFixed(2))
	assert.Equal(t, 6, cart.Count(), "unresolved lines still count")
}

func TestCart_PersistFailureLeavesMemoryUnchanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cart, store := newCart(t)

	require.NoError(t, cart.Add(ctx, "p1", 1))

	store.fail = true

	require.ErrorIs(t, cart.Add(ctx, "p1", 4), errDiskFull)
	require.ErrorIs(t, cart.SetQty(ctx, "p1", 0), errDiskFull)
	require.ErrorIs(t, cart.Clear(ctx), errDiskFull)

	assert.Equal(t, []domain.CartLine{{ProductID: "p1", Qty: 1}}, cart.Lines())
}

func TestCart_LoadsPersistedLines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore("inv_")

	first, err := NewCart(ctx, store)
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, "p1", 2))
	require.NoError(t, first.Add(ctx, "p2", 1))

	second, err := NewCart(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, first.Lines(), second.Lines())
}

func TestCart_LoadDropsInvalidLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []domain.CartLine
	}{
		{
			name: "malformed value starts empty",
			raw:  `{"not":"a cart"`,
			want: []domain.CartLine{},
		},
		{
			name: "non-positive quantities are dropped",
			raw:  `[{"productId":"p1","qty":0},{"productId":"p2","qty":-3},{"productId":"p3","qty":2}]`,
			want: []domain.CartLine{{ProductID: "p3", Qty: 2}},
		},
		{
			name: "duplicate lines are merged",
			raw:  `[{"productId":"p1","qty":1},{"productId":"p1","qty":2}]`,
			want: []domain.CartLine{{ProductID: "p1", Qty: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := kv.NewMemoryStore("inv_")
			store.SetRaw(kv.KeyCart, []byte(tt.raw))

			cart, err := NewCart(context.Background(), store)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cart.Lines())
		})
	}
}

func TestCart_Subscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cart, store := newCart(t)

	updates, cancel := cart.Subscribe()
	defer cancel()

	require.NoError(t, cart.Add(ctx, "p1", 2))

	select {
	case lines := <-updates:
		assert.Equal(t, []domain.CartLine{{ProductID: "p1", Qty: 2}}, lines)
	case <-time.After(time.Second):
		t.Fatal("no cart update received")
	}

	store.fail = true
	require.Error(t, cart.Add(ctx, "p1", 1))

	select {
	case lines := <-updates:
		t.Fatalf("failed mutation published %v", lines)
	default:
	}
}
