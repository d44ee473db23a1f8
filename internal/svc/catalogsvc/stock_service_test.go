package catalogsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/storefront/internal/backendtest"
	"github.com/mkrupp/storefront/internal/domain"
	. "github.com/mkrupp/storefront/internal/svc/catalogsvc"
)

func setupStock(t *testing.T) (*StockService, *backendtest.Server, domain.ID) {
	t.Helper()

	backend := backendtest.New(t)
	_, client := backend.SignIn(t, "admin@example.com", domain.RoleAdmin)

	product := backend.SeedProduct(domain.Product{
		SKU:          "SKU-MUG",
		Name:         "Mug",
		Price:        decimal.NewFromInt(10),
		Stock:        10,
		InitialStock: 10,
	})

	return NewStockService(client), backend, product
}

func TestStockService_CreateStockMovement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        domain.StockMovementInput
		wantStock int
	}{
		{
			name:      "in adds stock",
			in:        domain.StockMovementInput{MovementType: domain.StockMovementIn, Quantity: 5, Reason: "restock"},
			wantStock: 15,
		},
		{
			name:      "out removes stock",
			in:        domain.StockMovementInput{MovementType: domain.StockMovementOut, Quantity: 4, Reason: "damaged"},
			wantStock: 6,
		},
		{
			name:      "adjustment sets stock",
			in:        domain.StockMovementInput{MovementType: domain.StockMovementAdjustment, Quantity: 3, Reason: "count"},
			wantStock: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, backend, product := setupStock(t)
			tt.in.ProductID = product

			movement, err := svc.CreateStockMovement(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, 10, movement.StockBefore)
			assert.Equal(t, tt.wantStock, movement.StockAfter)

			stored, _ := backend.Product(product)
			assert.Equal(t, tt.wantStock, stored.Stock)
		})
	}
}

func TestStockService_CreateStockMovement_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   domain.StockMovementInput
	}{
		{name: "unknown type", in: domain.StockMovementInput{ProductID: "p1", MovementType: "MOVE", Quantity: 1, Reason: "x"}},
		{name: "zero quantity", in: domain.StockMovementInput{ProductID: "p1", MovementType: "IN", Reason: "x"}},
		{name: "missing reason", in: domain.StockMovementInput{ProductID: "p1", MovementType: "IN", Quantity: 1}},
		{name: "missing product", in: domain.StockMovementInput{MovementType: "IN", Quantity: 1, Reason: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, backend, _ := setupStock(t)

			_, err := svc.CreateStockMovement(context.Background(), tt.in)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, backend.Requests())
		})
	}
}

func TestStockService_ListStockMovements(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, backend, product := setupStock(t)

	for _, typ := range []domain.StockMovementType{domain.StockMovementIn, domain.StockMovementOut, domain.StockMovementIn} {
		_, err := svc.CreateStockMovement(ctx, domain.StockMovementInput{
			ProductID: product, MovementType: typ, Quantity: 1, Reason: "test",
		})
		require.NoError(t, err)
	}

	all, err := svc.ListStockMovements(ctx, StockMovementQuery{Type: MovementTypeAll})
	require.NoError(t, err)
	assert.Len(t, all.Movements, 3)
	assert.Equal(t, 3, all.Pagination.Total)
	assert.Contains(t, backend.Requests(), "GET /api/admin/stock-movements?limit=10&page=1")

	ins, err := svc.ListStockMovements(ctx, StockMovementQuery{Type: "IN", ProductID: product, PerformedBy: "admin"})
	require.NoError(t, err)
	assert.Len(t, ins.Movements, 2)

	today := time.Now().UTC()
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	inRange, err := svc.ListStockMovements(ctx, StockMovementQuery{StartDate: day, EndDate: day})
	require.NoError(t, err)
	assert.Len(t, inRange.Movements, 3)

	before, err := svc.ListStockMovements(ctx, StockMovementQuery{EndDate: day.AddDate(0, 0, -1)})
	require.NoError(t, err)
	assert.Empty(t, before.Movements)
}

func TestStockService_StockSummaryAndProducts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, product := setupStock(t)

	for _, in := range []domain.StockMovementInput{
		{ProductID: product, MovementType: domain.StockMovementIn, Quantity: 7, Reason: "restock"},
		{ProductID: product, MovementType: domain.StockMovementOut, Quantity: 2, Reason: "sample"},
	} {
		_, err := svc.CreateStockMovement(ctx, in)
		require.NoError(t, err)
	}

	summary, err := svc.StockSummary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, domain.StockSummary{TotalIn: 7, TotalOut: 2, MovementCount: 2}, *summary)

	products, err := svc.StockProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 15, products[0].CurrentStock)
}

func TestStockService_RequiresAdmin(t *testing.T) {
	t.Parallel()

	backend := backendtest.New(t)
	_, client := backend.SignIn(t, "staff@example.com", domain.RoleStaff)

	_, err := NewStockService(client).ListStockMovements(context.Background(), StockMovementQuery{})
	require.ErrorIs(t, err, domain.ErrForbidden)
}
