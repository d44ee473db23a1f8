package ordersvc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/backendtest"
	"github.com/mkrupp/storefront/internal/domain"
	. "github.com/mkrupp/storefront/internal/svc/ordersvc"
)

type actors struct {
	backend  *backendtest.Server
	events   *Events
	customer *OrderService
	staff    *OrderService
	admin    *OrderService

	customerID domain.ID
	staffID    domain.ID
}

func setupActors(t *testing.T) *actors {
	t.Helper()

	backend := backendtest.New(t)
	events := NewEvents()
	t.Cleanup(events.Close)

	customerID, customer := backend.SignIn(t, "customer@example.com", domain.RoleCustomer)
	staffID, staff := backend.SignIn(t, "staff@example.com", domain.RoleStaff)
	_, admin := backend.SignIn(t, "admin@example.com", domain.RoleAdmin)

	return &actors{
		backend:    backend,
		events:     events,
		customer:   NewOrderService(customer, events),
		staff:      NewOrderService(staff, events),
		admin:      NewOrderService(admin, events),
		customerID: customerID,
		staffID:    staffID,
	}
}

func (a *actors) seedProduct(name string, price string, stock int) domain.ID {
	return a.backend.SeedProduct(domain.Product{
		SKU:          "SKU-" + name,
		Name:         name,
		Price:        decimal.RequireFromString(price),
		Stock:        stock,
		InitialStock: stock,
	})
}

func (a *actors) seedAddress() domain.ID {
	return a.backend.SeedAddress(a.customerID, domain.Address{
		RecipientName: "Cee",
		PhoneNumber:   "0812345678",
		AddressLine1:  "1 Silom Rd",
		SubDistrict:   "Silom",
		District:      "Bang Rak",
		Province:      "Bangkok",
		PostalCode:    "10500",
	})
}

func (a *actors) seedOrder(status domain.OrderStatus, items ...domain.OrderItem) domain.ID {
	order := domain.Order{Status: status, Items: items}
	if status != domain.OrderStatusPendingConfirmation {
		order.AssignedStaff = a.staffID
	}

	return a.backend.SeedOrder(a.customerID, order)
}

func rejection(t *testing.T, err error) *apiclient.Error {
	t.Helper()

	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)

	return apiErr
}

func TestOrderService_FetchMyOrders_Pagination(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupActors(t)

	for range 25 {
		a.seedOrder(domain.OrderStatusPendingConfirmation)
	}

	page, err := a.customer.FetchMyOrders(ctx, ListOrdersQuery{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Len(t, page.Orders, 10)
	assert.Equal(t, 25, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, 2, page.Pagination.Page)

	last, err := a.customer.FetchMyOrders(ctx, ListOrdersQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, last.Orders, 5)
}

func TestOrderService_FetchMyOrders_Query(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query ListOrdersQuery
		want  string
	}{
		{
			name: "defaults page and limit",
			want: "GET /api/orders?limit=10&page=1",
		},
		{
			name:  "sends status filter",
			query: ListOrdersQuery{Status: domain.OrderStatusShipped, Page: 3, Limit: 5},
			want:  "GET /api/orders?limit=5&page=3&status=SHIPPED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := setupActors(t)

			page, err := a.customer.FetchMyOrders(context.Background(), tt.query)
			require.NoError(t, err)
			assert.NotNil(t, page.Orders)
			assert.Contains(t, a.backend.Requests(), tt.want)
		})
	}
}

func TestOrderService_FetchMyOrders_StatusFilter(t *testing.T) {
	t.Parallel()

	a := setupActors(t)

	shipped := a.seedOrder(domain.OrderStatusShipped)
	a.seedOrder(domain.OrderStatusPendingConfirmation)

	page, err := a.customer.FetchMyOrders(context.Background(), ListOrdersQuery{Status: domain.OrderStatusShipped})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, shipped, page.Orders[0].ID)
}

func TestOrderService_FetchOrderByID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupActors(t)

	id := a.seedOrder(domain.OrderStatusPreparing)

	order, err := a.customer.FetchOrderByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, order.ID)
	assert.Equal(t, domain.OrderStatusPreparing, order.Status)
	assert.Equal(t, a.staffID, order.AssignedStaff)

	tests := []struct {
		name    string
		service *OrderService
		id      domain.ID
	}{
		{name: "unknown id", service: a.customer, id: "o999"},
		{name: "empty id", service: a.customer, id: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.service.FetchOrderByID(ctx, tt.id)
			require.ErrorIs(t, err, domain.ErrNotFound)
		})
	}

	t.Run("order of another customer", func(t *testing.T) {
		_, other := a.backend.SignIn(t, "other@example.com", domain.RoleCustomer)

		_, err := NewOrderService(other, nil).FetchOrderByID(ctx, id)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestOrderService_FetchStaffQueueOrders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		unfiltered bool
	}{
		{name: "filtered backend"},
		{name: "unfiltered backend", unfiltered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := setupActors(t)
			a.backend.SetQueueReturnsEverything(tt.unfiltered)

			waiting := a.seedOrder(domain.OrderStatusPendingConfirmation)
			a.seedOrder(domain.OrderStatusPreparing)
			a.seedOrder(domain.OrderStatusCancelled)
			a.backend.SeedOrder(a.customerID, domain.Order{
				Status:        domain.OrderStatusPendingConfirmation,
				AssignedStaff: a.staffID,
			})

			queue, err := a.staff.FetchStaffQueueOrders(context.Background())
			require.NoError(t, err)
			require.Len(t, queue, 1)
			assert.Equal(t, waiting, queue[0].ID)
		})
	}
}

func TestOrderService_FetchStaffQueueOrders_Forbidden(t *testing.T) {
	t.Parallel()

	a := setupActors(t)

	_, err := a.customer.FetchStaffQueueOrders(context.Background())
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestOrderService_FetchMyTasks(t *testing.T) {
	t.Parallel()

	a := setupActors(t)

	preparing := a.seedOrder(domain.OrderStatusPreparing)
	ready := a.seedOrder(domain.OrderStatusReadyToShip)
	a.seedOrder(domain.OrderStatusShipped)
	a.seedOrder(domain.OrderStatusPendingConfirmation)

	tasks, err := a.staff.FetchMyTasks(context.Background())
	require.NoError(t, err)

	ids := make([]domain.ID, 0, len(tasks))
	for _, order := range tasks {
		ids = append(ids, order.ID)
	}

	assert.Equal(t, []domain.ID{preparing, ready}, ids)
	assert.Contains(t, a.backend.Requests(), "GET /api/orders?limit=100&page=1&status=PREPARING")
	assert.Contains(t, a.backend.Requests(), "GET /api/orders?limit=100&page=1&status=READY_TO_SHIP")
}

func TestOrderService_FetchMyTasks_PartialFailure(t *testing.T) {
	t.Parallel()

	a := setupActors(t)
	a.backend.Fail(http.MethodGet, "/api/orders", http.StatusInternalServerError, "database down")

	_, err := a.staff.FetchMyTasks(context.Background())
	require.Error(t, err)
	assert.Equal(t, "database down", rejection(t, err).Message)
}

func TestOrderService_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupActors(t)

	product := a.seedProduct("Mug", "120.00", 10)
	address := a.seedAddress()

	events, cancel := a.events.Subscribe()
	defer cancel()

	created, err := a.customer.CreateOrder(ctx, CreateOrderRequest{
		ShippingAddressID: address,
		Items:             []CreateOrderItem{{ProductID: product, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPendingConfirmation, created.Status)
	assert.Equal(t, "240", created.TotalAmount.String())

	stocked, _ := a.backend.Product(product)
	assert.Equal(t, 8, stocked.Stock)

	accepted, err := a.staff.AcceptOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, accepted.Status)
	assert.Equal(t, a.staffID, accepted.AssignedStaff)

	completed, err := a.staff.CompleteOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReadyToShip, completed.Status)
	assert.Contains(t, domain.AvailableActions(completed.Status, domain.RoleAdmin), domain.OrderActionAddTracking)

	shipped, err := a.admin.AddTracking(ctx, created.ID, " TH-12345678 ")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, shipped.Status)
	assert.Equal(t, "TH-12345678", shipped.TrackingNumber)

	refetched, err := a.customer.FetchOrderByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, refetched.Status)

	delivered, err := a.customer.ConfirmDelivery(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status)
	assert.True(t, delivered.Status.IsTerminal())

	var kinds []OrderEventKind

	for len(kinds) < 5 {
		select {
		case event := <-events:
			kinds = append(kinds, event.Kind)
		case <-time.After(time.Second):
			t.Fatalf("only received %v", kinds)
		}
	}

	assert.Equal(t, []OrderEventKind{OrderCreated, OrderAccepted, OrderCompleted, OrderShipped, OrderDelivered}, kinds)
}

func TestOrderService_StaleConfirmDeliveryIsRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupActors(t)

	id := a.seedOrder(domain.OrderStatusReadyToShip)

	view, err := a.customer.FetchOrderByID(ctx, id)
	require.NoError(t, err)
	assert.NotContains(t, domain.AvailableActions(view.Status, domain.RoleCustomer), domain.OrderActionConfirmDelivery)

	_, err = a.customer.ConfirmDelivery(ctx, view.ID)
	apiErr := rejection(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Cannot confirm-delivery an order in status READY_TO_SHIP", apiErr.Message)
	assert.True(t, apiclient.IsRejection(err))

	assert.Equal(t, domain.OrderStatusReadyToShip, view.Status, "local view must not flip")

	server, _ := a.backend.Order(id)
	assert.Equal(t, domain.OrderStatusReadyToShip, server.Status)
}

func TestOrderService_CommandsRejectedByRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupActors(t)

	pending := a.seedOrder(domain.OrderStatusPendingConfirmation)
	ready := a.seedOrder(domain.OrderStatusReadyToShip)

	_, err := a.customer.AcceptOrder(ctx, pending)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = a.staff.AddTracking(ctx, ready, "TH12345678")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestOrderService_InputValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call func(ctx context.Context, s *OrderService, id domain.ID) error
	}{
		{
			name: "tracking number too short",
			call: func(ctx context.Context, s *OrderService, id domain.ID) error {
				_, err := s.AddTracking(ctx, id, "TH123")

				return err
			},
		},
		{
			name: "tracking number with spaces",
			call: func(ctx context.Context, s *OrderService, id domain.ID) error {
				_, err := s.AddTracking(ctx, id, "TH 1234 5678")

				return err
			},
		},
		{
			name: "cancel without reason",
			call: func(ctx context.Context, s *OrderService, id domain.ID) error {
				_, err := s.CancelOrder(ctx, id, "   ")

				return err
			},
		},
		{
			name: "order without items",
			call: func(ctx context.Context, s *OrderService, _ domain.ID) error {
				_, err := s.CreateOrder(ctx, CreateOrderRequest{ShippingAddressID: "a1"})

				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := setupActors(t)
			id := a.seedOrder(domain.OrderStatusReadyToShip)
			before := len(a.backend.Requests())

			err := tt.call(context.Background(), a.admin, id)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Len(t, a.backend.Requests(), before, "no request may be sent")
		})
	}
}

func TestOrderService_CancelRestocks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupActors(t)

	product := a.seedProduct("Plate", "80.00", 5)
	address := a.seedAddress()

	order, err := a.customer.CreateOrder(ctx, CreateOrderRequest{
		ShippingAddressID: address,
		Items:             []CreateOrderItem{{ProductID: product, Quantity: 3}},
	})
	require.NoError(t, err)

	cancelled, err := a.customer.CancelOrder(ctx, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)

	restocked, _ := a.backend.Product(product)
	assert.Equal(t, 5, restocked.Stock)

	_, err = a.customer.CancelOrder(ctx, order.ID, "again")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, http.StatusBadRequest, rejection(t, err).Status)
}

func TestOrderService_SemanticFailure(t *testing.T) {
	t.Parallel()

	a := setupActors(t)
	id := a.seedOrder(domain.OrderStatusPendingConfirmation)

	a.backend.Fail(http.MethodPost, "/api/orders/"+id.String()+"/accept", 0, "Order is locked")

	events, cancel := a.events.Subscribe()
	defer cancel()

	_, err := a.staff.AcceptOrder(context.Background(), id)
	apiErr := rejection(t, err)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Equal(t, "Order is locked", apiErr.Message)

	select {
	case event := <-events:
		t.Fatalf("rejected command published %v", event.Kind)
	default:
	}
}

// fixedAPI answers every GET with body.
type fixedAPI struct {
	body string
}

func (f fixedAPI) Get(_ context.Context, _ string, out any) error {
	return json.Unmarshal([]byte(f.body), out)
}

func (fixedAPI) Post(context.Context, string, any, any) error  { return nil }
func (fixedAPI) Put(context.Context, string, any, any) error   { return nil }
func (fixedAPI) Patch(context.Context, string, any, any) error { return nil }
func (fixedAPI) Delete(context.Context, string, any) error     { return nil }

func TestOrderService_FetchStaffQueueOrders_NullList(t *testing.T) {
	t.Parallel()

	events := NewEvents()
	t.Cleanup(events.Close)

	svc := NewOrderService(fixedAPI{body: `{"success":true,"data":{"orders":null}}`}, events)

	queue, err := svc.FetchStaffQueueOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, queue)
}
