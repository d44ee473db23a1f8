// Package ordersvc reads orders and sends order commands to the backend.
//
// The backend owns the order state machine. Commands never send a status;
// each transition is its own endpoint and the backend decides whether it is
// legal from the order's current status. A rejected command surfaces as an
// *apiclient.Error the caller can show and recover from.
package ordersvc

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// TaskLimit is the page size used when reading a staff member's tasks.
	TaskLimit = 100
)

// ListOrdersQuery filters and pages FetchMyOrders. Zero values use the
// defaults; an empty Status lists every status.
type ListOrdersQuery struct {
	Status domain.OrderStatus
	Page   int
	Limit  int
}

// OrderPage is one page of orders.
type OrderPage struct {
	Orders     []domain.Order    `json:"orders"`
	Pagination domain.Pagination `json:"pagination"`
}

// CreateOrderRequest is the checkout command.
type CreateOrderRequest struct {
	ShippingAddressID domain.ID         `json:"shippingAddressId" validate:"required"`
	Items             []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

// CreateOrderItem is one product line of CreateOrderRequest.
type CreateOrderItem struct {
	ProductID domain.ID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

type trackingBody struct {
	TrackingNumber string `json:"trackingNumber"`
}

type cancelBody struct {
	Reason string `json:"reason"`
}

// OrderService is the client side of the order resource.
type OrderService struct {
	API    apiclient.API
	Events *Events
	Log    logging.Logger
}

// NewOrderService creates a new OrderService. Successful commands are
// published on events, which may be nil.
func NewOrderService(api apiclient.API, events *Events) *OrderService {
	return &OrderService{
		API:    api,
		Events: events,
		Log:    logging.GetLogger("svc.ordersvc.order_service"),
	}
}

// FetchMyOrders returns one page of the caller's orders: what a customer
// placed, what a staff member accepted, or everything for an admin.
func (s *OrderService) FetchMyOrders(ctx context.Context, q ListOrdersQuery) (*OrderPage, error) {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}

	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}

	path := apiclient.NewQuery().
		Set("status", string(q.Status)).
		Int("page", q.Page).
		Int("limit", q.Limit).
		Path("/api/orders")

	var raw apiclient.RawBody
	if err := s.API.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}

	page := &OrderPage{}

	if _, err := apiclient.Lookup(raw, &page.Orders,
		[]string{"data", "data", "orders"}, []string{"data", "orders"}, []string{"orders"}); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	found, err := apiclient.Lookup(raw, &page.Pagination,
		[]string{"data", "data", "pagination"}, []string{"data", "pagination"}, []string{"pagination"})
	if err != nil {
		return nil, fmt.Errorf("decode pagination: %w", err)
	}

	if !found {
		page.Pagination = domain.NewPagination(len(page.Orders), q.Page, q.Limit)
	}

	if page.Orders == nil {
		page.Orders = []domain.Order{}
	}

	return page, nil
}

// FetchOrderByID returns the order with id. It fails with domain.ErrNotFound
// when the order does not exist or the caller may not see it.
func (s *OrderService) FetchOrderByID(ctx context.Context, id domain.ID) (*domain.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("get order: %w", domain.ErrNotFound)
	}

	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/orders/"+id.String(), &raw); err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	order, err := decodeOrder(raw)
	if err != nil {
		return nil, err
	}

	if order.ID == "" {
		return nil, fmt.Errorf("get order %s: %w", id, domain.ErrNotFound)
	}

	return order, nil
}

// FetchStaffQueueOrders returns the unassigned orders waiting for a staff
// member to accept them. Whatever else the backend returns is dropped.
func (s *OrderService) FetchStaffQueueOrders(ctx context.Context) ([]domain.Order, error) {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/orders/staff/queue", &raw); err != nil {
		return nil, fmt.Errorf("get staff queue: %w", err)
	}

	var orders []domain.Order
	if err := apiclient.UnwrapList(raw, "orders", &orders); err != nil {
		return nil, fmt.Errorf("decode staff queue: %w", err)
	}

	queue := make([]domain.Order, 0, len(orders))

	for _, order := range orders {
		if order.Status == domain.OrderStatusPendingConfirmation && !order.Assigned() {
			queue = append(queue, order)
		}
	}

	return queue, nil
}

// FetchMyTasks returns the orders a staff member still has to work on:
// those being prepared, then those ready to ship.
func (s *OrderService) FetchMyTasks(ctx context.Context) ([]domain.Order, error) {
	statuses := []domain.OrderStatus{domain.OrderStatusPreparing, domain.OrderStatusReadyToShip}
	pages := make([]*OrderPage, len(statuses))

	g, gctx := errgroup.WithContext(ctx)

	for i, status := range statuses {
		g.Go(func() error {
			page, err := s.FetchMyOrders(gctx, ListOrdersQuery{Status: status, Page: 1, Limit: TaskLimit})
			if err != nil {
				return err
			}

			pages[i] = page

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	var tasks []domain.Order
	for _, page := range pages {
		tasks = append(tasks, page.Orders...)
	}

	return tasks, nil
}

// CreateOrder places an order. It does not touch the cart; see Checkout.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (order *domain.Order, err error) {
	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "failed to create order", "error", err)
		} else {
			s.Log.InfoContext(ctx, "order created", "order_id", order.ID, "order_number", order.OrderNumber)
		}
	}()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var raw apiclient.RawBody
	if err := s.API.Post(ctx, "/api/orders", req, &raw); err != nil {
		return nil, fmt.Errorf("post order: %w", err)
	}

	order, err = decodeOrder(raw)
	if err != nil {
		return nil, err
	}

	s.publish(OrderCreated, order)

	return order, nil
}

// AcceptOrder assigns a pending order to the calling staff member.
func (s *OrderService) AcceptOrder(ctx context.Context, id domain.ID) (*domain.Order, error) {
	return s.command(ctx, id, domain.OrderActionAccept, struct{}{})
}

// CompleteOrder marks a prepared order as ready to ship.
func (s *OrderService) CompleteOrder(ctx context.Context, id domain.ID) (*domain.Order, error) {
	return s.command(ctx, id, domain.OrderActionComplete, struct{}{})
}

// AddTracking attaches a carrier tracking number, which ships the order.
func (s *OrderService) AddTracking(ctx context.Context, id domain.ID, trackingNumber string) (*domain.Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)

	if err := validation.Var("trackingNumber", trackingNumber, "required,tracking"); err != nil {
		return nil, err
	}

	return s.command(ctx, id, domain.OrderActionAddTracking, trackingBody{TrackingNumber: trackingNumber})
}

// ConfirmDelivery marks a shipped order as delivered.
func (s *OrderService) ConfirmDelivery(ctx context.Context, id domain.ID) (*domain.Order, error) {
	return s.command(ctx, id, domain.OrderActionConfirmDelivery, struct{}{})
}

// CancelOrder cancels a non-terminal order. A reason is required.
func (s *OrderService) CancelOrder(ctx context.Context, id domain.ID, reason string) (*domain.Order, error) {
	reason = strings.TrimSpace(reason)

	if err := validation.Var("reason", reason, "required"); err != nil {
		return nil, err
	}

	return s.command(ctx, id, domain.OrderActionCancel, cancelBody{Reason: reason})
}

func (s *OrderService) command(
	ctx context.Context, id domain.ID, action domain.OrderAction, body any,
) (order *domain.Order, err error) {
	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "order command rejected", "order_id", id, "action", action, "error", err)
		} else {
			s.Log.InfoContext(ctx, "order command accepted", "order_id", id, "action", action, "status", order.Status)
		}
	}()

	if id == "" {
		return nil, fmt.Errorf("%s order: %w", action, domain.ErrNotFound)
	}

	var raw apiclient.RawBody
	if err := s.API.Post(ctx, "/api/orders/"+id.String()+"/"+string(action), body, &raw); err != nil {
		return nil, fmt.Errorf("%s order %s: %w", action, id, err)
	}

	order, err = decodeOrder(raw)
	if err != nil {
		return nil, err
	}

	s.publish(eventKind(action), order)

	return order, nil
}

func (s *OrderService) publish(kind OrderEventKind, order *domain.Order) {
	if s.Events != nil {
		s.Events.Publish(OrderEvent{Kind: kind, Order: *order})
	}
}

func decodeOrder(raw apiclient.RawBody) (*domain.Order, error) {
	var order domain.Order
	if err := apiclient.Unwrap(raw, "order", &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}

	return &order, nil
}
