package backendtest

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mkrupp/storefront/internal/domain"
)

// visible reports whether acc may see rec: customers their own orders,
// staff and admins every order.
func visible(acc *account, rec *orderRecord) bool {
	return acc.role() != domain.RoleCustomer || rec.owner == acc.user.ID
}

// mine reports whether rec belongs in acc's own order list: customers see
// what they placed, staff what they accepted, admins everything.
func mine(acc *account, rec *orderRecord) bool {
	switch acc.role() {
	case domain.RoleCustomer:
		return rec.owner == acc.user.ID
	case domain.RoleStaff:
		return rec.order.AssignedStaff == acc.user.ID
	default:
		return true
	}
}

func (s *Server) listOrders(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	status := domain.OrderStatus(c.Query("status"))

	var orders []domain.Order

	// newest first
	for _, id := range slices.Backward(s.orderIDs) {
		rec := s.orders[id]
		if mine(acc, rec) && (status == "" || rec.order.Status == status) {
			orders = append(orders, rec.order)
		}
	}

	page, limit := pageParams(c)
	items, pagination := paginate(orders, page, limit)

	ok(c, http.StatusOK, gin.H{"orders": items, "pagination": pagination})
}

func (s *Server) staffQueue(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.caller(c, domain.RoleStaff, domain.RoleAdmin); !found {
		return
	}

	orders := []domain.Order{}

	for _, id := range s.orderIDs {
		order := s.orders[id].order
		if s.queueReturnsEverything || (order.Status == domain.OrderStatusPendingConfirmation && !order.Assigned()) {
			orders = append(orders, order)
		}
	}

	ok(c, http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	rec, exists := s.orders[domain.ID(c.Param("id"))]
	if !exists || !visible(acc, rec) {
		fail(c, http.StatusNotFound, "Order not found")

		return
	}

	// this endpoint nests one level deeper than the commands do
	ok(c, http.StatusOK, gin.H{"data": gin.H{"order": rec.order}})
}

func (s *Server) createOrder(c *gin.Context) {
	var body struct {
		ShippingAddressID domain.ID `json:"shippingAddressId" binding:"required"`
		Items             []struct {
			ProductID domain.ID `json:"productId" binding:"required"`
			Quantity  int       `json:"quantity" binding:"required,min=1"`
		} `json:"items" binding:"required,min=1,dive"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid order data")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c)
	if !found {
		return
	}

	addr, exists := s.addresses[body.ShippingAddressID]
	if !exists || addr.owner != acc.user.ID {
		fail(c, http.StatusBadRequest, "Shipping address not found")

		return
	}

	shipTo := addr.address
	order := domain.Order{
		ID:              s.nextID("o"),
		Status:          domain.OrderStatusPendingConfirmation,
		ShippingAddress: &shipTo,
		TotalAmount:     decimal.Zero,
		CreatedAt:       now(),
	}
	order.OrderNumber = fmt.Sprintf("ORD-%06d", s.seq)
	order.UpdatedAt = order.CreatedAt

	for _, item := range body.Items {
		product, exists := s.products[item.ProductID]
		if !exists {
			fail(c, http.StatusBadRequest, "Product not found: "+item.ProductID.String())

			return
		}

		if product.Stock < item.Quantity {
			fail(c, http.StatusBadRequest, "Insufficient stock for "+product.Name)

			return
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     item.Quantity,
			PriceAtOrder: product.Price,
			Subtotal:     subtotal,
		})
		order.TotalAmount = order.TotalAmount.Add(subtotal)
	}

	for _, item := range order.Items {
		s.moveStock(acc, s.products[item.ProductID], domain.StockMovementOut, item.Quantity, "Order", "ORDER", order.ID)
	}

	s.orders[order.ID] = &orderRecord{owner: acc.user.ID, order: order}
	s.orderIDs = append(s.orderIDs, order.ID)

	ok(c, http.StatusCreated, gin.H{"order": order})
}

func (s *Server) orderAction(action domain.OrderAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			TrackingNumber  string `json:"trackingNumber"`
			ShippingCompany string `json:"shippingCompany"`
			Reason          string `json:"reason"`
		}

		_ = c.ShouldBindJSON(&body) // commands without a body are fine

		s.mu.Lock()
		defer s.mu.Unlock()

		acc, found := s.caller(c)
		if !found {
			return
		}

		rec, exists := s.orders[domain.ID(c.Param("id"))]
		if !exists || !visible(acc, rec) {
			fail(c, http.StatusNotFound, "Order not found")

			return
		}

		if !action.Allows(acc.role()) {
			fail(c, http.StatusForbidden, "Forbidden")

			return
		}

		next, valid := rec.order.Status.Next(action)
		if !valid {
			fail(c, http.StatusBadRequest, fmt.Sprintf("Cannot %s an order in status %s", action, rec.order.Status))

			return
		}

		order := &rec.order

		switch action {
		case domain.OrderActionAccept:
			order.AssignedStaff = acc.user.ID
			order.StaffName = acc.user.FullName
		case domain.OrderActionComplete:
			if order.AssignedStaff != acc.user.ID {
				fail(c, http.StatusForbidden, "Order is assigned to another staff member")

				return
			}
		case domain.OrderActionAddTracking:
			if body.TrackingNumber == "" {
				fail(c, http.StatusBadRequest, "Tracking number is required")

				return
			}

			order.TrackingNumber = body.TrackingNumber
			order.ShippingCompany = body.ShippingCompany
		case domain.OrderActionCancel:
			if body.Reason == "" {
				fail(c, http.StatusBadRequest, "Cancel reason is required")

				return
			}

			order.CancelReason = body.Reason

			for _, item := range order.Items {
				if product, exists := s.products[item.ProductID]; exists {
					s.moveStock(acc, product, domain.StockMovementIn, item.Quantity, "Order cancelled", "ORDER_CANCEL", order.ID)
				}
			}
		case domain.OrderActionConfirmDelivery:
		}

		order.Status = next
		order.UpdatedAt = now()

		s.notify(rec.owner, "ORDER_STATUS", "Order "+order.OrderNumber,
			fmt.Sprintf("Order %s is now %s", order.OrderNumber, next.Label()), order.ID)

		ok(c, http.StatusOK, gin.H{"order": *order})
	}
}
