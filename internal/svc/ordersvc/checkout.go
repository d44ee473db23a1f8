package ordersvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/svc/cartsvc"
	"github.com/mkrupp/storefront/internal/validation"
)

// Checkout turns the cart into an order.
type Checkout struct {
	Orders *OrderService
	Cart   *cartsvc.Cart
	Log    logging.Logger
}

// NewCheckout creates a new Checkout.
func NewCheckout(orders *OrderService, cart *cartsvc.Cart) *Checkout {
	return &Checkout{
		Orders: orders,
		Cart:   cart,
		Log:    logging.GetLogger("svc.ordersvc.checkout"),
	}
}

// PlaceOrder sends the cart's lines as a new order shipped to addressID and
// clears the cart once the backend accepted it. The order is returned even
// if clearing the cart fails afterwards.
func (c *Checkout) PlaceOrder(ctx context.Context, addressID domain.ID) (*domain.Order, error) {
	lines := c.Cart.Lines()
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	if err := validation.Var("shippingAddressId", addressID.String(), "required"); err != nil {
		return nil, err
	}

	req := CreateOrderRequest{
		ShippingAddressID: addressID,
		Items:             make([]CreateOrderItem, 0, len(lines)),
	}

	for _, line := range lines {
		req.Items = append(req.Items, CreateOrderItem{ProductID: line.ProductID, Quantity: line.Qty})
	}

	order, err := c.Orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	if err := c.Cart.Clear(ctx); err != nil {
		c.Log.WarnContext(ctx, "order placed but cart not cleared", "order_id", order.ID, "error", err)

		return order, fmt.Errorf("clear cart after order %s: %w", order.OrderNumber, err)
	}

	return order, nil
}
