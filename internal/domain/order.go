package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a server-owned order as the client sees it. The client never
// changes Status itself; every transition is a dedicated backend command.
type Order struct {
	ID              ID              `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	Status          OrderStatus     `json:"status"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress *Address        `json:"shippingAddress,omitempty"`
	ShippingCompany string          `json:"shippingCompany,omitempty"`
	TrackingNumber  string          `json:"trackingNumber,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	AssignedStaff   ID              `json:"assignedStaff,omitempty"`
	StaffName       string          `json:"staffName,omitempty"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is one product line of an order, priced when the order was placed.
type OrderItem struct {
	ProductID    ID              `json:"productId"`
	ProductName  string          `json:"productName,omitempty"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"priceAtOrder"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Assigned reports whether a staff member has accepted the order.
func (o Order) Assigned() bool {
	return o.AssignedStaff != ""
}

// Can reports whether action is a valid transition from the order's current status.
func (o Order) Can(action OrderAction) bool {
	_, ok := o.Status.Next(action)

	return ok
}

// ItemCount returns the total quantity across all items.
func (o Order) ItemCount() int {
	var n int

	for _, item := range o.Items {
		n += item.Quantity
	}

	return n
}
