package ordersvc

import (
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/pubsub"
)

// OrderEventKind names what happened to an order.
type OrderEventKind string

const (
	OrderCreated   OrderEventKind = "created"
	OrderAccepted  OrderEventKind = "accepted"
	OrderCompleted OrderEventKind = "completed"
	OrderShipped   OrderEventKind = "shipped"
	OrderDelivered OrderEventKind = "delivered"
	OrderCancelled OrderEventKind = "cancelled"
)

func eventKind(action domain.OrderAction) OrderEventKind {
	switch action {
	case domain.OrderActionAccept:
		return OrderAccepted
	case domain.OrderActionComplete:
		return OrderCompleted
	case domain.OrderActionAddTracking:
		return OrderShipped
	case domain.OrderActionConfirmDelivery:
		return OrderDelivered
	case domain.OrderActionCancel:
		return OrderCancelled
	default:
		return OrderEventKind(action)
	}
}

// OrderEvent is published after the backend accepted an order command.
// Order is the state the backend answered with.
type OrderEvent struct {
	Kind  OrderEventKind
	Order domain.Order
}

// Events fans order events out to interested components.
type Events = pubsub.Broker[OrderEvent]

// NewEvents creates an empty event broker.
func NewEvents() *Events {
	return pubsub.NewBroker[OrderEvent]()
}
