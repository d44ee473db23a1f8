package domain

// OrderStatus is the backend's order state.
type OrderStatus string

const (
	OrderStatusPendingConfirmation OrderStatus = "PENDING_CONFIRMATION"
	OrderStatusPreparing           OrderStatus = "PREPARING"
	OrderStatusReadyToShip         OrderStatus = "READY_TO_SHIP"
	OrderStatusShipped             OrderStatus = "SHIPPED"
	OrderStatusDelivered           OrderStatus = "DELIVERED"
	OrderStatusCancelled           OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
//
//nolint:gochecknoglobals
var OrderStatuses = []OrderStatus{
	OrderStatusPendingConfirmation,
	OrderStatusPreparing,
	OrderStatusReadyToShip,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// OrderAction is a named backend command that moves an order between statuses.
type OrderAction string

const (
	OrderActionAccept          OrderAction = "accept"
	OrderActionComplete        OrderAction = "complete"
	OrderActionAddTracking     OrderAction = "tracking"
	OrderActionConfirmDelivery OrderAction = "confirm-delivery"
	OrderActionCancel          OrderAction = "cancel"
)

// OrderActions lists every action in the order they appear in the lifecycle.
//
//nolint:gochecknoglobals
var OrderActions = []OrderAction{
	OrderActionAccept,
	OrderActionComplete,
	OrderActionAddTracking,
	OrderActionConfirmDelivery,
	OrderActionCancel,
}

//nolint:gochecknoglobals
var orderTransitions = map[OrderStatus]map[OrderAction]OrderStatus{
	OrderStatusPendingConfirmation: {
		OrderActionAccept: OrderStatusPreparing,
		OrderActionCancel: OrderStatusCancelled,
	},
	OrderStatusPreparing: {
		OrderActionComplete: OrderStatusReadyToShip,
		OrderActionCancel:   OrderStatusCancelled,
	},
	OrderStatusReadyToShip: {
		OrderActionAddTracking: OrderStatusShipped,
		OrderActionCancel:      OrderStatusCancelled,
	},
	OrderStatusShipped: {
		OrderActionConfirmDelivery: OrderStatusDelivered,
		OrderActionCancel:          OrderStatusCancelled,
	},
}

//nolint:gochecknoglobals
var orderActionRoles = map[OrderAction][]Role{
	OrderActionAccept:          {RoleStaff},
	OrderActionComplete:        {RoleStaff},
	OrderActionAddTracking:     {RoleAdmin},
	OrderActionConfirmDelivery: {RoleCustomer, RoleAdmin},
	OrderActionCancel:          {RoleCustomer, RoleStaff, RoleAdmin},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}

	return false
}

// IsTerminal reports whether no action can leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Next returns the status the backend moves an order to when action succeeds
// from s, and false when the action is not valid from s.
func (s OrderStatus) Next(action OrderAction) (OrderStatus, bool) {
	next, ok := orderTransitions[s][action]

	return next, ok
}

// Label returns a human-readable status name.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPendingConfirmation:
		return "Pending confirmation"
	case OrderStatusPreparing:
		return "Preparing"
	case OrderStatusReadyToShip:
		return "Ready to ship"
	case OrderStatusShipped:
		return "Shipped"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// Allows reports whether role may perform action at all.
func (a OrderAction) Allows(role Role) bool {
	for _, r := range orderActionRoles[a] {
		if r == role {
			return true
		}
	}

	return false
}

// AvailableActions returns the actions role may offer for an order in status s.
// This only drives affordances; the backend stays the arbiter of every transition.
func AvailableActions(s OrderStatus, role Role) []OrderAction {
	var actions []OrderAction

	for _, action := range OrderActions {
		if _, ok := s.Next(action); ok && action.Allows(role) {
			actions = append(actions, action)
		}
	}

	return actions
}
