package ordersvc

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/repo/kv"
)

// ChecklistItem is one product line a staff member ticks off while packing.
type ChecklistItem struct {
	ProductID   domain.ID `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	Quantity    int       `json:"quantity"`
	Checked     bool      `json:"checked"`
}

// Checklist tracks which lines of an order have been packed. The checklist
// only lives on the client; ticks are kept in the store, if one is given, so
// they survive between sessions.
type Checklist struct {
	orders *OrderService
	store  kv.Store
	order  domain.Order

	mu    sync.Mutex
	items []ChecklistItem
}

// ChecklistKey returns the store key holding the ticks for orderID.
func ChecklistKey(orderID domain.ID) string {
	return "checklist_" + orderID.String()
}

// DiscardChecklist removes the saved ticks for orderID. store may be nil.
func DiscardChecklist(ctx context.Context, store kv.Store, orderID domain.ID) error {
	if store == nil {
		return nil
	}

	if err := store.Remove(ctx, ChecklistKey(orderID)); err != nil {
		return fmt.Errorf("discard checklist: %w", err)
	}

	return nil
}

// NewChecklist creates an unticked checklist for order and restores any ticks
// saved in store. store may be nil. Ticks are only kept for orders being
// prepared; for any other order saved ticks are discarded and new ones stay
// in memory.
func NewChecklist(ctx context.Context, orders *OrderService, store kv.Store, order domain.Order) (*Checklist, error) {
	c := &Checklist{
		orders: orders,
		store:  store,
		order:  order,
		items:  make([]ChecklistItem, 0, len(order.Items)),
	}

	for _, item := range order.Items {
		c.items = append(c.items, ChecklistItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}

	if store == nil {
		return c, nil
	}

	if order.Status != domain.OrderStatusPreparing {
		if err := DiscardChecklist(ctx, store, order.ID); err != nil {
			return nil, err
		}

		c.store = nil

		return c, nil
	}

	var checked []domain.ID
	if _, err := store.Get(ctx, ChecklistKey(order.ID), &checked); err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}

	for i := range c.items {
		c.items[i].Checked = slices.Contains(checked, c.items[i].ProductID)
	}

	return c, nil
}

// Items returns a copy of the checklist lines.
func (c *Checklist) Items() []ChecklistItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.items)
}

// Check ticks or unticks the line for productID.
func (c *Checklist) Check(ctx context.Context, productID domain.ID, checked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := slices.IndexFunc(c.items, func(item ChecklistItem) bool { return item.ProductID == productID })
	if idx < 0 {
		return fmt.Errorf("check %s: %w", productID, domain.ErrNotFound)
	}

	next := slices.Clone(c.items)
	next[idx].Checked = checked

	if err := c.save(ctx, next); err != nil {
		return err
	}

	c.items = next

	return nil
}

// Progress returns how many lines are ticked out of how many there are.
func (c *Checklist) Progress() (checked, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.items {
		if item.Checked {
			checked++
		}
	}

	return checked, len(c.items)
}

// Done reports whether every line is ticked.
func (c *Checklist) Done() bool {
	checked, total := c.Progress()

	return checked == total
}

// CompletePrepared marks the order ready to ship. It refuses with
// domain.ErrChecklistIncomplete before any request if a line is unticked.
func (c *Checklist) CompletePrepared(ctx context.Context) (*domain.Order, error) {
	if checked, total := c.Progress(); checked != total {
		return nil, fmt.Errorf("%w: %d of %d items checked", domain.ErrChecklistIncomplete, checked, total)
	}

	order, err := c.orders.CompleteOrder(ctx, c.order.ID)
	if err != nil {
		return nil, err
	}

	if err := DiscardChecklist(ctx, c.store, c.order.ID); err != nil {
		c.orders.Log.WarnContext(ctx, "failed to discard checklist", "order_id", c.order.ID, "error", err)
	}

	return order, nil
}

func (c *Checklist) save(ctx context.Context, items []ChecklistItem) error {
	if c.store == nil {
		return nil
	}

	checked := []domain.ID{}

	for _, item := range items {
		if item.Checked {
			checked = append(checked, item.ProductID)
		}
	}

	if err := c.store.Set(ctx, ChecklistKey(c.order.ID), checked); err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}

	return nil
}
