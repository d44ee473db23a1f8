// Package cartsvc holds the shopper's selection before checkout.
package cartsvc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/infra/pubsub"
	"github.com/mkrupp/storefront/internal/repo/kv"
)

// ProductResolver looks up the current state of a product. ok is false when
// the product no longer exists or cannot be fetched.
type ProductResolver interface {
	ResolveProduct(ctx context.Context, id domain.ID) (product *domain.Product, ok bool)
}

// ProductResolverFunc adapts a function to ProductResolver.
type ProductResolverFunc func(ctx context.Context, id domain.ID) (*domain.Product, bool)

func (f ProductResolverFunc) ResolveProduct(ctx context.Context, id domain.ID) (*domain.Product, bool) {
	return f(ctx, id)
}

// Cart maps products to quantities. It holds at most one line per product
// and never a line with a quantity <= 0. Every mutation is written through
// to the store before the in-memory lines change; if the write fails the
// cart is left as it was.
type Cart struct {
	store  kv.Store
	log    logging.Logger
	broker *pubsub.Broker[[]domain.CartLine]

	mu    sync.Mutex
	lines []domain.CartLine
}

// NewCart creates a Cart backed by store and loads the persisted lines.
// Unreadable persisted lines start an empty cart.
func NewCart(ctx context.Context, store kv.Store) (*Cart, error) {
	cart := &Cart{
		store:  store,
		log:    logging.GetLogger("svc.cartsvc.cart"),
		broker: pubsub.NewBroker[[]domain.CartLine](),
	}

	var lines []domain.CartLine

	if _, err := store.Get(ctx, kv.KeyCart, &lines); err != nil {
		if !errors.Is(err, kv.ErrMalformedValue) {
			return nil, fmt.Errorf("load cart: %w", err)
		}

		cart.log.WarnContext(ctx, "discarding unreadable cart", "error", err)

		lines = nil
	}

	cart.lines = normalize(lines)

	return cart, nil
}

// Add puts qty more of productID into the cart, merging with an existing line.
func (c *Cart) Add(ctx context.Context, productID domain.ID, qty int) error {
	return c.mutate(ctx, "add", func(lines []domain.CartLine) []domain.CartLine {
		if idx := indexOf(lines, productID); idx >= 0 {
			lines[idx].Qty += qty

			return lines
		}

		return append(lines, domain.CartLine{ProductID: productID, Qty: qty})
	})
}

// Remove drops the line for productID. Removing an absent line is a no-op.
func (c *Cart) Remove(ctx context.Context, productID domain.ID) error {
	return c.mutate(ctx, "remove", func(lines []domain.CartLine) []domain.CartLine {
		if idx := indexOf(lines, productID); idx >= 0 {
			return slices.Delete(lines, idx, idx+1)
		}

		return lines
	})
}

// SetQty overwrites the quantity for productID; qty <= 0 removes the line.
// The quantity is not checked against stock.
func (c *Cart) SetQty(ctx context.Context, productID domain.ID, qty int) error {
	if qty <= 0 {
		return c.Remove(ctx, productID)
	}

	return c.mutate(ctx, "set qty", func(lines []domain.CartLine) []domain.CartLine {
		if idx := indexOf(lines, productID); idx >= 0 {
			lines[idx].Qty = qty

			return lines
		}

		return append(lines, domain.CartLine{ProductID: productID, Qty: qty})
	})
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	return c.mutate(ctx, "clear", func([]domain.CartLine) []domain.CartLine {
		return nil
	})
}

// Lines returns a copy of the cart's lines in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.lines)
}

// Count returns the sum of all line quantities.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for _, line := range c.lines {
		n += line.Qty
	}

	return n
}

// Total prices every line with the product's current price. Lines whose
// product cannot be resolved contribute zero.
func (c *Cart) Total(ctx context.Context, resolver ProductResolver) decimal.Decimal {
	total := decimal.Zero

	for _, line := range c.Lines() {
		product, ok := resolver.ResolveProduct(ctx, line.ProductID)
		if !ok || product == nil {
			c.log.DebugContext(ctx, "unresolved cart line priced at zero", "product_id", line.ProductID)

			continue
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}

	return total
}

// Subscribe returns a channel receiving a snapshot of the lines after every
// successful mutation, and a function to stop receiving.
func (c *Cart) Subscribe() (<-chan []domain.CartLine, func()) {
	return c.broker.Subscribe()
}

// Close stops all subscriptions.
func (c *Cart) Close() {
	c.broker.Close()
}

func (c *Cart) mutate(ctx context.Context, op string, fn func([]domain.CartLine) []domain.CartLine) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := normalize(fn(slices.Clone(c.lines)))

	defer func() {
		if err != nil {
			c.log.ErrorContext(ctx, "cart "+op+" failed", "error", err)
		} else {
			c.log.DebugContext(ctx, "cart "+op, "lines", len(next))
		}
	}()

	if err := c.store.Set(ctx, kv.KeyCart, next); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}

	c.lines = next
	c.broker.Publish(slices.Clone(next))

	return nil
}

// normalize drops non-positive lines and merges duplicates, so persisted
// state always satisfies the cart's invariants.
func normalize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))

	for _, line := range lines {
		if idx := indexOf(out, line.ProductID); idx >= 0 {
			out[idx].Qty += line.Qty
		} else {
			out = append(out, line)
		}
	}

	return slices.DeleteFunc(out, func(line domain.CartLine) bool {
		return line.Qty <= 0 || line.ProductID == ""
	})
}

func indexOf(lines []domain.CartLine, productID domain.ID) int {
	return slices.IndexFunc(lines, func(line domain.CartLine) bool {
		return line.ProductID == productID
	})
}
