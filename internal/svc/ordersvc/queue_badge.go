package ordersvc

import (
	"context"
	"sync"

	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/infra/pubsub"
)

// QueueBadge keeps the number of orders waiting in the staff queue current.
// It recounts whenever an order is created, accepted or cancelled.
type QueueBadge struct {
	orders  *OrderService
	log     logging.Logger
	updates *pubsub.Broker[int]

	mu    sync.Mutex
	count int
}

// NewQueueBadge creates a QueueBadge counting through orders.
func NewQueueBadge(orders *OrderService) *QueueBadge {
	return &QueueBadge{
		orders:  orders,
		log:     logging.GetLogger("svc.ordersvc.queue_badge"),
		updates: pubsub.NewBroker[int](),
	}
}

// Count returns the last known queue length.
func (b *QueueBadge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Subscribe returns a channel receiving every new count.
func (b *QueueBadge) Subscribe() (<-chan int, func()) {
	return b.updates.Subscribe()
}

// Refresh recounts the queue. On failure the last known count is kept.
func (b *QueueBadge) Refresh(ctx context.Context) (int, error) {
	queue, err := b.orders.FetchStaffQueueOrders(ctx)
	if err != nil {
		b.log.WarnContext(ctx, "failed to count staff queue", "error", err)

		return b.Count(), err
	}

	b.mu.Lock()
	b.count = len(queue)
	b.mu.Unlock()

	b.updates.Publish(len(queue))

	return len(queue), nil
}

// Run refreshes once, then on every relevant order event until ctx is done
// or the event broker is closed.
func (b *QueueBadge) Run(ctx context.Context) {
	defer b.updates.Close()

	if b.orders.Events == nil {
		_, _ = b.Refresh(ctx)
		<-ctx.Done()

		return
	}

	events, cancel := b.orders.Events.Subscribe()
	defer cancel()

	_, _ = b.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}

			switch event.Kind {
			case OrderCreated, OrderAccepted, OrderCancelled:
				_, _ = b.Refresh(ctx)
			case OrderCompleted, OrderShipped, OrderDelivered:
			}
		}
	}
}
