// Package pubsub provides an in-process publisher that components share to
// notify each other of state changes.
package pubsub

import (
	"sync"
)

// DefaultBuffer is the per-subscriber channel capacity used by Subscribe.
const DefaultBuffer = 16

// Broker fans published values out to all current subscribers.
// Publish never blocks: a subscriber that falls behind loses its oldest
// pending values, so the most recent state always arrives.
type Broker[T any] struct {
	m      sync.Mutex
	subs   map[int]chan T
	nextID int
	closed bool
}

// NewBroker creates an empty Broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[int]chan T),
	}
}

// Subscribe registers a subscriber with DefaultBuffer capacity.
// The returned cancel func unregisters it and closes the channel; it is safe to call twice.
func (b *Broker[T]) Subscribe() (<-chan T, func()) {
	return b.SubscribeBuffer(DefaultBuffer)
}

// SubscribeBuffer registers a subscriber whose channel holds up to size pending values.
func (b *Broker[T]) SubscribeBuffer(size int) (<-chan T, func()) {
	if size < 1 {
		size = 1
	}

	b.m.Lock()
	defer b.m.Unlock()

	ch := make(chan T, size)

	if b.closed {
		close(ch)

		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			b.m.Lock()
			defer b.m.Unlock()

			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers v to every subscriber.
func (b *Broker[T]) Publish(v T) {
	b.m.Lock()
	defer b.m.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		for {
			select {
			case ch <- v:
			default:
				// drop the oldest pending value and retry
				select {
				case <-ch:
				default:
				}

				continue
			}

			break
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Broker[T]) Subscribers() int {
	b.m.Lock()
	defer b.m.Unlock()

	return len(b.subs)
}

// Close closes all subscriber channels. Later publishes are ignored.
func (b *Broker[T]) Close() {
	b.m.Lock()
	defer b.m.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
