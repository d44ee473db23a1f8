package addresssvc

import (
	"context"
	"slices"
	"sync"

	"github.com/mkrupp/storefront/internal/domain"
)

// AddressBook is a local copy of the user's addresses kept in step with the
// backend. Every mutation goes to the backend first and the returned address
// is applied locally. At most one address is marked default.
type AddressBook struct {
	svc       *AddressService
	mu        sync.RWMutex
	addresses []domain.Address
}

// NewAddressBook creates an empty AddressBook; call Load to fill it.
func NewAddressBook(svc *AddressService) *AddressBook {
	return &AddressBook{svc: svc}
}

// Load replaces the local copy with the backend's list.
func (b *AddressBook) Load(ctx context.Context) error {
	addresses, err := b.svc.List(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.addresses = nil
	for _, a := range addresses {
		b.apply(a)
	}

	return nil
}

// Addresses returns a copy of the local collection.
func (b *AddressBook) Addresses() []domain.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return slices.Clone(b.addresses)
}

// Default returns the default address, if any.
func (b *AddressBook) Default() (domain.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, a := range b.addresses {
		if a.IsDefault {
			return a, true
		}
	}

	return domain.Address{}, false
}

// Add creates an address.
func (b *AddressBook) Add(ctx context.Context, in domain.AddressInput) (*domain.Address, error) {
	address, err := b.svc.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.apply(*address)
	b.mu.Unlock()

	return address, nil
}

// Update changes the address with id.
func (b *AddressBook) Update(ctx context.Context, id domain.ID, in domain.AddressInput) (*domain.Address, error) {
	address, err := b.svc.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.apply(*address)
	b.mu.Unlock()

	return address, nil
}

// Remove deletes the address with id. Removing the default reloads the
// collection, since the backend picks the successor.
func (b *AddressBook) Remove(ctx context.Context, id domain.ID) error {
	if err := b.svc.Delete(ctx, id); err != nil {
		return err
	}

	b.mu.Lock()
	idx := slices.IndexFunc(b.addresses, func(a domain.Address) bool { return a.ID == id })
	wasDefault := idx >= 0 && b.addresses[idx].IsDefault

	if idx >= 0 {
		b.addresses = slices.Delete(b.addresses, idx, idx+1)
	}
	b.mu.Unlock()

	if wasDefault {
		return b.Load(ctx)
	}

	return nil
}

// SetDefault marks the address with id as the default.
func (b *AddressBook) SetDefault(ctx context.Context, id domain.ID) (*domain.Address, error) {
	address, err := b.svc.SetDefault(ctx, id)
	if err != nil {
		return nil, err
	}

	// some backend versions answer without the flag set
	address.IsDefault = true

	b.mu.Lock()
	b.apply(*address)
	b.mu.Unlock()

	return address, nil
}

// apply inserts or replaces a. If a is the default, siblings lose the flag
// first. Callers must hold b.mu.
func (b *AddressBook) apply(a domain.Address) {
	if a.IsDefault {
		for i := range b.addresses {
			b.addresses[i].IsDefault = false
		}
	}

	if idx := slices.IndexFunc(b.addresses, func(x domain.Address) bool { return x.ID == a.ID }); idx >= 0 {
		b.addresses[idx] = a

		return
	}

	b.addresses = append(b.addresses, a)
}
