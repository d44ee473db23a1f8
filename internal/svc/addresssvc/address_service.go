package addresssvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/validation"
)

// AddressService reads and writes the signed-in user's addresses.
// The backend owns the collection and its default flag.
type AddressService struct {
	API apiclient.API
	Log logging.Logger
}

// NewAddressService creates a new AddressService.
func NewAddressService(api apiclient.API) *AddressService {
	return &AddressService{
		API: api,
		Log: logging.GetLogger("svc.addresssvc.address_service"),
	}
}

// List returns all addresses of the signed-in user.
func (s *AddressService) List(ctx context.Context) ([]domain.Address, error) {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/addresses", &raw); err != nil {
		return nil, fmt.Errorf("get addresses: %w", err)
	}

	var addresses []domain.Address
	if err := apiclient.UnwrapList(raw, "addresses", &addresses); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}

	return addresses, nil
}

// Default returns the default address, or nil if the user has none.
func (s *AddressService) Default(ctx context.Context) (*domain.Address, error) {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/addresses/default", &raw); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil //nolint:nilnil
		}

		return nil, fmt.Errorf("get default address: %w", err)
	}

	var address domain.Address
	if err := apiclient.Unwrap(raw, "address", &address); err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}

	if address.ID == "" {
		return nil, nil //nolint:nilnil
	}

	return &address, nil
}

// Create validates in and adds it as a new address.
func (s *AddressService) Create(ctx context.Context, in domain.AddressInput) (*domain.Address, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	return s.write(ctx, "post address", func(raw *apiclient.RawBody) error {
		return s.API.Post(ctx, "/api/addresses", in, raw)
	})
}

// Update validates in and replaces the address with id.
func (s *AddressService) Update(ctx context.Context, id domain.ID, in domain.AddressInput) (*domain.Address, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	return s.write(ctx, "put address", func(raw *apiclient.RawBody) error {
		return s.API.Put(ctx, "/api/addresses/"+id.String(), in, raw)
	})
}

// Delete removes the address with id.
func (s *AddressService) Delete(ctx context.Context, id domain.ID) error {
	if err := s.API.Delete(ctx, "/api/addresses/"+id.String(), nil); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	return nil
}

// SetDefault makes the address with id the default one.
func (s *AddressService) SetDefault(ctx context.Context, id domain.ID) (*domain.Address, error) {
	return s.write(ctx, "set default address", func(raw *apiclient.RawBody) error {
		return s.API.Patch(ctx, "/api/addresses/"+id.String()+"/set-default", struct{}{}, raw)
	})
}

func (s *AddressService) write(ctx context.Context, op string, call func(*apiclient.RawBody) error) (_ *domain.Address, err error) {
	defer func() {
		if err != nil {
			s.Log.WarnContext(ctx, op+" failed", "error", err)
		}
	}()

	var raw apiclient.RawBody
	if err := call(&raw); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var address domain.Address
	if err := apiclient.Unwrap(raw, "address", &address); err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}

	return &address, nil
}
