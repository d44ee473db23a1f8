// Package catalogsvc reads the product catalog and the stock ledger.
package catalogsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/svc/cartsvc"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ProductQuery filters and pages ListProducts. Zero values are not sent.
type ProductQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Status   string
}

// ProductPage is one page of products.
type ProductPage struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

// ProductService is the client side of the product resource.
type ProductService struct {
	API apiclient.API
	Log logging.Logger
}

var _ cartsvc.ProductResolver = (*ProductService)(nil)

// NewProductService creates a new ProductService.
func NewProductService(api apiclient.API) *ProductService {
	return &ProductService{
		API: api,
		Log: logging.GetLogger("svc.catalogsvc.product_service"),
	}
}

// ListProducts returns one page of the catalog.
func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}

	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}

	path := apiclient.NewQuery().
		Int("page", q.Page).
		Int("limit", q.Limit).
		Set("search", q.Search).
		Set("category", q.Category).
		Set("status", q.Status).
		Path("/api/products")

	var raw apiclient.RawBody
	if err := s.API.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	page := &ProductPage{}

	if err := apiclient.UnwrapList(raw, "products", &page.Products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	found, err := apiclient.Lookup(raw, &page.Pagination,
		[]string{"data", "data", "pagination"}, []string{"data", "pagination"}, []string{"pagination"})
	if err != nil {
		return nil, fmt.Errorf("decode pagination: %w", err)
	}

	if !found {
		page.Pagination = domain.NewPagination(len(page.Products), q.Page, q.Limit)
	}

	if page.Products == nil {
		page.Products = []domain.Product{}
	}

	return page, nil
}

// GetProduct returns the product with id, or domain.ErrNotFound.
func (s *ProductService) GetProduct(ctx context.Context, id domain.ID) (*domain.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("get product: %w", domain.ErrNotFound)
	}

	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/products/"+id.String(), &raw); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	var product domain.Product
	if err := apiclient.Unwrap(raw, "product", &product); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}

	if product.ID == "" {
		return nil, fmt.Errorf("get product %s: %w", id, domain.ErrNotFound)
	}

	return &product, nil
}

// LowStock returns the products whose derived stock state is low or out.
// The backend's own selection is re-checked with domain.Product.StockState
// so every view agrees on the threshold.
func (s *ProductService) LowStock(ctx context.Context) ([]domain.Product, error) {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/products/low-stock", &raw); err != nil {
		return nil, fmt.Errorf("get low stock: %w", err)
	}

	var products []domain.Product
	if err := apiclient.UnwrapList(raw, "products", &products); err != nil {
		return nil, fmt.Errorf("decode low stock: %w", err)
	}

	low := make([]domain.Product, 0, len(products))

	for _, p := range products {
		if p.StockState() != domain.StockStateIn {
			low = append(low, p)
		}
	}

	return low, nil
}

// ResolveProduct implements cartsvc.ProductResolver. Any failure, including
// a deleted product, reports the product as unresolved.
func (s *ProductService) ResolveProduct(ctx context.Context, id domain.ID) (*domain.Product, bool) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.Log.WarnContext(ctx, "failed to resolve product", "product_id", id, "error", err)
		}

		return nil, false
	}

	return product, true
}
