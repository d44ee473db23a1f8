package catalogsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrupp/storefront/internal/apiclient"
	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/validation"
)

// MovementTypeAll lists movements of every type.
const MovementTypeAll = "all"

// StockMovementQuery filters and pages ListStockMovements. Dates are whole
// days; both ends are inclusive.
type StockMovementQuery struct {
	Type        string
	ProductID   domain.ID
	StartDate   time.Time
	EndDate     time.Time
	PerformedBy string
	Page        int
	Limit       int
}

// MovementPage is one page of the stock ledger.
type MovementPage struct {
	Movements  []domain.StockMovement `json:"movements"`
	Pagination domain.Pagination      `json:"pagination"`
}

// StockService reads and appends to the stock ledger. Every call requires
// an admin session.
type StockService struct {
	API apiclient.API
	Log logging.Logger
}

// NewStockService creates a new StockService.
func NewStockService(api apiclient.API) *StockService {
	return &StockService{
		API: api,
		Log: logging.GetLogger("svc.catalogsvc.stock_service"),
	}
}

// ListStockMovements returns one page of the ledger, newest first.
func (s *StockService) ListStockMovements(ctx context.Context, q StockMovementQuery) (*MovementPage, error) {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}

	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}

	if q.Type == MovementTypeAll {
		q.Type = ""
	}

	path := apiclient.NewQuery().
		Set("movementType", q.Type).
		Set("productId", q.ProductID.String()).
		Date("startDate", q.StartDate).
		Date("endDate", q.EndDate).
		Set("performedBy", q.PerformedBy).
		Int("page", q.Page).
		Int("limit", q.Limit).
		Path("/api/admin/stock-movements")

	var raw apiclient.RawBody
	if err := s.API.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("get stock movements: %w", err)
	}

	page := &MovementPage{}

	if err := apiclient.UnwrapList(raw, "movements", &page.Movements); err != nil {
		return nil, fmt.Errorf("decode stock movements: %w", err)
	}

	found, err := apiclient.Lookup(raw, &page.Pagination,
		[]string{"data", "data", "pagination"}, []string{"data", "pagination"}, []string{"pagination"})
	if err != nil {
		return nil, fmt.Errorf("decode pagination: %w", err)
	}

	if !found {
		page.Pagination = domain.NewPagination(len(page.Movements), q.Page, q.Limit)
	}

	if page.Movements == nil {
		page.Movements = []domain.StockMovement{}
	}

	return page, nil
}

// StockProducts returns the products that can be picked for a movement.
func (s *StockService) StockProducts(ctx context.Context) ([]domain.StockProduct, error) {
	var raw apiclient.RawBody
	if err := s.API.Get(ctx, "/api/admin/stock-movements/products", &raw); err != nil {
		return nil, fmt.Errorf("get stock products: %w", err)
	}

	var products []domain.StockProduct
	if err := apiclient.UnwrapList(raw, "products", &products); err != nil {
		return nil, fmt.Errorf("decode stock products: %w", err)
	}

	return products, nil
}

// StockSummary totals the movements between start and end. Zero times leave
// that end of the range open.
func (s *StockService) StockSummary(ctx context.Context, start, end time.Time) (*domain.StockSummary, error) {
	path := apiclient.NewQuery().
		Date("startDate", start).
		Date("endDate", end).
		Path("/api/admin/stock-movements/summary")

	var raw apiclient.RawBody
	if err := s.API.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("get stock summary: %w", err)
	}

	var summary domain.StockSummary
	if err := apiclient.Unwrap(raw, "summary", &summary); err != nil {
		return nil, fmt.Errorf("decode stock summary: %w", err)
	}

	return &summary, nil
}

// CreateStockMovement validates in and records it. The backend applies the
// movement to the product's stock.
func (s *StockService) CreateStockMovement(
	ctx context.Context, in domain.StockMovementInput,
) (movement *domain.StockMovement, err error) {
	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "failed to record stock movement", "product_id", in.ProductID, "error", err)
		} else {
			s.Log.InfoContext(ctx, "stock movement recorded",
				"product_id", in.ProductID,
				"type", in.MovementType,
				"stock_after", movement.StockAfter,
			)
		}
	}()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var raw apiclient.RawBody
	if err := s.API.Post(ctx, "/api/admin/stock-movements", in, &raw); err != nil {
		return nil, fmt.Errorf("post stock movement: %w", err)
	}

	movement = &domain.StockMovement{}
	if err := apiclient.Unwrap(raw, "movement", movement); err != nil {
		return nil, fmt.Errorf("decode stock movement: %w", err)
	}

	return movement, nil
}
