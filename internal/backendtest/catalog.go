package backendtest

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkrupp/storefront/internal/domain"
)

func (s *Server) listProducts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(c.Query("search"))
	category := c.Query("category")
	status := c.Query("status")

	products := []domain.Product{}

	for _, id := range s.productIDs {
		p, exists := s.products[id]
		if !exists {
			continue
		}

		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}

		if (category != "" && p.Category != category) || (status != "" && p.Status != status) {
			continue
		}

		products = append(products, *p)
	}

	page, limit := pageParams(c)
	items, pagination := paginate(products, page, limit)

	ok(c, http.StatusOK, gin.H{"products": items, "pagination": pagination})
}

func (s *Server) lowStock(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := []domain.Product{}

	for _, id := range s.productIDs {
		if p, exists := s.products[id]; exists && p.StockState() != domain.StockStateIn {
			products = append(products, *p)
		}
	}

	ok(c, http.StatusOK, gin.H{"products": products})
}

func (s *Server) getProduct(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[domain.ID(c.Param("id"))]
	if !exists {
		fail(c, http.StatusNotFound, "Product not found")

		return
	}

	ok(c, http.StatusOK, gin.H{"product": *p})
}

func (s *Server) listMovements(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.caller(c, domain.RoleAdmin); !found {
		return
	}

	start, end, valid := dateRange(c)
	if !valid {
		fail(c, http.StatusBadRequest, "Invalid date range")

		return
	}

	movementType := domain.StockMovementType(c.Query("movementType"))
	productID := domain.ID(c.Query("productId"))
	performedBy := strings.ToLower(c.Query("performedBy"))

	movements := []domain.StockMovement{}

	for _, m := range slices.Backward(s.movements) {
		switch {
		case movementType != "" && m.MovementType != movementType,
			productID != "" && m.ProductID != productID,
			performedBy != "" && !strings.Contains(strings.ToLower(m.PerformedByName), performedBy),
			!start.IsZero() && m.CreatedAt.Before(start),
			!end.IsZero() && !m.CreatedAt.Before(end):
			continue
		}

		movements = append(movements, m)
	}

	page, limit := pageParams(c)
	items, pagination := paginate(movements, page, limit)

	ok(c, http.StatusOK, gin.H{"movements": items, "pagination": pagination})
}

func (s *Server) createMovement(c *gin.Context) {
	var in domain.StockMovementInput

	if err := c.ShouldBindJSON(&in); err != nil || in.ProductID == "" || in.Quantity < 1 {
		fail(c, http.StatusBadRequest, "Invalid stock movement")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, found := s.caller(c, domain.RoleAdmin)
	if !found {
		return
	}

	product, exists := s.products[in.ProductID]
	if !exists {
		fail(c, http.StatusNotFound, "Product not found")

		return
	}

	if in.MovementType == domain.StockMovementOut && product.Stock < in.Quantity {
		fail(c, http.StatusBadRequest, "Insufficient stock")

		return
	}

	movement := s.moveStock(acc, product, in.MovementType, in.Quantity, in.Reason, "", "")
	movement.Note = in.Note
	s.movements[len(s.movements)-1] = movement

	ok(c, http.StatusCreated, movement)
}

func (s *Server) stockProducts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.caller(c, domain.RoleAdmin); !found {
		return
	}

	products := []domain.StockProduct{}

	for _, id := range s.productIDs {
		if p, exists := s.products[id]; exists {
			products = append(products, domain.StockProduct{ID: p.ID, SKU: p.SKU, Name: p.Name, CurrentStock: p.Stock})
		}
	}

	ok(c, http.StatusOK, products)
}

func (s *Server) stockSummary(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.caller(c, domain.RoleAdmin); !found {
		return
	}

	start, end, valid := dateRange(c)
	if !valid {
		fail(c, http.StatusBadRequest, "Invalid date range")

		return
	}

	var summary domain.StockSummary

	for _, m := range s.movements {
		if (!start.IsZero() && m.CreatedAt.Before(start)) || (!end.IsZero() && !m.CreatedAt.Before(end)) {
			continue
		}

		summary.MovementCount++

		switch m.MovementType {
		case domain.StockMovementIn:
			summary.TotalIn += m.Quantity
		case domain.StockMovementOut:
			summary.TotalOut += m.Quantity
		case domain.StockMovementAdjustment:
			summary.TotalAdjustment += m.Quantity
		}
	}

	ok(c, http.StatusOK, summary)
}

// moveStock applies a movement to product and appends it to the ledger.
// ADJUSTMENT sets the stock to quantity. Callers must hold s.mu.
func (s *Server) moveStock(
	acc *account,
	product *domain.Product,
	typ domain.StockMovementType,
	quantity int,
	reason, refType string,
	refID domain.ID,
) domain.StockMovement {
	before := product.Stock

	switch typ {
	case domain.StockMovementIn:
		product.Stock += quantity
	case domain.StockMovementOut:
		product.Stock -= quantity
	case domain.StockMovementAdjustment:
		product.Stock = quantity
	}

	product.UpdatedAt = now()

	movement := domain.StockMovement{
		ID:              s.nextID("m"),
		ProductID:       product.ID,
		MovementType:    typ,
		Quantity:        quantity,
		StockBefore:     before,
		StockAfter:      product.Stock,
		Reason:          reason,
		ReferenceType:   refType,
		ReferenceID:     refID,
		PerformedByName: acc.user.FullName,
		Product:         &domain.StockProduct{ID: product.ID, SKU: product.SKU, Name: product.Name, CurrentStock: product.Stock},
		CreatedAt:       now(),
	}

	s.movements = append(s.movements, movement)

	return movement
}

// dateRange parses startDate and endDate (YYYY-MM-DD, both inclusive) into
// a half-open [start, end) interval.
func dateRange(c *gin.Context) (start, end time.Time, valid bool) {
	var err error

	if v := c.Query("startDate"); v != "" {
		if start, err = time.Parse(time.DateOnly, v); err != nil {
			return time.Time{}, time.Time{}, false
		}
	}

	if v := c.Query("endDate"); v != "" {
		if end, err = time.Parse(time.DateOnly, v); err != nil {
			return time.Time{}, time.Time{}, false
		}

		end = end.AddDate(0, 0, 1)
	}

	return start, end, true
}
