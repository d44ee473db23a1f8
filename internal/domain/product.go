package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the read-side projection of a catalog entry.
type Product struct {
	ID           ID              `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	InitialStock int             `json:"initialStock"`
	ReorderLevel int             `json:"reorderLevel"`
	Images       []string        `json:"images"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// StockState classifies a product's stock level. It is derived, never stored.
type StockState string

const (
	StockStateIn  StockState = "in"
	StockStateLow StockState = "low"
	StockStateOut StockState = "out"
)

// LowStockRatio is the share of the initial stock at or below which a product is low.
const LowStockRatio = 0.2

// LowStockThreshold returns the stock level at or below which p is low:
// floor(initialStock * 0.2) when the initial stock is known, else the reorder level.
func (p Product) LowStockThreshold() int {
	if p.InitialStock > 0 {
		// floor(n * 0.2) for non-negative n, without float rounding
		return p.InitialStock / 5
	}

	return p.ReorderLevel
}

// StockState derives the product's stock classification.
func (p Product) StockState() StockState {
	switch {
	case p.Stock <= 0:
		return StockStateOut
	case p.Stock <= p.LowStockThreshold():
		return StockStateLow
	default:
		return StockStateIn
	}
}

// Thumbnail returns the first image URL, if any.
func (p Product) Thumbnail() (string, bool) {
	if len(p.Images) == 0 || p.Images[0] == "" {
		return "", false
	}

	return p.Images[0], true
}
