package domain

import "time"

// StockMovementType is the direction of a stock movement.
type StockMovementType string

const (
	StockMovementIn         StockMovementType = "IN"
	StockMovementOut        StockMovementType = "OUT"
	StockMovementAdjustment StockMovementType = "ADJUSTMENT"
)

// StockMovement is one entry of the backend's stock ledger.
type StockMovement struct {
	ID              ID                `json:"id"`
	ProductID       ID                `json:"productId"`
	MovementType    StockMovementType `json:"movementType"`
	Quantity        int               `json:"quantity"`
	StockBefore     int               `json:"stockBefore"`
	StockAfter      int               `json:"stockAfter"`
	Reason          string            `json:"reason"`
	ReferenceType   string            `json:"referenceType,omitempty"`
	ReferenceID     ID                `json:"referenceId,omitempty"`
	PerformedByName string            `json:"performedByName,omitempty"`
	Note            string            `json:"note,omitempty"`
	Product         *StockProduct     `json:"product,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// StockProduct is the product summary embedded in stock movement listings.
type StockProduct struct {
	ID           ID     `json:"id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	CurrentStock int    `json:"currentStock"`
}

// DisplayReason returns the reason shown to users; order deductions name the order.
func (m StockMovement) DisplayReason() string {
	if m.ReferenceType == "ORDER" && m.ReferenceID != "" {
		return "order #" + m.ReferenceID.String()
	}

	if m.Reason == "" {
		return "unspecified"
	}

	return m.Reason
}

// StockMovementInput records a manual stock change.
type StockMovementInput struct {
	ProductID    ID                `json:"productId" validate:"required"`
	MovementType StockMovementType `json:"movementType" validate:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity     int               `json:"quantity" validate:"required,min=1"`
	Reason       string            `json:"reason" validate:"required,max=255"`
	Note         string            `json:"note,omitempty" validate:"max=1000"`
}

// StockSummary aggregates movements over a date range.
type StockSummary struct {
	TotalIn         int `json:"totalIn"`
	TotalOut        int `json:"totalOut"`
	TotalAdjustment int `json:"totalAdjustment"`
	MovementCount   int `json:"movementCount"`
}
