package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name      string          `json:"name"       validate:"required,min=2,max=120"`
	SalePrice decimal.Decimal `json:"sale_price" validate:"required"`
	CostPrice decimal.Decimal `json:"cost_price" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name      string           `json:"name"       validate:"omitempty,min=2,max=120"`
	SalePrice *decimal.Decimal `json:"sale_price"`
	CostPrice *decimal.Decimal `json:"cost_price"`
	Active    *bool            `json:"active"`
}

type RecordWasteRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"   validate:"required"`
	Reason    string          `json:"reason"     validate:"required,min=3"`
}

type RecordMaintenanceRequest struct {
	Description string          `json:"description" validate:"required,min=3"`
	Amount      decimal.Decimal `json:"amount"      validate:"required"`
	TableNumber *int            `json:"table_number"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	SalePrice decimal.Decimal `json:"sale_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Active    bool            `json:"active"`
}
