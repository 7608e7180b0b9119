package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CloseShiftRequest carries the blind cash count: the operator declares the
// drawer BEFORE the system reveals the theoretical figure.
type CloseShiftRequest struct {
	CashInHand decimal.Decimal `json:"cash_in_hand" validate:"min=0"`
	Notes      *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RevenueBreakdown struct {
	Time       decimal.Decimal `json:"time"`
	Product    decimal.Decimal `json:"product"`
	Membership decimal.Decimal `json:"membership"`
	Rental     decimal.Decimal `json:"rental"`
	Total      decimal.Decimal `json:"total"`
}

type PaymentBreakdown struct {
	Cash   decimal.Decimal `json:"cash"`
	Card   decimal.Decimal `json:"card"`
	Credit decimal.Decimal `json:"credit"`
}

type CostBreakdown struct {
	Goods       decimal.Decimal `json:"goods"`
	Waste       decimal.Decimal `json:"waste"`
	Maintenance decimal.Decimal `json:"maintenance"`
	Total       decimal.Decimal `json:"total"`
}

type ClosureResponse struct {
	ID             string           `json:"id"`
	Revenue        RevenueBreakdown `json:"revenue"`
	Payments       PaymentBreakdown `json:"payments"`
	Costs          CostBreakdown    `json:"costs"`
	NetProfit      decimal.Decimal  `json:"net_profit"`
	CashInHand     decimal.Decimal  `json:"cash_in_hand"`
	CashDifference decimal.Decimal  `json:"cash_difference"`
	HasCashAlert   bool             `json:"has_cash_alert"`
	SessionCount   int              `json:"session_count"`
	Seal           IntegritySeal    `json:"seal"`
	Notes          *string          `json:"notes"`
	CreatedAt      string           `json:"created_at"`
}

type ClosureListItem struct {
	ID             string          `json:"id"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	CashDifference decimal.Decimal `json:"cash_difference"`
	HasCashAlert   bool            `json:"has_cash_alert"`
	SessionCount   int             `json:"session_count"`
	CreatedAt      string          `json:"created_at"`
}

type ClosureListResponse struct {
	Data  []ClosureListItem `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type ClosureFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=200"`
}
