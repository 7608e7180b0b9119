package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SessionFilter is bound from query string of GET /v1/sessions.
type SessionFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=200"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type StartSessionRequest struct {
	TableNumber int     `json:"table_number" validate:"required,min=1"`
	MemberID    *string `json:"member_id"    validate:"omitempty,uuid"`
}

type AddConsumptionRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Kind      string `json:"kind"       validate:"omitempty,oneof=product rental"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type PaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash card debit transfer credit"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	// IdempotencyKey dedupes repeated delivery of the same payment event.
	IdempotencyKey *string `json:"idempotency_key" validate:"omitempty,min=8,max=100"`
}

type CloseSessionRequest struct {
	Payments []PaymentRequest `json:"payments" validate:"omitempty,dive"`
	// CustomerEmail: optional — when present, the billing worker mails the receipt.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ConsumptionItemResponse struct {
	Product   string          `json:"product"`
	Kind      string          `json:"kind"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type PaymentResponse struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

type SessionResponse struct {
	ID               string                    `json:"id"`
	TableNumber      int                       `json:"table_number"`
	MemberID         *string                   `json:"member_id"`
	StartedAt        string                    `json:"started_at"`
	EndedAt          *string                   `json:"ended_at"`
	DurationMinutes  int                       `json:"duration_minutes"`
	Items            []ConsumptionItemResponse `json:"items"`
	Payments         []PaymentResponse         `json:"payments"`
	ConsumptionTotal decimal.Decimal           `json:"consumption_total"`
	Pricing          *PricingResult            `json:"pricing,omitempty"`
	PaymentStatus    string                    `json:"payment_status"`
	Consolidated     bool                      `json:"consolidated"`
}
