package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type EnrollMemberRequest struct {
	FullName    string          `json:"full_name"    validate:"required,min=2,max=120"`
	Email       *string         `json:"email"        validate:"omitempty,email"`
	Category    string          `json:"category"     validate:"omitempty,oneof=GENERAL VIP SOCIO"`
	DiscountPct decimal.Decimal `json:"discount_pct" validate:"min=0,max=100"`
}

// ChangeTierRequest moves a member between tiers. A reason is always
// required; the trail keeps every transition forever.
type ChangeTierRequest struct {
	ToCategory string `json:"to_category" validate:"required,oneof=GENERAL VIP SOCIO"`
	Reason     string `json:"reason"      validate:"required,min=5"`
}

type SetSubscriptionRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE IN_ARREARS"`
}

type RecordFeeRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Method string          `json:"method" validate:"required,oneof=cash card debit transfer credit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MemberResponse struct {
	ID                 string          `json:"id"`
	FullName           string          `json:"full_name"`
	Email              *string         `json:"email"`
	Category           string          `json:"category"`
	SubscriptionStatus string          `json:"subscription_status,omitempty"`
	DiscountPct        decimal.Decimal `json:"discount_pct"`
	TotalSpent         decimal.Decimal `json:"total_spent"`
	Active             bool            `json:"active"`
}

type TierChangeResponse struct {
	ID           string `json:"id"`
	FromCategory string `json:"from_category"`
	ToCategory   string `json:"to_category"`
	Reason       string `json:"reason"`
	ChangedBy    string `json:"changed_by"`
	CreatedAt    string `json:"created_at"`
}
