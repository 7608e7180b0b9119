package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// UpdateTenantRequest updates venue settings. Pointer fields are optional:
// nil means "leave unchanged".
type UpdateTenantRequest struct {
	Name               *string          `json:"name"                 validate:"omitempty,min=2,max=120"`
	BusinessModel      *string          `json:"business_model"       validate:"omitempty,oneof=CLUB_SOCIOS COMERCIAL"`
	BaseHourlyRate     *decimal.Decimal `json:"base_hourly_rate"     validate:"omitempty"`
	TaxRate            *decimal.Decimal `json:"tax_rate"             validate:"omitempty"`
	TaxName            *string          `json:"tax_name"             validate:"omitempty,max=20"`
	VIPDiscountPct     *decimal.Decimal `json:"vip_discount_pct"     validate:"omitempty"`
	VIPSpendThreshold  *decimal.Decimal `json:"vip_spend_threshold"  validate:"omitempty"`
	SocioDiscountPct   *decimal.Decimal `json:"socio_discount_pct"   validate:"omitempty"`
	ReportEmail        *string          `json:"report_email"         validate:"omitempty,email"`
	CashAlertTolerance *decimal.Decimal `json:"cash_alert_tolerance" validate:"omitempty"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TenantResponse struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	BusinessModel      string           `json:"business_model"`
	BaseHourlyRate     decimal.Decimal  `json:"base_hourly_rate"`
	TaxRate            decimal.Decimal  `json:"tax_rate"`
	TaxName            string           `json:"tax_name"`
	CurrencyCode       string           `json:"currency_code"`
	CurrencySymbol     string           `json:"currency_symbol"`
	VIPDiscountPct     decimal.Decimal  `json:"vip_discount_pct"`
	VIPSpendThreshold  decimal.Decimal  `json:"vip_spend_threshold"`
	SocioDiscountPct   decimal.Decimal  `json:"socio_discount_pct"`
	ReportEmail        *string          `json:"report_email"`
	CashAlertTolerance *decimal.Decimal `json:"cash_alert_tolerance"`
}
