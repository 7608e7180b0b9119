package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

// TaxBreakdown decomposes a tax-inclusive gross amount into net + tax.
// Net + Tax reproduces Gross within rounding tolerance.
type TaxBreakdown struct {
	Net   decimal.Decimal `json:"net"`
	Tax   decimal.Decimal `json:"tax"`
	Gross decimal.Decimal `json:"gross"`
}

// PricingResult is the full output of the pricing engine for one session.
// Deterministic for identical inputs; Warnings carry non-fatal conditions
// (lapsed subscription, clamped tax rate) for the caller to audit-log.
type PricingResult struct {
	TimeCharge         decimal.Decimal      `json:"time_charge"`
	Subtotal           decimal.Decimal      `json:"subtotal"`
	DiscountAmount     decimal.Decimal      `json:"discount_amount"`
	DiscountPercentage decimal.Decimal      `json:"discount_percentage"`
	TaxAmount          decimal.Decimal      `json:"tax_amount"`
	Total              decimal.Decimal      `json:"total"`
	AppliedDiscount    bool                 `json:"applied_discount"`
	DiscountReason     string               `json:"discount_reason"`
	MemberCategory     model.MemberCategory `json:"member_category"`
	BusinessModel      model.BusinessModel  `json:"business_model"`
	Currency           string               `json:"currency"`
	Warnings           []string             `json:"warnings,omitempty"`
}

// ValidationResult is the outcome of an integrity check. The validator never
// escalates; callers decide whether a failure becomes a security event.
type ValidationResult struct {
	Valid      bool            `json:"valid"`
	Reason     string          `json:"reason,omitempty"`
	Difference decimal.Decimal `json:"difference"`
}

// SplitValidation reports whether a set of split amounts reproduces the
// original total. Violations are human-readable mismatch descriptions.
type SplitValidation struct {
	Valid      bool            `json:"valid"`
	Difference decimal.Decimal `json:"difference"`
	Violations []string        `json:"violations,omitempty"`
}

// IntegritySeal is the tamper-evidence digest of a closure. SealedAt is
// metadata only — it never participates in the hashed payload.
type IntegritySeal struct {
	Hash      string `json:"hash"`
	Algorithm string `json:"algorithm"`
	SealedAt  string `json:"sealed_at"`
}
