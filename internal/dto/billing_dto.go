package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type EmitDocumentRequest struct {
	SessionID    string `json:"session_id"    validate:"required,uuid"`
	DocumentType string `json:"document_type" validate:"required,oneof=boleta factura"`
	// CustomerEmail: optional — when present, the worker mails the receipt.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BillingDocumentResponse struct {
	ID              string          `json:"id"`
	SessionID       *string         `json:"session_id"`
	DocumentType    string          `json:"document_type"`
	Folio           *int64          `json:"folio"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	VerificationURL *string         `json:"verification_url"`
	CreatedAt       string          `json:"created_at"`
}
