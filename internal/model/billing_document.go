package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DocTypeBoleta      = "boleta"
	DocTypeFactura     = "factura"
	DocTypeNotaCredito = "nota_credito"

	BillingStatusPending  = "pendiente"
	BillingStatusIssued   = "emitido"
	BillingStatusRejected = "rechazado"
	BillingStatusError    = "error"
)

// BillingDocument stores an electronic fiscal document (DTE).
type BillingDocument struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	SessionID    *uuid.UUID `gorm:"type:uuid;index"`
	ClosureID    *uuid.UUID `gorm:"type:uuid;index"`
	DocumentType string     `gorm:"type:varchar(20);not null"`
	// Folio is the provider-assigned sequence number, set on emission.
	Folio           *int64
	NetAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status          string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	VerificationURL *string
	// Retry fields — used by retry_cron to re-attempt failed sidecar calls.
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
