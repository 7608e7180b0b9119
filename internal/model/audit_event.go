package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit event severities.
const (
	SeverityInfo     = "INFO"
	SeverityWarn     = "WARN"
	SeverityCritical = "CRITICAL"
)

// Well-known audit event types emitted by the core.
const (
	EventSubscriptionLapsed = "SUBSCRIPTION_LAPSED"
	EventTaxMisconfigured   = "TAX_MISCONFIGURED"
	EventDiscountMismatch   = "DISCOUNT_MISMATCH"
	EventCashDiscrepancy    = "CASH_DISCREPANCY"
	EventIntegritySeal      = "INTEGRITY_SEAL"
	EventTierChange         = "TIER_CHANGE"
)

// AuditEvent is one row of the append-only audit trail. The core only ever
// writes here; nothing in the core reads it back. Details holds a JSON
// document with event-specific fields.
type AuditEvent struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type     string    `gorm:"type:varchar(40);not null;index"`
	Severity string    `gorm:"type:varchar(10);not null"`
	Message  string    `gorm:"not null"`
	// EntityType/EntityID point at the record the event is about (e.g. the
	// closure an integrity seal covers). Optional.
	EntityType string     `gorm:"type:varchar(30);index:idx_audit_entity"`
	EntityID   *uuid.UUID `gorm:"type:uuid;index:idx_audit_entity"`
	Details    []byte     `gorm:"type:jsonb"`
	CreatedAt  time.Time
}
