package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BusinessModel selects the discount policy regime of a tenant.
type BusinessModel string

const (
	// BusinessModelClubSocios gates discounts on an ACTIVE socio subscription.
	BusinessModelClubSocios BusinessModel = "CLUB_SOCIOS"
	// BusinessModelComercial gates discounts on member tier (VIP / SOCIO).
	BusinessModelComercial BusinessModel = "COMERCIAL"
)

// TierSettings holds the tenant's discount tiers as explicit typed fields.
// No loose JSON blobs: every knob is a named, validated column.
type TierSettings struct {
	// VIPDiscountPct applies to VIP members under COMERCIAL (0–100).
	VIPDiscountPct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	// VIPSpendThreshold is the cumulative spend that auto-upgrades a
	// GENERAL member to VIP under COMERCIAL. Zero disables auto-upgrade.
	VIPSpendThreshold decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	// SocioDiscountPct applies to SOCIO members (0–100).
	SocioDiscountPct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
}

// Tenant is one club/venue. All members, tables, sessions, products and
// closures hang off exactly one tenant.
type Tenant struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string        `gorm:"not null"`
	BusinessModel BusinessModel `gorm:"type:varchar(20);not null;default:'COMERCIAL'"`
	// BaseHourlyRate is the table price per hour, tax included.
	BaseHourlyRate decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// TaxRate must lie in [0,1]. Out-of-range values are clamped to 0 by the
	// pricing engine and reported through the audit log.
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0.19"`
	TaxName        string          `gorm:"type:varchar(20);not null;default:'IVA'"`
	CurrencyCode   string          `gorm:"type:varchar(3);not null;default:'CLP'"`
	CurrencySymbol string          `gorm:"type:varchar(5);not null;default:'$'"`
	Tiers          TierSettings    `gorm:"embedded;embeddedPrefix:tier_"`
	// ReportEmail receives the Z-report after each shift closure.
	ReportEmail *string
	// CashAlertTolerance absorbs rounding noise in the blind cash count.
	// Nil falls back to the platform default (500 in the base currency).
	CashAlertTolerance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Active             bool             `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
