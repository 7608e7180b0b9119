package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment status values. Only COMPLETED payments count toward revenue.
const (
	PaymentCompleted = "COMPLETED"
	PaymentPending   = "PENDING"
	PaymentVoided    = "VOIDED"
)

// Consumption item kinds. Rental items (cue hire, etc.) are bucketed as
// rental revenue in the closure; products contribute COGS.
const (
	ItemKindProduct = "product"
	ItemKindRental  = "rental"
)

// TableSession is one continuous occupancy of a table, from start to end.
// Lifecycle: open (EndedAt nil) → closed (charge computed) → consolidated
// (ClosureID set — exactly once, never cleared).
type TableSession struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	TableNumber int        `gorm:"not null"`
	MemberID    *uuid.UUID `gorm:"type:uuid;index"`
	StartedAt   time.Time  `gorm:"not null"`
	EndedAt     *time.Time
	// DurationMinutes is computed when the session is closed.
	DurationMinutes int `gorm:"not null;default:0"`
	// ConsumptionTotal is the sum of item line totals. Never discounted.
	ConsumptionTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// AmountCharged is the final total produced by the pricing engine.
	AmountCharged decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// TimeCharged is the gross time portion of AmountCharged (discounted and
	// taxed), persisted at close so closures can bucket revenue without
	// re-deriving prices under possibly-changed tenant settings.
	TimeCharged     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountApplied decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountPct     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null;default:'PENDING'"`
	// ClosureID links the session to the closure that consolidated it.
	// NULL means eligible for the next closure; stamped atomically with the
	// closure insert so a session is never settled twice.
	ClosureID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items    []ConsumptionItem `gorm:"foreignKey:SessionID"`
	Payments []PaymentRecord   `gorm:"foreignKey:SessionID"`
	Member   *Member           `gorm:"foreignKey:MemberID"`
}

// ConsumptionItem is one line of products or rentals attached to a session.
type ConsumptionItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Kind      string          `gorm:"type:varchar(10);not null;default:'product'"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// PaymentRecord is one payment against a session.
// IdempotencyKey dedupes external payment events: the same event must never
// be recorded twice (unique partial index, see infra.applySchemaPatches).
type PaymentRecord struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method         string          `gorm:"type:varchar(20);not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'COMPLETED'"`
	IdempotencyKey *string         `gorm:"type:varchar(100)"`
	CreatedAt      time.Time
}
