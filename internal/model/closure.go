package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShiftClosure is the immutable Z-report: a point-in-time consolidation of
// every settled session (and membership fee) since the previous closure.
// Rows are inserted once and never updated — the repository exposes no
// update path, and tampering is detectable via the integrity seal appended
// to the audit log.
type ShiftClosure struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Revenue breakdown. TotalRevenue = time + product + membership + rental.
	TimeRevenue       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ProductRevenue    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MembershipRevenue decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	RentalRevenue     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalRevenue      decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	// Payment-method breakdown over COMPLETED payments.
	CashRevenue   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CardRevenue   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreditRevenue decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	// Cost breakdown.
	TotalCost       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	WasteCost       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MaintenanceCost decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	NetProfit       decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	// Blind cash count: CashInHand is declared by the operator BEFORE the
	// theoretical figure is revealed. CashDifference = CashInHand − CashRevenue
	// (negative = shortage). HasCashAlert when |difference| exceeds tolerance.
	CashInHand     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CashDifference decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	HasCashAlert   bool            `gorm:"not null;default:false"`

	SessionCount int       `gorm:"not null"`
	ClosedBy     uuid.UUID `gorm:"type:uuid;not null"`
	Notes        *string
	CreatedAt    time.Time
}
