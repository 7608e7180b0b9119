package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemberCategory is the pricing tier of a member.
type MemberCategory string

const (
	CategoryGeneral MemberCategory = "GENERAL"
	CategoryVIP     MemberCategory = "VIP"
	CategorySocio   MemberCategory = "SOCIO"
)

// SubscriptionStatus of a SOCIO membership. Empty means not applicable.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionInArrears SubscriptionStatus = "IN_ARREARS"
)

// Member belongs to exactly one tenant.
type Member struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID      `gorm:"type:uuid;not null;index"`
	FullName string         `gorm:"not null"`
	Email    *string
	Category MemberCategory `gorm:"type:varchar(10);not null;default:'GENERAL'"`
	// SubscriptionStatus is only meaningful for SOCIO members.
	SubscriptionStatus SubscriptionStatus `gorm:"type:varchar(20)"`
	// DiscountPct is the member's stored discount, used as fallback when the
	// tenant has no tier setting for the member's category.
	DiscountPct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	// TotalSpent accumulates final session totals; drives VIP auto-upgrade.
	TotalSpent decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Active     bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MemberTierChange is one entry in the append-only tier-change trail.
// Entries are NEVER updated or deleted — corrections create new entries.
type MemberTierChange struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MemberID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	FromCategory MemberCategory `gorm:"type:varchar(10);not null"`
	ToCategory   MemberCategory `gorm:"type:varchar(10);not null"`
	Reason       string         `gorm:"not null"`
	ChangedBy    uuid.UUID      `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

// MembershipFee records a periodic socio/VIP fee payment. Fees are
// consolidated into a closure (membership revenue) exactly once.
type MembershipFee struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	MemberID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method    string          `gorm:"type:varchar(20);not null"`
	ClosureID *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt time.Time
}
