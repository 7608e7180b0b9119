package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

type BillingRepository interface {
	Create(ctx context.Context, d *model.BillingDocument) error
	Update(ctx context.Context, d *model.BillingDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BillingDocument, error)
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.BillingDocument, error)
	// ListPendingRetries returns failed documents whose backoff window has
	// elapsed, oldest first, capped so one cron pass stays bounded.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.BillingDocument, error)
}

type billingRepo struct{ db *gorm.DB }

func NewBillingRepository(db *gorm.DB) BillingRepository { return &billingRepo{db: db} }

func (r *billingRepo) Create(ctx context.Context, d *model.BillingDocument) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *billingRepo) Update(ctx context.Context, d *model.BillingDocument) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *billingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BillingDocument, error) {
	var d model.BillingDocument
	err := r.db.WithContext(ctx).First(&d, id).Error
	return &d, err
}

func (r *billingRepo) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.BillingDocument, error) {
	var d model.BillingDocument
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		First(&d).Error
	return &d, err
}

func (r *billingRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.BillingDocument, error) {
	var docs []model.BillingDocument
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.BillingStatusError, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}
