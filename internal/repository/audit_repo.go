package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

// AuditRepository is append-only: events are written once and queried,
// never updated or removed.
type AuditRepository interface {
	Append(ctx context.Context, e *model.AuditEvent) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.AuditEvent, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.AuditEvent, int64, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Append(ctx context.Context, e *model.AuditEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *auditRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *auditRepo) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.AuditEvent, int64, error) {
	var events []model.AuditEvent
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.AuditEvent{}).Where("tenant_id = ?", tenantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, total, err
}
