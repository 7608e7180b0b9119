package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

// ClosureRepository persists immutable shift closures. There is deliberately
// no update or delete method: once written, a closure never changes.
type ClosureRepository interface {
	CreateTx(tx *gorm.DB, c *model.ShiftClosure) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ShiftClosure, error)
	FindLatest(ctx context.Context, tenantID uuid.UUID) (*model.ShiftClosure, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.ShiftClosure, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type closureRepo struct{ db *gorm.DB }

func NewClosureRepository(db *gorm.DB) ClosureRepository { return &closureRepo{db: db} }

func (r *closureRepo) DB() *gorm.DB { return r.db }

func (r *closureRepo) CreateTx(tx *gorm.DB, c *model.ShiftClosure) error {
	return tx.Create(c).Error
}

func (r *closureRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ShiftClosure, error) {
	var c model.ShiftClosure
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *closureRepo) FindLatest(ctx context.Context, tenantID uuid.UUID) (*model.ShiftClosure, error) {
	var c model.ShiftClosure
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		First(&c).Error
	return &c, err
}

func (r *closureRepo) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.ShiftClosure, int64, error) {
	var closures []model.ShiftClosure
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.ShiftClosure{}).Where("tenant_id = ?", tenantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&closures).Error
	return closures, total, err
}
