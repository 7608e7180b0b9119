package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

type SessionRepository interface {
	Create(ctx context.Context, s *model.TableSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TableSession, error)
	FindOpenByTable(ctx context.Context, tenantID uuid.UUID, tableNumber int) (*model.TableSession, error)
	Update(ctx context.Context, s *model.TableSession) error
	AddItem(ctx context.Context, item *model.ConsumptionItem) error
	AddPayment(ctx context.Context, p *model.PaymentRecord) error
	FindPaymentByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.PaymentRecord, error)
	// ListUnconsolidated returns ended sessions not yet linked to a closure,
	// with items (and their products, for cost prices) and payments loaded.
	ListUnconsolidated(ctx context.Context, tenantID uuid.UUID) ([]model.TableSession, error)
	StampClosureTx(tx *gorm.DB, ids []uuid.UUID, closureID uuid.UUID) (int64, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.TableSession, int64, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) Create(ctx context.Context, s *model.TableSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TableSession, error) {
	var s model.TableSession
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Payments").
		Preload("Member").
		First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) FindOpenByTable(ctx context.Context, tenantID uuid.UUID, tableNumber int) (*model.TableSession, error) {
	var s model.TableSession
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND table_number = ? AND ended_at IS NULL", tenantID, tableNumber).
		First(&s).Error
	return &s, err
}

func (r *sessionRepo) Update(ctx context.Context, s *model.TableSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) AddItem(ctx context.Context, item *model.ConsumptionItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *sessionRepo) AddPayment(ctx context.Context, p *model.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *sessionRepo) FindPaymentByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.PaymentRecord, error) {
	var p model.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&p).Error
	return &p, err
}

func (r *sessionRepo) ListUnconsolidated(ctx context.Context, tenantID uuid.UUID) ([]model.TableSession, error) {
	var sessions []model.TableSession
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Payments").
		Where("tenant_id = ? AND ended_at IS NOT NULL AND closure_id IS NULL", tenantID).
		Order("ended_at ASC").
		Find(&sessions).Error
	return sessions, err
}

// StampClosureTx claims the given sessions for a closure inside the caller's
// transaction. Rows already claimed by a concurrent closure fail the
// closure_id IS NULL guard and are not counted; the caller compares
// RowsAffected with the expected set size and rolls back on mismatch.
func (r *sessionRepo) StampClosureTx(tx *gorm.DB, ids []uuid.UUID, closureID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.Model(&model.TableSession{}).
		Where("id IN ? AND closure_id IS NULL", ids).
		Update("closure_id", closureID)
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.TableSession, int64, error) {
	var sessions []model.TableSession
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.TableSession{}).Where("tenant_id = ?", tenantID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Items.Product").Preload("Payments").
		Order("started_at DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}
