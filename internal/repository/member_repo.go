package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

type MemberRepository interface {
	Create(ctx context.Context, m *model.Member) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Member, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]model.Member, error)
	Update(ctx context.Context, m *model.Member) error
	// AppendTierChange writes one immutable trail entry. There is no update
	// or delete path for trail entries by design.
	AppendTierChange(ctx context.Context, c *model.MemberTierChange) error
	ListTierChanges(ctx context.Context, memberID uuid.UUID) ([]model.MemberTierChange, error)
	CreateFee(ctx context.Context, f *model.MembershipFee) error
	ListUnconsolidatedFees(ctx context.Context, tenantID uuid.UUID) ([]model.MembershipFee, error)
	StampFeesTx(tx *gorm.DB, ids []uuid.UUID, closureID uuid.UUID) (int64, error)
}

type memberRepo struct{ db *gorm.DB }

func NewMemberRepository(db *gorm.DB) MemberRepository { return &memberRepo{db: db} }

func (r *memberRepo) Create(ctx context.Context, m *model.Member) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *memberRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	var m model.Member
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *memberRepo) List(ctx context.Context, tenantID uuid.UUID) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = true", tenantID).
		Order("full_name ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepo) Update(ctx context.Context, m *model.Member) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *memberRepo) AppendTierChange(ctx context.Context, c *model.MemberTierChange) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *memberRepo) ListTierChanges(ctx context.Context, memberID uuid.UUID) ([]model.MemberTierChange, error) {
	var changes []model.MemberTierChange
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at ASC").
		Find(&changes).Error
	return changes, err
}

func (r *memberRepo) CreateFee(ctx context.Context, f *model.MembershipFee) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *memberRepo) ListUnconsolidatedFees(ctx context.Context, tenantID uuid.UUID) ([]model.MembershipFee, error) {
	var fees []model.MembershipFee
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND closure_id IS NULL", tenantID).
		Find(&fees).Error
	return fees, err
}

// StampFeesTx claims fees for a closure inside the caller's transaction.
// The closure_id IS NULL guard makes the claim atomic: a fee already taken
// by a concurrent closure is simply not matched.
func (r *memberRepo) StampFeesTx(tx *gorm.DB, ids []uuid.UUID, closureID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.Model(&model.MembershipFee{}).
		Where("id IN ? AND closure_id IS NULL", ids).
		Update("closure_id", closureID)
	return res.RowsAffected, res.Error
}
