package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

type ExpenseRepository interface {
	CreateWaste(ctx context.Context, w *model.WasteRecord) error
	CreateMaintenance(ctx context.Context, e *model.MaintenanceExpense) error
	// ListWasteSince returns waste recorded after the given instant. The cost
	// price is snapshotted on the record, so no product join is needed.
	ListWasteSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]model.WasteRecord, error)
	ListMaintenanceSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]model.MaintenanceExpense, error)
}

type expenseRepo struct{ db *gorm.DB }

func NewExpenseRepository(db *gorm.DB) ExpenseRepository { return &expenseRepo{db: db} }

func (r *expenseRepo) CreateWaste(ctx context.Context, w *model.WasteRecord) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *expenseRepo) CreateMaintenance(ctx context.Context, e *model.MaintenanceExpense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *expenseRepo) ListWasteSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]model.WasteRecord, error) {
	var records []model.WasteRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND created_at > ?", tenantID, since).
		Find(&records).Error
	return records, err
}

func (r *expenseRepo) ListMaintenanceSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]model.MaintenanceExpense, error) {
	var expenses []model.MaintenanceExpense
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND created_at > ?", tenantID, since).
		Find(&expenses).Error
	return expenses, err
}
