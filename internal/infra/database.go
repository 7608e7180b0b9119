package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies idempotent SQL patches that GORM
// cannot express (partial indexes, CHECK constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates the schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Member{},
		&model.MemberTierChange{},
		&model.MembershipFee{},
		&model.Product{},
		&model.TableSession{},
		&model.ConsumptionItem{},
		&model.PaymentRecord{},
		&model.ShiftClosure{},
		&model.WasteRecord{},
		&model.MaintenanceExpense{},
		&model.BillingDocument{},
		&model.AuditEvent{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on a patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Payment idempotency: the same external event must never create two
		// rows. Partial so NULL keys (manual payments) stay unconstrained.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_payment_idempotency_key') THEN
		    CREATE UNIQUE INDEX uni_payment_idempotency_key
		        ON payment_records (tenant_id, idempotency_key)
		        WHERE idempotency_key IS NOT NULL;
		  END IF;
		END $$`,
		// Closure eligibility scan: ended, unstamped sessions per tenant.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sessions_unconsolidated') THEN
		    CREATE INDEX idx_sessions_unconsolidated
		        ON table_sessions (tenant_id, ended_at)
		        WHERE ended_at IS NOT NULL AND closure_id IS NULL;
		  END IF;
		END $$`,
		// Retry cron query: failed documents whose backoff has elapsed.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_billing_pending_retry') THEN
		    CREATE INDEX idx_billing_pending_retry
		        ON billing_documents (next_retry_at)
		        WHERE status = 'error' AND next_retry_at IS NOT NULL;
		  END IF;
		END $$`,
		// One open session per table per tenant.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_open_session_per_table') THEN
		    CREATE UNIQUE INDEX uni_open_session_per_table
		        ON table_sessions (tenant_id, table_number)
		        WHERE ended_at IS NULL;
		  END IF;
		END $$`,
		// Tax rate sanity at the storage layer as well.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_tenants_tax_rate') THEN
		    ALTER TABLE tenants ADD CONSTRAINT chk_tenants_tax_rate CHECK (tax_rate >= 0 AND tax_rate <= 1);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
