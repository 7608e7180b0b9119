package service

// In-memory fakes for the repository interfaces. Tests wire them into the
// real services, so the business rules run exactly as in production but
// without a database. DB() returns nil, which makes runTx call the body
// directly.

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

// ── Tenant ────────────────────────────────────────────────────────────────────

type fakeTenantRepo struct {
	tenants map[uuid.UUID]*model.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: map[uuid.UUID]*model.Tenant{}}
}

func (r *fakeTenantRepo) Create(_ context.Context, t *model.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.tenants[t.ID] = t
	return nil
}

func (r *fakeTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeTenantRepo) Update(_ context.Context, t *model.Tenant) error {
	r.tenants[t.ID] = t
	return nil
}

// ── Member ────────────────────────────────────────────────────────────────────

type fakeMemberRepo struct {
	members map[uuid.UUID]*model.Member
	trail   []model.MemberTierChange
	fees    []*model.MembershipFee

	// stampFeesShort simulates a concurrent closure racing over the fees.
	stampFeesShort bool
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: map[uuid.UUID]*model.Member{}}
}

func (r *fakeMemberRepo) Create(_ context.Context, m *model.Member) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.members[m.ID] = m
	return nil
}

func (r *fakeMemberRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *fakeMemberRepo) List(_ context.Context, tenantID uuid.UUID) ([]model.Member, error) {
	var out []model.Member
	for _, m := range r.members {
		if m.TenantID == tenantID && m.Active {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) Update(_ context.Context, m *model.Member) error {
	r.members[m.ID] = m
	return nil
}

func (r *fakeMemberRepo) AppendTierChange(_ context.Context, c *model.MemberTierChange) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()
	r.trail = append(r.trail, *c)
	return nil
}

func (r *fakeMemberRepo) ListTierChanges(_ context.Context, memberID uuid.UUID) ([]model.MemberTierChange, error) {
	var out []model.MemberTierChange
	for _, c := range r.trail {
		if c.MemberID == memberID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) CreateFee(_ context.Context, f *model.MembershipFee) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.CreatedAt = time.Now().UTC()
	r.fees = append(r.fees, f)
	return nil
}

func (r *fakeMemberRepo) ListUnconsolidatedFees(_ context.Context, tenantID uuid.UUID) ([]model.MembershipFee, error) {
	var out []model.MembershipFee
	for _, f := range r.fees {
		if f.TenantID == tenantID && f.ClosureID == nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) StampFeesTx(_ *gorm.DB, ids []uuid.UUID, closureID uuid.UUID) (int64, error) {
	var stamped int64
	for _, id := range ids {
		for _, f := range r.fees {
			if f.ID == id && f.ClosureID == nil {
				cid := closureID
				f.ClosureID = &cid
				stamped++
			}
		}
	}
	if r.stampFeesShort && stamped > 0 {
		stamped--
	}
	return stamped, nil
}

// ── Session ───────────────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*model.TableSession
	payments []*model.PaymentRecord

	// stampShort simulates a concurrent closure stealing one session.
	stampShort bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*model.TableSession{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.TableSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TableSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) FindOpenByTable(_ context.Context, tenantID uuid.UUID, tableNumber int) (*model.TableSession, error) {
	for _, s := range r.sessions {
		if s.TenantID == tenantID && s.TableNumber == tableNumber && s.EndedAt == nil {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) Update(_ context.Context, s *model.TableSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) AddItem(_ context.Context, item *model.ConsumptionItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return nil
}

func (r *fakeSessionRepo) AddPayment(_ context.Context, p *model.PaymentRecord) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments = append(r.payments, p)
	return nil
}

func (r *fakeSessionRepo) FindPaymentByIdempotencyKey(_ context.Context, tenantID uuid.UUID, key string) (*model.PaymentRecord, error) {
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) ListUnconsolidated(_ context.Context, tenantID uuid.UUID) ([]model.TableSession, error) {
	var out []model.TableSession
	for _, s := range r.sessions {
		if s.TenantID == tenantID && s.EndedAt != nil && s.ClosureID == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) StampClosureTx(_ *gorm.DB, ids []uuid.UUID, closureID uuid.UUID) (int64, error) {
	var stamped int64
	for _, id := range ids {
		if s, ok := r.sessions[id]; ok && s.ClosureID == nil {
			cid := closureID
			s.ClosureID = &cid
			stamped++
		}
	}
	if r.stampShort && stamped > 0 {
		stamped--
	}
	return stamped, nil
}

func (r *fakeSessionRepo) List(_ context.Context, tenantID uuid.UUID, _, _ int) ([]model.TableSession, int64, error) {
	var out []model.TableSession
	for _, s := range r.sessions {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

// ── Closure ───────────────────────────────────────────────────────────────────

type fakeClosureRepo struct {
	closures []*model.ShiftClosure
}

func newFakeClosureRepo() *fakeClosureRepo { return &fakeClosureRepo{} }

func (r *fakeClosureRepo) DB() *gorm.DB { return nil }

func (r *fakeClosureRepo) CreateTx(_ *gorm.DB, c *model.ShiftClosure) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()
	r.closures = append(r.closures, c)
	return nil
}

func (r *fakeClosureRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ShiftClosure, error) {
	for _, c := range r.closures {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClosureRepo) FindLatest(_ context.Context, tenantID uuid.UUID) (*model.ShiftClosure, error) {
	var latest *model.ShiftClosure
	for _, c := range r.closures {
		if c.TenantID != tenantID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *fakeClosureRepo) List(_ context.Context, tenantID uuid.UUID, _, _ int) ([]model.ShiftClosure, int64, error) {
	var out []model.ShiftClosure
	for _, c := range r.closures {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

// ── Expense ───────────────────────────────────────────────────────────────────

type fakeExpenseRepo struct {
	waste       []model.WasteRecord
	maintenance []model.MaintenanceExpense
}

func newFakeExpenseRepo() *fakeExpenseRepo { return &fakeExpenseRepo{} }

func (r *fakeExpenseRepo) CreateWaste(_ context.Context, w *model.WasteRecord) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = time.Now().UTC()
	r.waste = append(r.waste, *w)
	return nil
}

func (r *fakeExpenseRepo) CreateMaintenance(_ context.Context, e *model.MaintenanceExpense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now().UTC()
	r.maintenance = append(r.maintenance, *e)
	return nil
}

func (r *fakeExpenseRepo) ListWasteSince(_ context.Context, tenantID uuid.UUID, since time.Time) ([]model.WasteRecord, error) {
	var out []model.WasteRecord
	for _, w := range r.waste {
		if w.TenantID == tenantID && w.CreatedAt.After(since) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeExpenseRepo) ListMaintenanceSince(_ context.Context, tenantID uuid.UUID, since time.Time) ([]model.MaintenanceExpense, error) {
	var out []model.MaintenanceExpense
	for _, m := range r.maintenance {
		if m.TenantID == tenantID && m.CreatedAt.After(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

// ── Product ───────────────────────────────────────────────────────────────────

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[uuid.UUID]*model.Product{}}
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) List(_ context.Context, tenantID uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.TenantID == tenantID && p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

// ── Billing ───────────────────────────────────────────────────────────────────

type fakeBillingRepo struct {
	docs []*model.BillingDocument
}

func newFakeBillingRepo() *fakeBillingRepo { return &fakeBillingRepo{} }

func (r *fakeBillingRepo) Create(_ context.Context, d *model.BillingDocument) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()
	r.docs = append(r.docs, d)
	return nil
}

func (r *fakeBillingRepo) Update(_ context.Context, d *model.BillingDocument) error {
	for i, doc := range r.docs {
		if doc.ID == d.ID {
			r.docs[i] = d
		}
	}
	return nil
}

func (r *fakeBillingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BillingDocument, error) {
	for _, d := range r.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBillingRepo) FindBySessionID(_ context.Context, sessionID uuid.UUID) (*model.BillingDocument, error) {
	for _, d := range r.docs {
		if d.SessionID != nil && *d.SessionID == sessionID {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBillingRepo) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.BillingDocument, error) {
	var out []model.BillingDocument
	for _, d := range r.docs {
		if d.Status == model.BillingStatusError && d.NextRetryAt != nil && d.NextRetryAt.Before(now) {
			out = append(out, *d)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// ── Audit ─────────────────────────────────────────────────────────────────────

type fakeAuditRepo struct {
	events []model.AuditEvent
}

func newFakeAuditRepo() *fakeAuditRepo { return &fakeAuditRepo{} }

func (r *fakeAuditRepo) Append(_ context.Context, e *model.AuditEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now().UTC()
	r.events = append(r.events, *e)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]model.AuditEvent, error) {
	var out []model.AuditEvent
	for _, e := range r.events {
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) List(_ context.Context, tenantID uuid.UUID, _, _ int) ([]model.AuditEvent, int64, error) {
	var out []model.AuditEvent
	for _, e := range r.events {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) eventsOfType(eventType string) []model.AuditEvent {
	var out []model.AuditEvent
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// ── Builders ──────────────────────────────────────────────────────────────────

func newTestTenant() *model.Tenant {
	return &model.Tenant{
		ID:             uuid.New(),
		Name:           "Club Test",
		BusinessModel:  model.BusinessModelComercial,
		BaseHourlyRate: decimal.NewFromInt(6000),
		TaxRate:        decimal.NewFromFloat(0.19),
		TaxName:        "IVA",
		CurrencyCode:   "CLP",
		CurrencySymbol: "$",
		Tiers: model.TierSettings{
			VIPDiscountPct:    decimal.NewFromInt(20),
			SocioDiscountPct:  decimal.NewFromInt(30),
			VIPSpendThreshold: decimal.Zero,
		},
		Active: true,
	}
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}
