package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

type sessionEnv struct {
	tenant      *model.Tenant
	repo        *fakeSessionRepo
	tenantRepo  *fakeTenantRepo
	memberRepo  *fakeMemberRepo
	productRepo *fakeProductRepo
	closureRepo *fakeClosureRepo
	auditRepo   *fakeAuditRepo
	svc         SessionService
}

func newSessionEnv() *sessionEnv {
	env := &sessionEnv{
		tenant:      newTestTenant(),
		repo:        newFakeSessionRepo(),
		tenantRepo:  newFakeTenantRepo(),
		memberRepo:  newFakeMemberRepo(),
		productRepo: newFakeProductRepo(),
		closureRepo: newFakeClosureRepo(),
		auditRepo:   newFakeAuditRepo(),
	}
	env.tenantRepo.tenants[env.tenant.ID] = env.tenant
	env.svc = NewSessionService(
		env.repo, env.tenantRepo, env.memberRepo, env.productRepo,
		env.closureRepo, NewAuditService(env.auditRepo), nil)
	return env
}

// openSession seeds an open session that started `ago` before now. Using
// 59m30s yields a deterministic 60 charged minutes regardless of test speed.
func (e *sessionEnv) openSession(ago time.Duration, memberID *uuid.UUID) *model.TableSession {
	s := &model.TableSession{
		ID:               uuid.New(),
		TenantID:         e.tenant.ID,
		TableNumber:      len(e.repo.sessions) + 1,
		MemberID:         memberID,
		StartedAt:        time.Now().UTC().Add(-ago),
		ConsumptionTotal: decimal.Zero,
		PaymentStatus:    model.PaymentPending,
	}
	e.repo.sessions[s.ID] = s
	return s
}

const hourish = 59*time.Minute + 30*time.Second

func TestStart_OneOpenSessionPerTable(t *testing.T) {
	env := newSessionEnv()

	first, err := env.svc.Start(context.Background(), env.tenant.ID, dto.StartSessionRequest{TableNumber: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, first.TableNumber)

	_, err = env.svc.Start(context.Background(), env.tenant.ID, dto.StartSessionRequest{TableNumber: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ya tiene una sesión abierta")

	_, err = env.svc.Start(context.Background(), env.tenant.ID, dto.StartSessionRequest{TableNumber: 4})
	assert.NoError(t, err)
}

func TestStart_UnknownMemberRejected(t *testing.T) {
	env := newSessionEnv()
	ghost := uuid.New().String()

	_, err := env.svc.Start(context.Background(), env.tenant.ID, dto.StartSessionRequest{
		TableNumber: 1,
		MemberID:    &ghost,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "socio no encontrado")
}

func TestAddConsumption_AccumulatesTotal(t *testing.T) {
	env := newSessionEnv()
	beer := &model.Product{ID: uuid.New(), TenantID: env.tenant.ID, Name: "Cerveza", SalePrice: dec("1500"), Active: true}
	env.productRepo.products[beer.ID] = beer
	session := env.openSession(time.Minute, nil)

	resp, err := env.svc.AddConsumption(context.Background(), env.tenant.ID, session.ID,
		dto.AddConsumptionRequest{ProductID: beer.ID.String(), Quantity: 2})
	require.NoError(t, err)

	assertMoney(t, "3000", resp.ConsumptionTotal)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Cerveza", resp.Items[0].Product)
	assertMoney(t, "3000", resp.Items[0].LineTotal)
}

func TestAddConsumption_ClosedSessionRejected(t *testing.T) {
	env := newSessionEnv()
	beer := &model.Product{ID: uuid.New(), TenantID: env.tenant.ID, Name: "Cerveza", SalePrice: dec("1500"), Active: true}
	env.productRepo.products[beer.ID] = beer
	session := env.openSession(time.Hour, nil)
	now := time.Now().UTC()
	session.EndedAt = &now

	_, err := env.svc.AddConsumption(context.Background(), env.tenant.ID, session.ID,
		dto.AddConsumptionRequest{ProductID: beer.ID.String(), Quantity: 1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ya está cerrada")
}

func TestRegisterPayment_IdempotencyKeyDedupes(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(time.Minute, nil)
	key := "evt-2026-08-29-0001"

	_, err := env.svc.RegisterPayment(context.Background(), env.tenant.ID, session.ID,
		dto.PaymentRequest{Method: "cash", Amount: dec("5000"), IdempotencyKey: &key})
	require.NoError(t, err)

	// Re-delivery of the same event: no double charge.
	_, err = env.svc.RegisterPayment(context.Background(), env.tenant.ID, session.ID,
		dto.PaymentRequest{Method: "cash", Amount: dec("5000"), IdempotencyKey: &key})
	require.NoError(t, err)

	assert.Len(t, env.repo.payments, 1)
}

func TestRegisterPayment_KeyBoundToSession(t *testing.T) {
	env := newSessionEnv()
	a := env.openSession(time.Minute, nil)
	b := env.openSession(time.Minute, nil)
	key := "evt-2026-08-29-0002"

	_, err := env.svc.RegisterPayment(context.Background(), env.tenant.ID, a.ID,
		dto.PaymentRequest{Method: "cash", Amount: dec("5000"), IdempotencyKey: &key})
	require.NoError(t, err)

	_, err = env.svc.RegisterPayment(context.Background(), env.tenant.ID, b.ID,
		dto.PaymentRequest{Method: "cash", Amount: dec("5000"), IdempotencyKey: &key})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pertenece a otra sesión")
}

func TestRegisterPayment_RejectsNonPositiveAmount(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(time.Minute, nil)

	_, err := env.svc.RegisterPayment(context.Background(), env.tenant.ID, session.ID,
		dto.PaymentRequest{Method: "cash", Amount: dec("0")})

	require.Error(t, err)
	assert.Empty(t, env.repo.payments)
}

func TestClose_ComputesFinalCharge(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(hourish, nil)

	resp, err := env.svc.Close(context.Background(), env.tenant.ID, session.ID,
		dto.CloseSessionRequest{Payments: []dto.PaymentRequest{{Method: "cash", Amount: dec("7140")}}})
	require.NoError(t, err)

	assert.Equal(t, 60, resp.DurationMinutes)
	require.NotNil(t, resp.Pricing)
	assertMoney(t, "7140", resp.Pricing.Total)
	assert.Equal(t, model.PaymentCompleted, resp.PaymentStatus)

	require.NotNil(t, session.EndedAt)
	assertMoney(t, "7140", session.AmountCharged)
	assertMoney(t, "7140", session.TimeCharged)
}

func TestClose_AlreadyClosedRejected(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(time.Hour, nil)
	now := time.Now().UTC()
	session.EndedAt = &now

	_, err := env.svc.Close(context.Background(), env.tenant.ID, session.ID, dto.CloseSessionRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ya está cerrada")
}

func TestClose_SplitMustReconcile(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(hourish, nil)

	_, err := env.svc.Close(context.Background(), env.tenant.ID, session.ID,
		dto.CloseSessionRequest{Payments: []dto.PaymentRequest{
			{Method: "cash", Amount: dec("3000")},
			{Method: "card", Amount: dec("3000")},
		}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cuadran con el total")
	assert.Nil(t, session.EndedAt, "a failed split leaves the session open")
}

func TestClose_ValidSplitRecordsBothPayments(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(hourish, nil)

	resp, err := env.svc.Close(context.Background(), env.tenant.ID, session.ID,
		dto.CloseSessionRequest{Payments: []dto.PaymentRequest{
			{Method: "cash", Amount: dec("3570")},
			{Method: "card", Amount: dec("3570")},
		}})
	require.NoError(t, err)

	assert.Len(t, resp.Payments, 2)
	assert.Equal(t, model.PaymentCompleted, resp.PaymentStatus)
}

func TestClose_SeparatesTimeFromConsumption(t *testing.T) {
	env := newSessionEnv()
	member := &model.Member{ID: uuid.New(), TenantID: env.tenant.ID, Category: model.CategoryVIP, Active: true}
	env.memberRepo.members[member.ID] = member
	session := env.openSession(hourish, &member.ID)
	session.ConsumptionTotal = dec("1000")

	resp, err := env.svc.Close(context.Background(), env.tenant.ID, session.ID,
		dto.CloseSessionRequest{Payments: []dto.PaymentRequest{{Method: "cash", Amount: dec("6902")}}})
	require.NoError(t, err)

	// (6000 − 20% + 1000) × 1.19 = 6902; gross consumption 1190 → time 5712.
	assertMoney(t, "6902", resp.Pricing.Total)
	assertMoney(t, "1200", resp.Pricing.DiscountAmount)
	assertMoney(t, "5712", session.TimeCharged)
	assertMoney(t, "6902", member.TotalSpent)

	// The independent cross-check found nothing to escalate.
	assert.Empty(t, env.auditRepo.eventsOfType(model.EventDiscountMismatch))
}

func TestClose_AutoUpgradesToVIP(t *testing.T) {
	env := newSessionEnv()
	env.tenant.Tiers.VIPSpendThreshold = dec("50000")
	member := &model.Member{
		ID:         uuid.New(),
		TenantID:   env.tenant.ID,
		FullName:   "Pedro Rojas",
		Category:   model.CategoryGeneral,
		TotalSpent: dec("45000"),
		Active:     true,
	}
	env.memberRepo.members[member.ID] = member
	session := env.openSession(hourish, &member.ID)

	_, err := env.svc.Close(context.Background(), env.tenant.ID, session.ID,
		dto.CloseSessionRequest{Payments: []dto.PaymentRequest{{Method: "cash", Amount: dec("7140")}}})
	require.NoError(t, err)

	assert.Equal(t, model.CategoryVIP, member.Category)
	assertMoney(t, "52140", member.TotalSpent)

	require.Len(t, env.memberRepo.trail, 1)
	change := env.memberRepo.trail[0]
	assert.Equal(t, model.CategoryGeneral, change.FromCategory)
	assert.Equal(t, model.CategoryVIP, change.ToCategory)
	assert.Contains(t, change.Reason, "ascenso automático")
	assert.Len(t, env.auditRepo.eventsOfType(model.EventTierChange), 1)
}

func TestClose_LapsedSocioChargedGeneralRateAndAudited(t *testing.T) {
	env := newSessionEnv()
	env.tenant.BusinessModel = model.BusinessModelClubSocios
	member := &model.Member{
		ID:                 uuid.New(),
		TenantID:           env.tenant.ID,
		FullName:           "Ana Díaz",
		Category:           model.CategorySocio,
		SubscriptionStatus: model.SubscriptionInArrears,
		Active:             true,
	}
	env.memberRepo.members[member.ID] = member
	session := env.openSession(hourish, &member.ID)

	resp, err := env.svc.Close(context.Background(), env.tenant.ID, session.ID,
		dto.CloseSessionRequest{Payments: []dto.PaymentRequest{{Method: "cash", Amount: dec("7140")}}})
	require.NoError(t, err)

	assertMoney(t, "7140", resp.Pricing.Total)
	assertMoney(t, "0", resp.Pricing.DiscountAmount)
	assert.Len(t, env.auditRepo.eventsOfType(model.EventSubscriptionLapsed), 1)
}

func TestQuote_DoesNotCloseTheSession(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(hourish, nil)

	quote, err := env.svc.Quote(context.Background(), env.tenant.ID, session.ID)
	require.NoError(t, err)

	assertMoney(t, "7140", quote.Total)
	assert.Nil(t, session.EndedAt)
	assert.Equal(t, model.PaymentPending, session.PaymentStatus)
}

func TestAuditPricingAnomalies_FlagsTamperedDiscount(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(time.Minute, nil)
	svc := env.svc.(*sessionService)

	// 20% of 6000 is 1200; a persisted 900 means someone edited the charge.
	pricing := dto.PricingResult{
		TimeCharge:         dec("6000"),
		DiscountPercentage: dec("20"),
		DiscountAmount:     dec("900"),
	}
	svc.auditPricingAnomalies(context.Background(), env.tenant, nil, session, pricing)

	events := env.auditRepo.eventsOfType(model.EventDiscountMismatch)
	require.Len(t, events, 1)
	assert.Equal(t, model.SeverityCritical, events[0].Severity)
}

func TestAuditPricingAnomalies_ConsistentDiscountStaysQuiet(t *testing.T) {
	env := newSessionEnv()
	session := env.openSession(time.Minute, nil)
	svc := env.svc.(*sessionService)

	pricing := dto.PricingResult{
		TimeCharge:         dec("6000"),
		DiscountPercentage: dec("20"),
		DiscountAmount:     dec("1200"),
	}
	svc.auditPricingAnomalies(context.Background(), env.tenant, nil, session, pricing)

	assert.Empty(t, env.auditRepo.eventsOfType(model.EventDiscountMismatch))
}

func TestElapsedMinutes_ChargesStartedMinutesInFull(t *testing.T) {
	from := time.Date(2026, 8, 29, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, elapsedMinutes(from, from))
	assert.Equal(t, 60, elapsedMinutes(from, from.Add(60*time.Minute)))
	assert.Equal(t, 61, elapsedMinutes(from, from.Add(60*time.Minute+time.Second)))
}
