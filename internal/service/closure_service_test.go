package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

type closureEnv struct {
	tenant      *model.Tenant
	tenantRepo  *fakeTenantRepo
	sessionRepo *fakeSessionRepo
	memberRepo  *fakeMemberRepo
	expenseRepo *fakeExpenseRepo
	closureRepo *fakeClosureRepo
	auditRepo   *fakeAuditRepo
	svc         ClosureService
}

func newClosureEnv() *closureEnv {
	env := &closureEnv{
		tenant:      newTestTenant(),
		tenantRepo:  newFakeTenantRepo(),
		sessionRepo: newFakeSessionRepo(),
		memberRepo:  newFakeMemberRepo(),
		expenseRepo: newFakeExpenseRepo(),
		closureRepo: newFakeClosureRepo(),
		auditRepo:   newFakeAuditRepo(),
	}
	env.tenantRepo.tenants[env.tenant.ID] = env.tenant
	env.svc = NewClosureService(
		env.closureRepo, env.sessionRepo, env.memberRepo, env.expenseRepo,
		env.tenantRepo, NewAuditService(env.auditRepo), nil)
	return env
}

func completedPayment(method, amount string) model.PaymentRecord {
	return model.PaymentRecord{
		ID:     uuid.New(),
		Amount: dec(amount),
		Method: method,
		Status: model.PaymentCompleted,
	}
}

// addSettledSession registers an ended, unconsolidated session ready for the
// next closure.
func (e *closureEnv) addSettledSession(amount, timeCharged string, payments ...model.PaymentRecord) *model.TableSession {
	now := time.Now().UTC()
	s := &model.TableSession{
		ID:            uuid.New(),
		TenantID:      e.tenant.ID,
		TableNumber:   len(e.sessionRepo.sessions) + 1,
		StartedAt:     now.Add(-time.Hour),
		EndedAt:       &now,
		AmountCharged: dec(amount),
		TimeCharged:   dec(timeCharged),
		PaymentStatus: model.PaymentCompleted,
		Payments:      payments,
	}
	e.sessionRepo.sessions[s.ID] = s
	return s
}

func TestConsolidate_DifferenceAtToleranceDoesNotAlert(t *testing.T) {
	env := newClosureEnv()
	session := env.addSettledSession("7140", "7140", completedPayment("cash", "7140"))

	// Blind count 500 short: exactly at the default tolerance → no alert.
	resp, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("6640")})
	require.NoError(t, err)

	assertMoney(t, "7140", resp.Revenue.Time)
	assertMoney(t, "7140", resp.Revenue.Total)
	assertMoney(t, "7140", resp.Payments.Cash)
	assertMoney(t, "-500", resp.CashDifference)
	assert.False(t, resp.HasCashAlert)
	assert.Equal(t, 1, resp.SessionCount)
	assert.NotEmpty(t, resp.Seal.Hash)

	// The consumed session is stamped and leaves the eligible pool.
	assert.NotNil(t, session.ClosureID)
	assert.Empty(t, env.auditRepo.eventsOfType(model.EventCashDiscrepancy))
}

func TestConsolidate_DifferenceBeyondToleranceAlerts(t *testing.T) {
	env := newClosureEnv()
	env.addSettledSession("7140", "7140", completedPayment("cash", "7140"))

	resp, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("6639")})
	require.NoError(t, err)

	assertMoney(t, "-501", resp.CashDifference)
	assert.True(t, resp.HasCashAlert)

	events := env.auditRepo.eventsOfType(model.EventCashDiscrepancy)
	require.Len(t, events, 1)
	assert.Equal(t, model.SeverityWarn, events[0].Severity)
}

func TestConsolidate_TenantToleranceOverridesDefault(t *testing.T) {
	env := newClosureEnv()
	tol := dec("1000")
	env.tenant.CashAlertTolerance = &tol
	env.addSettledSession("7140", "7140", completedPayment("cash", "7140"))

	resp, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("6639")})
	require.NoError(t, err)

	assert.False(t, resp.HasCashAlert)
}

func TestConsolidate_NothingToClose(t *testing.T) {
	env := newClosureEnv()

	_, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("0")})

	assert.ErrorIs(t, err, ErrNothingToClose)
	assert.Empty(t, env.closureRepo.closures)
}

func TestConsolidate_ConcurrentStampFails(t *testing.T) {
	env := newClosureEnv()
	env.addSettledSession("7140", "7140", completedPayment("cash", "7140"))
	env.addSettledSession("5712", "5712", completedPayment("cash", "5712"))
	env.sessionRepo.stampShort = true

	_, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("12852")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cierre concurrente")
}

func TestConsolidate_RevenueAndCostBuckets(t *testing.T) {
	env := newClosureEnv()

	// Session: time 5712 + consumption 3000 net (product 2000, rental 1000),
	// gross consumption 3000 × 1.19 = 3570 → amount charged 9282.
	cue := &model.Product{ID: uuid.New(), TenantID: env.tenant.ID, Name: "Arriendo taco", CostPrice: dec("0")}
	beer := &model.Product{ID: uuid.New(), TenantID: env.tenant.ID, Name: "Cerveza", CostPrice: dec("600")}
	session := env.addSettledSession("9282", "5712",
		completedPayment("cash", "5000"),
		completedPayment("card", "4282"),
		model.PaymentRecord{ID: uuid.New(), Amount: dec("100"), Method: "cash", Status: model.PaymentVoided},
	)
	session.Items = []model.ConsumptionItem{
		{SessionID: session.ID, ProductID: beer.ID, Kind: model.ItemKindProduct, Quantity: 2, UnitPrice: dec("1000"), LineTotal: dec("2000"), Product: beer},
		{SessionID: session.ID, ProductID: cue.ID, Kind: model.ItemKindRental, Quantity: 1, UnitPrice: dec("1000"), LineTotal: dec("1000"), Product: cue},
	}

	// Membership fee paid in cash since the last closure.
	member := &model.Member{ID: uuid.New(), TenantID: env.tenant.ID, Category: model.CategorySocio, Active: true}
	env.memberRepo.members[member.ID] = member
	require.NoError(t, env.memberRepo.CreateFee(context.Background(), &model.MembershipFee{
		TenantID: env.tenant.ID, MemberID: member.ID, Amount: dec("10000"), Method: "cash",
	}))

	// Shift expenses: 2 broken beers + table felt repair.
	require.NoError(t, env.expenseRepo.CreateWaste(context.Background(), &model.WasteRecord{
		TenantID: env.tenant.ID, ProductID: beer.ID, Quantity: dec("2"), CostPrice: dec("500"), Reason: "quiebre",
	}))
	require.NoError(t, env.expenseRepo.CreateMaintenance(context.Background(), &model.MaintenanceExpense{
		TenantID: env.tenant.ID, Description: "cambio de paño", Amount: dec("2000"),
	}))

	resp, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("15000")})
	require.NoError(t, err)

	assertMoney(t, "5712", resp.Revenue.Time)
	// Gross consumption 3570 split pro-rata over net line totals: 2380 / 1190.
	assertMoney(t, "2380", resp.Revenue.Product)
	assertMoney(t, "1190", resp.Revenue.Rental)
	assertMoney(t, "10000", resp.Revenue.Membership)
	assertMoney(t, "19282", resp.Revenue.Total)

	// Voided payment excluded; fee lands in the cash bucket.
	assertMoney(t, "15000", resp.Payments.Cash)
	assertMoney(t, "4282", resp.Payments.Card)
	assertMoney(t, "0", resp.Payments.Credit)

	assertMoney(t, "1200", resp.Costs.Goods) // 2 × 600 COGS
	assertMoney(t, "1000", resp.Costs.Waste) // |2| × 500
	assertMoney(t, "2000", resp.Costs.Maintenance)
	assertMoney(t, "4200", resp.Costs.Total)
	assertMoney(t, "15082", resp.NetProfit)

	assert.False(t, resp.HasCashAlert)

	// The fee is stamped alongside the sessions.
	require.Len(t, env.memberRepo.fees, 1)
	assert.NotNil(t, env.memberRepo.fees[0].ClosureID)
}

func TestConsolidate_NormalizesLegacyPaymentMethods(t *testing.T) {
	env := newClosureEnv()
	env.addSettledSession("6000", "6000",
		completedPayment("efectivo", "2000"),
		completedPayment("tarjeta", "1500"),
		completedPayment("fiado", "2500"),
	)

	resp, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("2000")})
	require.NoError(t, err)

	assertMoney(t, "2000", resp.Payments.Cash)
	assertMoney(t, "1500", resp.Payments.Card)
	assertMoney(t, "2500", resp.Payments.Credit)
}

func TestVerifyIntegrity_RoundTripAndTamper(t *testing.T) {
	env := newClosureEnv()
	env.addSettledSession("7140", "7140", completedPayment("cash", "7140"))

	resp, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("7140")})
	require.NoError(t, err)

	closureID := uuid.MustParse(resp.ID)
	valid, err := env.svc.VerifyIntegrity(context.Background(), env.tenant.ID, closureID)
	require.NoError(t, err)
	assert.True(t, valid)

	// A retroactive edit to the stored row breaks the recorded seal.
	env.closureRepo.closures[0].CashRevenue = env.closureRepo.closures[0].CashRevenue.Add(dec("1000"))
	valid, err = env.svc.VerifyIntegrity(context.Background(), env.tenant.ID, closureID)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestGet_ScopedToTenant(t *testing.T) {
	env := newClosureEnv()
	env.addSettledSession("7140", "7140", completedPayment("cash", "7140"))

	resp, err := env.svc.Consolidate(context.Background(), env.tenant.ID, uuid.New(),
		dto.CloseShiftRequest{CashInHand: dec("7140")})
	require.NoError(t, err)

	_, err = env.svc.Get(context.Background(), uuid.New(), uuid.MustParse(resp.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cierre no encontrado")
}
