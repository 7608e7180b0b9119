package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
)

type billingEnv struct {
	tenant      *model.Tenant
	repo        *fakeBillingRepo
	sessionRepo *fakeSessionRepo
	tenantRepo  *fakeTenantRepo
	svc         BillingService
}

func newBillingEnv() *billingEnv {
	env := &billingEnv{
		tenant:      newTestTenant(),
		repo:        newFakeBillingRepo(),
		sessionRepo: newFakeSessionRepo(),
		tenantRepo:  newFakeTenantRepo(),
	}
	env.tenantRepo.tenants[env.tenant.ID] = env.tenant
	env.svc = NewBillingService(env.repo, env.sessionRepo, env.tenantRepo, nil)
	return env
}

func (e *billingEnv) closedSession(amount string) *model.TableSession {
	now := time.Now().UTC()
	s := &model.TableSession{
		ID:            uuid.New(),
		TenantID:      e.tenant.ID,
		TableNumber:   1,
		StartedAt:     now.Add(-time.Hour),
		EndedAt:       &now,
		AmountCharged: dec(amount),
	}
	e.sessionRepo.sessions[s.ID] = s
	return s
}

func TestEmitForSession_BreaksDownGrossIntoNetAndTax(t *testing.T) {
	env := newBillingEnv()
	session := env.closedSession("7140")

	resp, err := env.svc.EmitForSession(context.Background(), env.tenant.ID, session.ID, model.DocTypeBoleta, nil)
	require.NoError(t, err)

	assert.Equal(t, model.DocTypeBoleta, resp.DocumentType)
	assert.Equal(t, model.BillingStatusPending, resp.Status)
	assertMoney(t, "6000", resp.NetAmount)
	assertMoney(t, "1140", resp.TaxAmount)
	assertMoney(t, "7140", resp.TotalAmount)
	assert.Nil(t, resp.Folio, "folio is assigned by the emitter, not locally")
}

func TestEmitForSession_OpenSessionRejected(t *testing.T) {
	env := newBillingEnv()
	session := env.closedSession("7140")
	session.EndedAt = nil

	_, err := env.svc.EmitForSession(context.Background(), env.tenant.ID, session.ID, model.DocTypeBoleta, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sesión abierta")
	assert.Empty(t, env.repo.docs)
}

func TestEmitForSession_ReemissionReturnsExistingDocument(t *testing.T) {
	env := newBillingEnv()
	session := env.closedSession("7140")

	first, err := env.svc.EmitForSession(context.Background(), env.tenant.ID, session.ID, model.DocTypeBoleta, nil)
	require.NoError(t, err)
	second, err := env.svc.EmitForSession(context.Background(), env.tenant.ID, session.ID, model.DocTypeBoleta, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, env.repo.docs, 1)
}

func TestEmitForSession_ExemptTenant(t *testing.T) {
	env := newBillingEnv()
	env.tenant.TaxRate = dec("0")
	session := env.closedSession("5000")

	resp, err := env.svc.EmitForSession(context.Background(), env.tenant.ID, session.ID, model.DocTypeBoleta, nil)
	require.NoError(t, err)

	assertMoney(t, "5000", resp.NetAmount)
	assertMoney(t, "0", resp.TaxAmount)
}

func TestGetDocument_ScopedToTenant(t *testing.T) {
	env := newBillingEnv()
	session := env.closedSession("7140")
	resp, err := env.svc.EmitForSession(context.Background(), env.tenant.ID, session.ID, model.DocTypeBoleta, nil)
	require.NoError(t, err)

	_, err = env.svc.Get(context.Background(), uuid.New(), uuid.MustParse(resp.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "documento no encontrado")
}
