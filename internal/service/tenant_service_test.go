package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
)

func newTenantEnv() (*fakeTenantRepo, TenantService, uuid.UUID) {
	repo := newFakeTenantRepo()
	tenant := newTestTenant()
	repo.tenants[tenant.ID] = tenant
	return repo, NewTenantService(repo), tenant.ID
}

func TestTenantUpdate_PartialFields(t *testing.T) {
	repo, svc, tenantID := newTenantEnv()
	rate := dec("7500")
	vip := dec("25")

	resp, err := svc.Update(context.Background(), tenantID, dto.UpdateTenantRequest{
		BaseHourlyRate: &rate,
		VIPDiscountPct: &vip,
	})
	require.NoError(t, err)

	assertMoney(t, "7500", resp.BaseHourlyRate)
	assertMoney(t, "25", resp.VIPDiscountPct)
	// Untouched fields keep their values.
	assertMoney(t, "0.19", resp.TaxRate)
	assert.Equal(t, "COMERCIAL", resp.BusinessModel)
	assertMoney(t, "7500", repo.tenants[tenantID].BaseHourlyRate)
}

func TestTenantUpdate_TaxRateOutOfRangeRefused(t *testing.T) {
	_, svc, tenantID := newTenantEnv()
	bad := dec("1.5")

	_, err := svc.Update(context.Background(), tenantID, dto.UpdateTenantRequest{TaxRate: &bad})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuera de rango")

	neg := dec("-0.1")
	_, err = svc.Update(context.Background(), tenantID, dto.UpdateTenantRequest{TaxRate: &neg})
	assert.Error(t, err)
}

func TestTenantUpdate_DiscountPctBounds(t *testing.T) {
	_, svc, tenantID := newTenantEnv()
	over := dec("120")

	_, err := svc.Update(context.Background(), tenantID, dto.UpdateTenantRequest{SocioDiscountPct: &over})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "[0,100]")
}

func TestTenantGet_Unknown(t *testing.T) {
	_, svc, _ := newTenantEnv()

	_, err := svc.Get(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant no encontrado")
}
