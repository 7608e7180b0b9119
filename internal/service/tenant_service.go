package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
)

// TenantService exposes the venue's own settings. Creation happens out of
// band (seed/back office); the API only reads and updates the current tenant.
type TenantService interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*dto.TenantResponse, error)
	Update(ctx context.Context, tenantID uuid.UUID, req dto.UpdateTenantRequest) (*dto.TenantResponse, error)
}

type tenantService struct {
	repo repository.TenantRepository
}

func NewTenantService(repo repository.TenantRepository) TenantService {
	return &tenantService{repo: repo}
}

func (s *tenantService) Get(ctx context.Context, tenantID uuid.UUID) (*dto.TenantResponse, error) {
	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, errors.New("tenant no encontrado")
	}
	return tenantToResponse(tenant), nil
}

// Update applies partial settings changes. The tax rate must land in [0,1]:
// unlike the pricing engine, which clamps and warns for already-stored bad
// values, the write path simply refuses them.
func (s *tenantService) Update(ctx context.Context, tenantID uuid.UUID, req dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, errors.New("tenant no encontrado")
	}

	if req.TaxRate != nil {
		if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("tasa de impuesto fuera de rango [0,1]: %s", req.TaxRate)
		}
		tenant.TaxRate = *req.TaxRate
	}
	if req.BaseHourlyRate != nil {
		if !req.BaseHourlyRate.IsPositive() {
			return nil, errors.New("la tarifa por hora debe ser positiva")
		}
		tenant.BaseHourlyRate = *req.BaseHourlyRate
	}
	if pct := req.VIPDiscountPct; pct != nil {
		if err := validatePct(*pct); err != nil {
			return nil, err
		}
		tenant.Tiers.VIPDiscountPct = *pct
	}
	if pct := req.SocioDiscountPct; pct != nil {
		if err := validatePct(*pct); err != nil {
			return nil, err
		}
		tenant.Tiers.SocioDiscountPct = *pct
	}
	if req.VIPSpendThreshold != nil {
		if req.VIPSpendThreshold.IsNegative() {
			return nil, errors.New("el umbral de gasto VIP no puede ser negativo")
		}
		tenant.Tiers.VIPSpendThreshold = *req.VIPSpendThreshold
	}
	if req.CashAlertTolerance != nil {
		if req.CashAlertTolerance.IsNegative() {
			return nil, errors.New("la tolerancia de caja no puede ser negativa")
		}
		tenant.CashAlertTolerance = req.CashAlertTolerance
	}
	if req.Name != nil {
		tenant.Name = *req.Name
	}
	if req.BusinessModel != nil {
		tenant.BusinessModel = model.BusinessModel(*req.BusinessModel)
	}
	if req.TaxName != nil {
		tenant.TaxName = *req.TaxName
	}
	if req.ReportEmail != nil {
		tenant.ReportEmail = req.ReportEmail
	}

	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenantToResponse(tenant), nil
}

func validatePct(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("porcentaje de descuento fuera de rango [0,100]: %s", pct)
	}
	return nil
}

func tenantToResponse(t *model.Tenant) *dto.TenantResponse {
	return &dto.TenantResponse{
		ID:                 t.ID.String(),
		Name:               t.Name,
		BusinessModel:      string(t.BusinessModel),
		BaseHourlyRate:     t.BaseHourlyRate,
		TaxRate:            t.TaxRate,
		TaxName:            t.TaxName,
		CurrencyCode:       t.CurrencyCode,
		CurrencySymbol:     t.CurrencySymbol,
		VIPDiscountPct:     t.Tiers.VIPDiscountPct,
		VIPSpendThreshold:  t.Tiers.VIPSpendThreshold,
		SocioDiscountPct:   t.Tiers.SocioDiscountPct,
		ReportEmail:        t.ReportEmail,
		CashAlertTolerance: t.CashAlertTolerance,
	}
}
