package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
)

// CatalogService manages the sellable/rentable catalog and the shift
// expenses (waste, maintenance) that feed the closure's cost side.
type CatalogService interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID) ([]dto.ProductResponse, error)
	UpdateProduct(ctx context.Context, tenantID, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	DeactivateProduct(ctx context.Context, tenantID, id uuid.UUID) error
	RecordWaste(ctx context.Context, tenantID uuid.UUID, req dto.RecordWasteRequest) error
	RecordMaintenance(ctx context.Context, tenantID uuid.UUID, req dto.RecordMaintenanceRequest) error
}

type catalogService struct {
	productRepo repository.ProductRepository
	expenseRepo repository.ExpenseRepository
	audit       AuditService
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	expenseRepo repository.ExpenseRepository,
	audit AuditService,
) CatalogService {
	return &catalogService{productRepo: productRepo, expenseRepo: expenseRepo, audit: audit}
}

func (s *catalogService) CreateProduct(ctx context.Context, tenantID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.SalePrice.IsNegative() || req.CostPrice.IsNegative() {
		return nil, errors.New("los precios no pueden ser negativos")
	}
	p := &model.Product{
		TenantID:  tenantID,
		Name:      req.Name,
		SalePrice: req.SalePrice,
		CostPrice: req.CostPrice,
		Active:    true,
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.findScoped(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) ListProducts(ctx context.Context, tenantID uuid.UUID) ([]dto.ProductResponse, error) {
	products, err := s.productRepo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = productToResponse(&products[i])
	}
	return resp, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, tenantID, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.findScoped(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.SalePrice != nil {
		if req.SalePrice.IsNegative() {
			return nil, errors.New("los precios no pueden ser negativos")
		}
		p.SalePrice = *req.SalePrice
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return nil, errors.New("los precios no pueden ser negativos")
		}
		p.CostPrice = *req.CostPrice
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *catalogService) DeactivateProduct(ctx context.Context, tenantID, id uuid.UUID) error {
	p, err := s.findScoped(ctx, tenantID, id)
	if err != nil {
		return err
	}
	p.Active = false
	return s.productRepo.Update(ctx, p)
}

// RecordWaste snapshots the product's cost price at write-off time so later
// price changes don't alter already-closed shifts.
func (s *catalogService) RecordWaste(ctx context.Context, tenantID uuid.UUID, req dto.RecordWasteRequest) error {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return errors.New("producto no encontrado")
	}
	p, err := s.findScoped(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	if req.Quantity.IsZero() {
		return errors.New("la cantidad de merma no puede ser cero")
	}
	w := &model.WasteRecord{
		TenantID:  tenantID,
		ProductID: p.ID,
		Quantity:  req.Quantity,
		CostPrice: p.CostPrice,
		Reason:    req.Reason,
	}
	if err := s.expenseRepo.CreateWaste(ctx, w); err != nil {
		return err
	}
	s.audit.Record(ctx, tenantID, "WASTE_RECORDED", "INFO", "merma registrada", map[string]interface{}{
		"product_id": p.ID.String(),
		"product":    p.Name,
		"quantity":   req.Quantity.String(),
		"cost":       req.Quantity.Abs().Mul(p.CostPrice).String(),
		"reason":     req.Reason,
	})
	return nil
}

func (s *catalogService) RecordMaintenance(ctx context.Context, tenantID uuid.UUID, req dto.RecordMaintenanceRequest) error {
	if !req.Amount.IsPositive() {
		return errors.New("el monto de mantención debe ser positivo")
	}
	e := &model.MaintenanceExpense{
		TenantID:    tenantID,
		Description: req.Description,
		Amount:      req.Amount,
		TableNumber: req.TableNumber,
	}
	return s.expenseRepo.CreateMaintenance(ctx, e)
}

func (s *catalogService) findScoped(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil || p.TenantID != tenantID {
		return nil, errors.New("producto no encontrado")
	}
	return p, nil
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		SalePrice: p.SalePrice,
		CostPrice: p.CostPrice,
		Active:    p.Active,
	}
}
