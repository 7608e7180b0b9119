package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/worker"
)

type BillingService interface {
	// EmitForSession creates the fiscal document for a closed session and
	// enqueues the sidecar submission. The net/tax/total triple is validated
	// before anything is persisted: a document whose parts do not reproduce
	// its total must never reach the SII.
	EmitForSession(ctx context.Context, tenantID, sessionID uuid.UUID, documentType string, customerEmail *string) (*dto.BillingDocumentResponse, error)
	Get(ctx context.Context, tenantID, documentID uuid.UUID) (*dto.BillingDocumentResponse, error)
	GetBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (*dto.BillingDocumentResponse, error)
}

type billingService struct {
	repo        repository.BillingRepository
	sessionRepo repository.SessionRepository
	tenantRepo  repository.TenantRepository
	dispatcher  *worker.Dispatcher
}

func NewBillingService(
	repo repository.BillingRepository,
	sessionRepo repository.SessionRepository,
	tenantRepo repository.TenantRepository,
	dispatcher *worker.Dispatcher,
) BillingService {
	return &billingService{
		repo:        repo,
		sessionRepo: sessionRepo,
		tenantRepo:  tenantRepo,
		dispatcher:  dispatcher,
	}
}

func (s *billingService) EmitForSession(ctx context.Context, tenantID, sessionID uuid.UUID, documentType string, customerEmail *string) (*dto.BillingDocumentResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, errors.New("tenant no encontrado")
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil || session.TenantID != tenantID {
		return nil, errors.New("sesión no encontrada")
	}
	if session.EndedAt == nil {
		return nil, errors.New("no se puede emitir un documento para una sesión abierta")
	}

	// One document per session: re-emission returns the existing record.
	if existing, err := s.repo.FindBySessionID(ctx, sessionID); err == nil && existing != nil {
		return documentToResponse(existing), nil
	}

	breakdown := BreakdownGross(session.AmountCharged, effectiveTaxRate(tenant))
	if check := ValidateEmissionTotals(breakdown.Net, breakdown.Tax, breakdown.Gross, tenant.CurrencyCode); !check.Valid {
		return nil, fmt.Errorf("los montos del documento no cuadran: %s", check.Reason)
	}

	sid := sessionID
	doc := &model.BillingDocument{
		TenantID:     tenantID,
		SessionID:    &sid,
		DocumentType: documentType,
		NetAmount:    breakdown.Net,
		TaxAmount:    breakdown.Tax,
		TotalAmount:  breakdown.Gross,
		Status:       model.BillingStatusPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		payload := map[string]interface{}{
			"document_id": doc.ID.String(),
		}
		if customerEmail != nil && *customerEmail != "" {
			payload["customer_email"] = *customerEmail
		}
		_ = s.dispatcher.EnqueueBilling(ctx, payload)
	}
	return documentToResponse(doc), nil
}

func (s *billingService) Get(ctx context.Context, tenantID, documentID uuid.UUID) (*dto.BillingDocumentResponse, error) {
	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil || doc.TenantID != tenantID {
		return nil, errors.New("documento no encontrado")
	}
	return documentToResponse(doc), nil
}

func (s *billingService) GetBySession(ctx context.Context, tenantID, sessionID uuid.UUID) (*dto.BillingDocumentResponse, error) {
	doc, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil || doc.TenantID != tenantID {
		return nil, errors.New("documento no encontrado")
	}
	return documentToResponse(doc), nil
}

func documentToResponse(d *model.BillingDocument) *dto.BillingDocumentResponse {
	resp := &dto.BillingDocumentResponse{
		ID:              d.ID.String(),
		DocumentType:    d.DocumentType,
		Folio:           d.Folio,
		NetAmount:       d.NetAmount,
		TaxAmount:       d.TaxAmount,
		TotalAmount:     d.TotalAmount,
		Status:          d.Status,
		VerificationURL: d.VerificationURL,
		CreatedAt:       d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if d.SessionID != nil {
		sid := d.SessionID.String()
		resp.SessionID = &sid
	}
	return resp
}
