package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
)

// AuditService appends events to the append-only trail. Recording is
// best-effort for the caller's happy path: a failed append is logged but
// never fails the business operation that produced the event.
type AuditService interface {
	Record(ctx context.Context, tenantID uuid.UUID, eventType, severity, message string, details map[string]interface{})
	// RecordEntity also links the event to a specific record, so it can be
	// retrieved later (e.g. the integrity seal of a given closure).
	RecordEntity(ctx context.Context, tenantID uuid.UUID, eventType, severity, message, entityType string, entityID uuid.UUID, details map[string]interface{}) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.AuditEvent, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.AuditEvent, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, tenantID uuid.UUID, eventType, severity, message string, details map[string]interface{}) {
	var raw []byte
	if details != nil {
		raw, _ = json.Marshal(details)
	}
	event := &model.AuditEvent{
		TenantID: tenantID,
		Type:     eventType,
		Severity: severity,
		Message:  message,
		Details:  raw,
	}
	if err := s.repo.Append(ctx, event); err != nil {
		log.Error().Err(err).
			Str("tenant_id", tenantID.String()).
			Str("type", eventType).
			Msg("audit: failed to append event")
		return
	}
	log.Info().
		Str("tenant_id", tenantID.String()).
		Str("type", eventType).
		Str("severity", severity).
		Msg(message)
}

func (s *auditService) RecordEntity(ctx context.Context, tenantID uuid.UUID, eventType, severity, message, entityType string, entityID uuid.UUID, details map[string]interface{}) error {
	var raw []byte
	if details != nil {
		raw, _ = json.Marshal(details)
	}
	eid := entityID
	event := &model.AuditEvent{
		TenantID:   tenantID,
		Type:       eventType,
		Severity:   severity,
		Message:    message,
		EntityType: entityType,
		EntityID:   &eid,
		Details:    raw,
	}
	if err := s.repo.Append(ctx, event); err != nil {
		return err
	}
	log.Info().
		Str("tenant_id", tenantID.String()).
		Str("type", eventType).
		Str("entity_id", entityID.String()).
		Msg(message)
	return nil
}

func (s *auditService) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.AuditEvent, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

func (s *auditService) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.AuditEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return s.repo.List(ctx, tenantID, page, limit)
}
