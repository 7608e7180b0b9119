package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
)

type MemberService interface {
	Enroll(ctx context.Context, tenantID uuid.UUID, req dto.EnrollMemberRequest) (*dto.MemberResponse, error)
	Get(ctx context.Context, tenantID, memberID uuid.UUID) (*dto.MemberResponse, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]dto.MemberResponse, error)
	ChangeTier(ctx context.Context, tenantID, memberID, changedBy uuid.UUID, req dto.ChangeTierRequest) (*dto.MemberResponse, error)
	SetSubscription(ctx context.Context, tenantID, memberID uuid.UUID, req dto.SetSubscriptionRequest) (*dto.MemberResponse, error)
	TierHistory(ctx context.Context, tenantID, memberID uuid.UUID) ([]dto.TierChangeResponse, error)
	RecordFee(ctx context.Context, tenantID, memberID uuid.UUID, req dto.RecordFeeRequest) error
}

type memberService struct {
	repo  repository.MemberRepository
	audit AuditService
}

func NewMemberService(repo repository.MemberRepository, audit AuditService) MemberService {
	return &memberService{repo: repo, audit: audit}
}

// ── Enroll ────────────────────────────────────────────────────────────────────

func (s *memberService) Enroll(ctx context.Context, tenantID uuid.UUID, req dto.EnrollMemberRequest) (*dto.MemberResponse, error) {
	category := model.MemberCategory(req.Category)
	if category == "" {
		category = model.CategoryGeneral
	}
	member := &model.Member{
		TenantID:    tenantID,
		FullName:    req.FullName,
		Email:       req.Email,
		Category:    category,
		DiscountPct: req.DiscountPct,
		Active:      true,
	}
	// SOCIO enrollments start with the fee considered paid.
	if category == model.CategorySocio {
		member.SubscriptionStatus = model.SubscriptionActive
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}
	return memberToResponse(member), nil
}

func (s *memberService) Get(ctx context.Context, tenantID, memberID uuid.UUID) (*dto.MemberResponse, error) {
	member, err := s.findScoped(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	return memberToResponse(member), nil
}

func (s *memberService) List(ctx context.Context, tenantID uuid.UUID) ([]dto.MemberResponse, error) {
	members, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MemberResponse, len(members))
	for i := range members {
		resp[i] = *memberToResponse(&members[i])
	}
	return resp, nil
}

// expiryMarkers are the substrings that mark a SOCIO→GENERAL downgrade as a
// legitimate subscription expiry. Matching is case-insensitive.
var expiryMarkers = []string{"venc", "expir", "impag", "caduc", "no renov"}

func reasonSignalsExpiry(reason string) bool {
	lowered := strings.ToLower(reason)
	for _, marker := range expiryMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// ── ChangeTier ────────────────────────────────────────────────────────────────
// Every transition appends to the immutable trail. A SOCIO can only be
// downgraded to GENERAL when the stated reason records a subscription expiry;
// punitive or arbitrary downgrades are rejected so the trail stays honest.

func (s *memberService) ChangeTier(ctx context.Context, tenantID, memberID, changedBy uuid.UUID, req dto.ChangeTierRequest) (*dto.MemberResponse, error) {
	member, err := s.findScoped(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}

	to := model.MemberCategory(req.ToCategory)
	if member.Category == to {
		return nil, errors.New("el socio ya pertenece a esa categoría")
	}
	if member.Category == model.CategorySocio && to == model.CategoryGeneral &&
		!reasonSignalsExpiry(req.Reason) {
		return nil, errors.New("no se puede degradar un socio a GENERAL: el motivo debe registrar el vencimiento de la cuota")
	}

	from := member.Category
	member.Category = to
	switch to {
	case model.CategorySocio:
		if member.SubscriptionStatus == "" {
			member.SubscriptionStatus = model.SubscriptionActive
		}
	default:
		member.SubscriptionStatus = ""
	}
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, err
	}

	change := &model.MemberTierChange{
		MemberID:     member.ID,
		TenantID:     tenantID,
		FromCategory: from,
		ToCategory:   to,
		Reason:       req.Reason,
		ChangedBy:    changedBy,
	}
	if err := s.repo.AppendTierChange(ctx, change); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, tenantID, model.EventTierChange, model.SeverityInfo,
		fmt.Sprintf("cambio de categoría: %s → %s", from, to),
		map[string]interface{}{
			"member_id": member.ID.String(),
			"from":      string(from),
			"to":        string(to),
			"reason":    req.Reason,
		})

	return memberToResponse(member), nil
}

// ── SetSubscription ───────────────────────────────────────────────────────────

func (s *memberService) SetSubscription(ctx context.Context, tenantID, memberID uuid.UUID, req dto.SetSubscriptionRequest) (*dto.MemberResponse, error) {
	member, err := s.findScoped(ctx, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	if member.Category != model.CategorySocio {
		return nil, errors.New("solo los socios tienen suscripción")
	}

	status := model.SubscriptionStatus(req.Status)
	if member.SubscriptionStatus != status {
		member.SubscriptionStatus = status
		if err := s.repo.Update(ctx, member); err != nil {
			return nil, err
		}
		if status == model.SubscriptionInArrears {
			s.audit.Record(ctx, tenantID, model.EventSubscriptionLapsed, model.SeverityWarn,
				fmt.Sprintf("cuota de socio impaga: %s", member.FullName),
				map[string]interface{}{"member_id": member.ID.String()})
		}
	}
	return memberToResponse(member), nil
}

func (s *memberService) TierHistory(ctx context.Context, tenantID, memberID uuid.UUID) ([]dto.TierChangeResponse, error) {
	if _, err := s.findScoped(ctx, tenantID, memberID); err != nil {
		return nil, err
	}
	changes, err := s.repo.ListTierChanges(ctx, memberID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TierChangeResponse, len(changes))
	for i, c := range changes {
		resp[i] = dto.TierChangeResponse{
			ID:           c.ID.String(),
			FromCategory: string(c.FromCategory),
			ToCategory:   string(c.ToCategory),
			Reason:       c.Reason,
			ChangedBy:    c.ChangedBy.String(),
			CreatedAt:    c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	return resp, nil
}

// ── RecordFee ─────────────────────────────────────────────────────────────────
// Fee payments reactivate a lapsed subscription and enter the next closure
// as membership revenue.

func (s *memberService) RecordFee(ctx context.Context, tenantID, memberID uuid.UUID, req dto.RecordFeeRequest) error {
	member, err := s.findScoped(ctx, tenantID, memberID)
	if err != nil {
		return err
	}
	if !req.Amount.IsPositive() {
		return errors.New("el monto de la cuota debe ser positivo")
	}

	fee := &model.MembershipFee{
		TenantID: tenantID,
		MemberID: member.ID,
		Amount:   req.Amount,
		Method:   req.Method,
	}
	if err := s.repo.CreateFee(ctx, fee); err != nil {
		return err
	}

	if member.Category == model.CategorySocio && member.SubscriptionStatus != model.SubscriptionActive {
		member.SubscriptionStatus = model.SubscriptionActive
		if err := s.repo.Update(ctx, member); err != nil {
			return err
		}
	}
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *memberService) findScoped(ctx context.Context, tenantID, memberID uuid.UUID) (*model.Member, error) {
	member, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		return nil, errors.New("socio no encontrado")
	}
	if member.TenantID != tenantID {
		return nil, errors.New("socio no encontrado")
	}
	return member, nil
}

func memberToResponse(m *model.Member) *dto.MemberResponse {
	return &dto.MemberResponse{
		ID:                 m.ID.String(),
		FullName:           m.FullName,
		Email:              m.Email,
		Category:           string(m.Category),
		SubscriptionStatus: string(m.SubscriptionStatus),
		DiscountPct:        m.DiscountPct,
		TotalSpent:         m.TotalSpent,
		Active:             m.Active,
	}
}
