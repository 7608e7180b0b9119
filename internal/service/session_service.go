package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
)

type SessionService interface {
	Start(ctx context.Context, tenantID uuid.UUID, req dto.StartSessionRequest) (*dto.SessionResponse, error)
	AddConsumption(ctx context.Context, tenantID, sessionID uuid.UUID, req dto.AddConsumptionRequest) (*dto.SessionResponse, error)
	RegisterPayment(ctx context.Context, tenantID, sessionID uuid.UUID, req dto.PaymentRequest) (*dto.SessionResponse, error)
	// Quote prices an open session as if it ended now, without closing it.
	Quote(ctx context.Context, tenantID, sessionID uuid.UUID) (*dto.PricingResult, error)
	Close(ctx context.Context, tenantID, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*dto.SessionResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.SessionFilter) (*dto.SessionListResponse, error)
}

type sessionService struct {
	repo        repository.SessionRepository
	tenantRepo  repository.TenantRepository
	memberRepo  repository.MemberRepository
	productRepo repository.ProductRepository
	closureRepo repository.ClosureRepository
	audit       AuditService
	billing     BillingService
}

func NewSessionService(
	repo repository.SessionRepository,
	tenantRepo repository.TenantRepository,
	memberRepo repository.MemberRepository,
	productRepo repository.ProductRepository,
	closureRepo repository.ClosureRepository,
	audit AuditService,
	billing BillingService,
) SessionService {
	return &sessionService{
		repo:        repo,
		tenantRepo:  tenantRepo,
		memberRepo:  memberRepo,
		productRepo: productRepo,
		closureRepo: closureRepo,
		audit:       audit,
		billing:     billing,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Start ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Start(ctx context.Context, tenantID uuid.UUID, req dto.StartSessionRequest) (*dto.SessionResponse, error) {
	// Guard: one open session per table
	if existing, err := s.repo.FindOpenByTable(ctx, tenantID, req.TableNumber); err == nil && existing != nil {
		return nil, fmt.Errorf("la mesa %d ya tiene una sesión abierta", req.TableNumber)
	}

	session := &model.TableSession{
		TenantID:         tenantID,
		TableNumber:      req.TableNumber,
		StartedAt:        time.Now().UTC(),
		ConsumptionTotal: decimal.Zero,
		PaymentStatus:    model.PaymentPending,
	}
	if req.MemberID != nil {
		mid, err := uuid.Parse(*req.MemberID)
		if err != nil {
			return nil, fmt.Errorf("member_id inválido: %w", err)
		}
		member, err := s.memberRepo.FindByID(ctx, mid)
		if err != nil || member.TenantID != tenantID || !member.Active {
			return nil, errors.New("socio no encontrado")
		}
		session.MemberID = &mid
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return sessionToResponse(session, nil), nil
}

// ── AddConsumption ────────────────────────────────────────────────────────────

func (s *sessionService) AddConsumption(ctx context.Context, tenantID, sessionID uuid.UUID, req dto.AddConsumptionRequest) (*dto.SessionResponse, error) {
	session, err := s.findScoped(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.EndedAt != nil {
		return nil, errors.New("la sesión ya está cerrada")
	}

	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product_id inválido: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil || product.TenantID != tenantID {
		return nil, errors.New("producto no encontrado")
	}
	if !product.Active {
		return nil, fmt.Errorf("producto %s está inactivo", product.Name)
	}

	kind := req.Kind
	if kind == "" {
		kind = model.ItemKindProduct
	}
	qty := decimal.NewFromInt(int64(req.Quantity))
	item := &model.ConsumptionItem{
		SessionID: session.ID,
		ProductID: pid,
		Kind:      kind,
		Quantity:  req.Quantity,
		UnitPrice: product.SalePrice,
		LineTotal: product.SalePrice.Mul(qty),
	}

	txErr := runTx(ctx, s.closureRepo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.AddItem(ctx, item); err != nil {
			return err
		}
		session.ConsumptionTotal = session.ConsumptionTotal.Add(item.LineTotal)
		return s.repo.Update(ctx, session)
	})
	if txErr != nil {
		return nil, txErr
	}

	item.Product = product
	session.Items = append(session.Items, *item)
	return sessionToResponse(session, nil), nil
}

// ── RegisterPayment ───────────────────────────────────────────────────────────
// Idempotent on IdempotencyKey: re-delivery of the same payment event returns
// the already-recorded state instead of double-charging.

func (s *sessionService) RegisterPayment(ctx context.Context, tenantID, sessionID uuid.UUID, req dto.PaymentRequest) (*dto.SessionResponse, error) {
	session, err := s.findScoped(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != nil {
		if existing, err := s.repo.FindPaymentByIdempotencyKey(ctx, tenantID, *req.IdempotencyKey); err == nil && existing != nil {
			if existing.SessionID != session.ID {
				return nil, errors.New("la clave de idempotencia pertenece a otra sesión")
			}
			return sessionToResponse(session, nil), nil
		}
	}
	if !req.Amount.IsPositive() {
		return nil, errors.New("el monto del pago debe ser positivo")
	}

	payment := &model.PaymentRecord{
		SessionID:      session.ID,
		TenantID:       tenantID,
		Amount:         req.Amount,
		Method:         req.Method,
		Status:         model.PaymentCompleted,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := s.repo.AddPayment(ctx, payment); err != nil {
		return nil, err
	}
	session.Payments = append(session.Payments, *payment)
	s.refreshPaymentStatus(ctx, session)
	return sessionToResponse(session, nil), nil
}

// ── Quote ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Quote(ctx context.Context, tenantID, sessionID uuid.UUID) (*dto.PricingResult, error) {
	session, err := s.findScoped(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	member, err := s.loadMember(ctx, session)
	if err != nil {
		return nil, err
	}

	minutes := session.DurationMinutes
	if session.EndedAt == nil {
		minutes = elapsedMinutes(session.StartedAt, time.Now().UTC())
	}
	result := CalculateTotal(tenant, member, minutes, session.ConsumptionTotal)
	return &result, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Ends the session, runs the pricing engine and persists the final charge.
// Steps inside one transaction:
//  1. compute duration and price
//  2. cross-check the discount independently (mismatch → audit, not failure)
//  3. record payments (splits must reconcile exactly against the total)
//  4. persist final amounts and the time/consumption split
//  5. accumulate member spend; auto-upgrade to VIP past the threshold

func (s *sessionService) Close(ctx context.Context, tenantID, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.findScoped(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.EndedAt != nil {
		return nil, errors.New("la sesión ya está cerrada")
	}

	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	member, err := s.loadMember(ctx, session)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	minutes := elapsedMinutes(session.StartedAt, now)
	pricing := CalculateTotal(tenant, member, minutes, session.ConsumptionTotal)

	s.auditPricingAnomalies(ctx, tenant, member, session, pricing)

	// Split payments must reconcile to the cent against the final total.
	if len(req.Payments) > 1 {
		amounts := make([]decimal.Decimal, len(req.Payments))
		for i, p := range req.Payments {
			amounts[i] = p.Amount
		}
		if split := ValidateSplit(pricing.Total, amounts); !split.Valid {
			return nil, fmt.Errorf("los pagos divididos no cuadran con el total (diferencia %s)", split.Difference)
		}
	}

	cur := tenant.CurrencyCode
	grossConsumption := RoundMoney(session.ConsumptionTotal.Mul(one.Add(effectiveTaxRate(tenant))), cur)
	timeCharged := pricing.Total.Sub(grossConsumption)
	if timeCharged.IsNegative() {
		timeCharged = decimal.Zero
	}

	session.EndedAt = &now
	session.DurationMinutes = minutes
	session.AmountCharged = pricing.Total
	session.TimeCharged = timeCharged
	session.DiscountApplied = pricing.DiscountAmount
	session.DiscountPct = pricing.DiscountPercentage

	txErr := runTx(ctx, s.closureRepo.DB(), func(tx *gorm.DB) error {
		for i := range req.Payments {
			p := req.Payments[i]
			if p.IdempotencyKey != nil {
				if existing, err := s.repo.FindPaymentByIdempotencyKey(ctx, tenantID, *p.IdempotencyKey); err == nil && existing != nil {
					continue
				}
			}
			payment := &model.PaymentRecord{
				SessionID:      session.ID,
				TenantID:       tenantID,
				Amount:         p.Amount,
				Method:         p.Method,
				Status:         model.PaymentCompleted,
				IdempotencyKey: p.IdempotencyKey,
			}
			if err := s.repo.AddPayment(ctx, payment); err != nil {
				return err
			}
			session.Payments = append(session.Payments, *payment)
		}

		s.computePaymentStatus(session)
		if err := s.repo.Update(ctx, session); err != nil {
			return err
		}

		return s.accumulateMemberSpend(ctx, tenant, member, pricing.Total)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Fiscal receipt (best-effort — the session close itself never fails on it)
	if s.billing != nil {
		if _, err := s.billing.EmitForSession(ctx, tenantID, session.ID, model.DocTypeBoleta, req.CustomerEmail); err != nil {
			log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("failed to emit receipt document")
		}
	}

	return sessionToResponse(session, &pricing), nil
}

func (s *sessionService) Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.findScoped(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return sessionToResponse(session, nil), nil
}

func (s *sessionService) List(ctx context.Context, tenantID uuid.UUID, filter dto.SessionFilter) (*dto.SessionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sessions, total, err := s.repo.List(ctx, tenantID, filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, *sessionToResponse(&sessions[i], nil))
	}
	return &dto.SessionListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *sessionService) findScoped(ctx context.Context, tenantID, sessionID uuid.UUID) (*model.TableSession, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, errors.New("sesión no encontrada")
	}
	if session.TenantID != tenantID {
		return nil, errors.New("sesión no encontrada")
	}
	return session, nil
}

func (s *sessionService) loadMember(ctx context.Context, session *model.TableSession) (*model.Member, error) {
	if session.MemberID == nil {
		return nil, nil
	}
	if session.Member != nil {
		return session.Member, nil
	}
	member, err := s.memberRepo.FindByID(ctx, *session.MemberID)
	if err != nil {
		return nil, errors.New("socio de la sesión no encontrado")
	}
	return member, nil
}

// auditPricingAnomalies re-checks the conditions the pricing engine only
// reports as warnings and writes them to the audit trail.
func (s *sessionService) auditPricingAnomalies(ctx context.Context, tenant *model.Tenant, member *model.Member, session *model.TableSession, pricing dto.PricingResult) {
	if tenant.TaxRate.IsNegative() || tenant.TaxRate.GreaterThan(one) {
		s.audit.Record(ctx, tenant.ID, model.EventTaxMisconfigured, model.SeverityWarn,
			fmt.Sprintf("tasa de impuesto fuera de rango: %s", tenant.TaxRate),
			map[string]interface{}{"session_id": session.ID.String(), "tax_rate": tenant.TaxRate.String()})
	}
	if tenant.BusinessModel == model.BusinessModelClubSocios && member != nil &&
		member.Category == model.CategorySocio && member.SubscriptionStatus != model.SubscriptionActive {
		s.audit.Record(ctx, tenant.ID, model.EventSubscriptionLapsed, model.SeverityWarn,
			fmt.Sprintf("sesión cobrada a tarifa general: socio %s con cuota impaga", member.FullName),
			map[string]interface{}{"session_id": session.ID.String(), "member_id": member.ID.String()})
	}

	// Independent discount cross-check: recompute the expected amount from the
	// raw time charge and the resolved percentage.
	expected := pricing.TimeCharge.Mul(pricing.DiscountPercentage).Div(hundred)
	recomputed := dto.PricingResult{DiscountAmount: RoundMoney(expected, tenant.CurrencyCode)}
	if check := ValidateDiscount(pricing.DiscountAmount, recomputed); !check.Valid {
		s.audit.Record(ctx, tenant.ID, model.EventDiscountMismatch, model.SeverityCritical,
			"descuento aplicado no coincide con el esperado",
			map[string]interface{}{
				"session_id": session.ID.String(),
				"applied":    pricing.DiscountAmount.String(),
				"difference": check.Difference.String(),
			})
	}
}

func (s *sessionService) computePaymentStatus(session *model.TableSession) {
	paid := decimal.Zero
	for _, p := range session.Payments {
		if p.Status == model.PaymentCompleted {
			paid = paid.Add(p.Amount)
		}
	}
	if paid.GreaterThanOrEqual(session.AmountCharged) && session.AmountCharged.IsPositive() {
		session.PaymentStatus = model.PaymentCompleted
	} else {
		session.PaymentStatus = model.PaymentPending
	}
}

func (s *sessionService) refreshPaymentStatus(ctx context.Context, session *model.TableSession) {
	if session.EndedAt == nil {
		return
	}
	s.computePaymentStatus(session)
	if err := s.repo.Update(ctx, session); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("failed to refresh payment status")
	}
}

// accumulateMemberSpend adds the session total to the member's lifetime spend
// and applies the VIP auto-upgrade when the tenant threshold is crossed.
func (s *sessionService) accumulateMemberSpend(ctx context.Context, tenant *model.Tenant, member *model.Member, total decimal.Decimal) error {
	if member == nil {
		return nil
	}
	member.TotalSpent = member.TotalSpent.Add(total)
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return err
	}

	threshold := tenant.Tiers.VIPSpendThreshold
	if tenant.BusinessModel == model.BusinessModelComercial &&
		member.Category == model.CategoryGeneral &&
		threshold.IsPositive() &&
		member.TotalSpent.GreaterThanOrEqual(threshold) {

		member.Category = model.CategoryVIP
		if err := s.memberRepo.Update(ctx, member); err != nil {
			return err
		}
		change := &model.MemberTierChange{
			MemberID:     member.ID,
			TenantID:     tenant.ID,
			FromCategory: model.CategoryGeneral,
			ToCategory:   model.CategoryVIP,
			Reason:       fmt.Sprintf("ascenso automático: gasto acumulado %s supera el umbral %s", member.TotalSpent, threshold),
			ChangedBy:    member.ID, // system-initiated
		}
		if err := s.memberRepo.AppendTierChange(ctx, change); err != nil {
			return err
		}
		s.audit.Record(ctx, tenant.ID, model.EventTierChange, model.SeverityInfo,
			fmt.Sprintf("ascenso automático a VIP: %s", member.FullName),
			map[string]interface{}{"member_id": member.ID.String(), "total_spent": member.TotalSpent.String()})
	}
	return nil
}

func effectiveTaxRate(tenant *model.Tenant) decimal.Decimal {
	if tenant.TaxRate.IsNegative() || tenant.TaxRate.GreaterThan(one) {
		return decimal.Zero
	}
	return tenant.TaxRate
}

func elapsedMinutes(from, to time.Time) int {
	d := to.Sub(from)
	minutes := int(d.Minutes())
	if d > time.Duration(minutes)*time.Minute {
		minutes++ // started minutes are charged in full
	}
	return minutes
}

func sessionToResponse(s *model.TableSession, pricing *dto.PricingResult) *dto.SessionResponse {
	items := make([]dto.ConsumptionItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.ConsumptionItemResponse{
			Product:   name,
			Kind:      item.Kind,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	payments := make([]dto.PaymentResponse, 0, len(s.Payments))
	for _, p := range s.Payments {
		payments = append(payments, dto.PaymentResponse{
			Method: p.Method,
			Amount: p.Amount,
			Status: p.Status,
		})
	}
	resp := &dto.SessionResponse{
		ID:               s.ID.String(),
		TableNumber:      s.TableNumber,
		StartedAt:        s.StartedAt.Format("2006-01-02T15:04:05Z"),
		DurationMinutes:  s.DurationMinutes,
		Items:            items,
		Payments:         payments,
		ConsumptionTotal: s.ConsumptionTotal,
		Pricing:          pricing,
		PaymentStatus:    s.PaymentStatus,
		Consolidated:     s.ClosureID != nil,
	}
	if s.MemberID != nil {
		mid := s.MemberID.String()
		resp.MemberID = &mid
	}
	if s.EndedAt != nil {
		t := s.EndedAt.Format("2006-01-02T15:04:05Z")
		resp.EndedAt = &t
	}
	return resp
}
