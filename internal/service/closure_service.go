package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/worker"
)

// ErrNothingToClose signals that no settled activity is awaiting
// consolidation. It is an expected outcome, not a failure.
var ErrNothingToClose = errors.New("no hay sesiones pendientes de consolidar")

// defaultCashAlertTolerance absorbs rounding noise in the blind count when
// the tenant has not configured its own threshold.
var defaultCashAlertTolerance = decimal.NewFromInt(500)

// EntityClosure tags audit events that reference a shift closure.
const EntityClosure = "shift_closure"

type ClosureService interface {
	// Consolidate performs the shift closure: aggregates every settled,
	// unconsolidated session and fee, records the blind cash count, writes
	// the immutable closure row and stamps its inputs — all atomically.
	Consolidate(ctx context.Context, tenantID, closedBy uuid.UUID, req dto.CloseShiftRequest) (*dto.ClosureResponse, error)
	Get(ctx context.Context, tenantID, closureID uuid.UUID) (*dto.ClosureResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.ClosureFilter) (*dto.ClosureListResponse, error)
	// VerifyIntegrity recomputes the seal and compares it with the one
	// recorded in the audit trail at consolidation time.
	VerifyIntegrity(ctx context.Context, tenantID, closureID uuid.UUID) (bool, error)
}

type closureService struct {
	repo        repository.ClosureRepository
	sessionRepo repository.SessionRepository
	memberRepo  repository.MemberRepository
	expenseRepo repository.ExpenseRepository
	tenantRepo  repository.TenantRepository
	audit       AuditService
	dispatcher  *worker.Dispatcher
}

func NewClosureService(
	repo repository.ClosureRepository,
	sessionRepo repository.SessionRepository,
	memberRepo repository.MemberRepository,
	expenseRepo repository.ExpenseRepository,
	tenantRepo repository.TenantRepository,
	audit AuditService,
	dispatcher *worker.Dispatcher,
) ClosureService {
	return &closureService{
		repo:        repo,
		sessionRepo: sessionRepo,
		memberRepo:  memberRepo,
		expenseRepo: expenseRepo,
		tenantRepo:  tenantRepo,
		audit:       audit,
		dispatcher:  dispatcher,
	}
}

// ── Consolidate ───────────────────────────────────────────────────────────────
// The operator declares cash_in_hand BEFORE this call reveals any theoretical
// figure (blind count). Inside one transaction the closure row is inserted
// and every consumed session/fee is stamped with its ID; the stamp update is
// guarded by closure_id IS NULL, so a concurrent closure racing over the same
// rows makes the RowsAffected check fail and the whole transaction roll back.

func (s *closureService) Consolidate(ctx context.Context, tenantID, closedBy uuid.UUID, req dto.CloseShiftRequest) (*dto.ClosureResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, errors.New("tenant no encontrado")
	}

	sessions, err := s.sessionRepo.ListUnconsolidated(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	fees, err := s.memberRepo.ListUnconsolidatedFees(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 && len(fees) == 0 {
		return nil, ErrNothingToClose
	}

	since := time.Time{}
	if latest, err := s.repo.FindLatest(ctx, tenantID); err == nil && latest != nil {
		since = latest.CreatedAt
	}
	waste, err := s.expenseRepo.ListWasteSince(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}
	maintenance, err := s.expenseRepo.ListMaintenanceSince(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}

	cur := tenant.CurrencyCode
	agg := aggregateShift(sessions, fees, waste, maintenance, cur)

	tolerance := defaultCashAlertTolerance
	if tenant.CashAlertTolerance != nil {
		tolerance = *tenant.CashAlertTolerance
	}
	cashDifference := RoundMoney(req.CashInHand.Sub(agg.cash), cur)
	// Strictly greater than: a difference exactly at the tolerance is fine.
	hasAlert := cashDifference.Abs().GreaterThan(tolerance)

	closure := &model.ShiftClosure{
		TenantID:          tenantID,
		TimeRevenue:       agg.timeRevenue,
		ProductRevenue:    agg.productRevenue,
		MembershipRevenue: agg.membershipRevenue,
		RentalRevenue:     agg.rentalRevenue,
		TotalRevenue:      agg.totalRevenue,
		CashRevenue:       agg.cash,
		CardRevenue:       agg.card,
		CreditRevenue:     agg.credit,
		TotalCost:         agg.totalCost,
		WasteCost:         agg.wasteCost,
		MaintenanceCost:   agg.maintenanceCost,
		NetProfit:         agg.totalRevenue.Sub(agg.totalCost),
		CashInHand:        RoundMoney(req.CashInHand, cur),
		CashDifference:    cashDifference,
		HasCashAlert:      hasAlert,
		SessionCount:      len(sessions),
		ClosedBy:          closedBy,
		Notes:             req.Notes,
	}

	sessionIDs := make([]uuid.UUID, len(sessions))
	for i := range sessions {
		sessionIDs[i] = sessions[i].ID
	}
	feeIDs := make([]uuid.UUID, len(fees))
	for i := range fees {
		feeIDs[i] = fees[i].ID
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, closure); err != nil {
			return err
		}
		stamped, err := s.sessionRepo.StampClosureTx(tx, sessionIDs, closure.ID)
		if err != nil {
			return err
		}
		if stamped != int64(len(sessionIDs)) {
			return errors.New("cierre concurrente detectado: algunas sesiones ya fueron consolidadas")
		}
		stampedFees, err := s.memberRepo.StampFeesTx(tx, feeIDs, closure.ID)
		if err != nil {
			return err
		}
		if stampedFees != int64(len(feeIDs)) {
			return errors.New("cierre concurrente detectado: algunas cuotas ya fueron consolidadas")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	seal := GenerateSeal(closure)
	if err := s.audit.RecordEntity(ctx, tenantID, model.EventIntegritySeal, model.SeverityInfo,
		fmt.Sprintf("sello de integridad del cierre %s", closure.ID),
		EntityClosure, closure.ID,
		map[string]interface{}{
			"hash":      seal.Hash,
			"algorithm": seal.Algorithm,
			"sealed_at": seal.SealedAt,
		}); err != nil {
		return nil, fmt.Errorf("el cierre se registró pero no se pudo sellar: %w", err)
	}

	if hasAlert {
		s.audit.Record(ctx, tenantID, model.EventCashDiscrepancy, model.SeverityWarn,
			fmt.Sprintf("diferencia de caja %s supera la tolerancia %s", cashDifference, tolerance),
			map[string]interface{}{
				"closure_id":   closure.ID.String(),
				"difference":   cashDifference.String(),
				"tolerance":    tolerance.String(),
				"cash_in_hand": req.CashInHand.String(),
			})
	}

	// Async Z-report (PDF + email) — best-effort
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueClosureReport(ctx, map[string]interface{}{
			"closure_id": closure.ID.String(),
			"tenant_id":  tenantID.String(),
		})
	}

	return closureToResponse(closure, &seal), nil
}

func (s *closureService) Get(ctx context.Context, tenantID, closureID uuid.UUID) (*dto.ClosureResponse, error) {
	closure, err := s.findScoped(ctx, tenantID, closureID)
	if err != nil {
		return nil, err
	}
	seal, _ := s.recordedSeal(ctx, closure.ID)
	return closureToResponse(closure, seal), nil
}

func (s *closureService) List(ctx context.Context, tenantID uuid.UUID, filter dto.ClosureFilter) (*dto.ClosureListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	closures, total, err := s.repo.List(ctx, tenantID, filter.Page, filter.Limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClosureListItem, 0, len(closures))
	for _, c := range closures {
		items = append(items, dto.ClosureListItem{
			ID:             c.ID.String(),
			TotalRevenue:   c.TotalRevenue,
			NetProfit:      c.NetProfit,
			CashDifference: c.CashDifference,
			HasCashAlert:   c.HasCashAlert,
			SessionCount:   c.SessionCount,
			CreatedAt:      c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return &dto.ClosureListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *closureService) VerifyIntegrity(ctx context.Context, tenantID, closureID uuid.UUID) (bool, error) {
	closure, err := s.findScoped(ctx, tenantID, closureID)
	if err != nil {
		return false, err
	}
	seal, err := s.recordedSeal(ctx, closure.ID)
	if err != nil {
		return false, err
	}
	return VerifySeal(closure, seal.Hash), nil
}

// ── Aggregation ───────────────────────────────────────────────────────────────

type shiftAggregate struct {
	timeRevenue       decimal.Decimal
	productRevenue    decimal.Decimal
	membershipRevenue decimal.Decimal
	rentalRevenue     decimal.Decimal
	totalRevenue      decimal.Decimal

	cash   decimal.Decimal
	card   decimal.Decimal
	credit decimal.Decimal

	totalCost       decimal.Decimal
	wasteCost       decimal.Decimal
	maintenanceCost decimal.Decimal
}

// aggregateShift folds sessions, fees and expenses into the closure figures.
// Each consumption item's gross share is attributed proportionally to its
// net line total, so the product/rental split always sums back to the gross
// consumption charged.
func aggregateShift(
	sessions []model.TableSession,
	fees []model.MembershipFee,
	waste []model.WasteRecord,
	maintenance []model.MaintenanceExpense,
	currency string,
) shiftAggregate {
	agg := shiftAggregate{
		timeRevenue:       decimal.Zero,
		productRevenue:    decimal.Zero,
		membershipRevenue: decimal.Zero,
		rentalRevenue:     decimal.Zero,
		cash:              decimal.Zero,
		card:              decimal.Zero,
		credit:            decimal.Zero,
		wasteCost:         decimal.Zero,
		maintenanceCost:   decimal.Zero,
	}
	goodsCost := decimal.Zero

	for i := range sessions {
		sess := &sessions[i]
		agg.timeRevenue = agg.timeRevenue.Add(sess.TimeCharged)

		consGross := sess.AmountCharged.Sub(sess.TimeCharged)
		productNet := decimal.Zero
		rentalNet := decimal.Zero
		for _, item := range sess.Items {
			if item.Kind == model.ItemKindRental {
				rentalNet = rentalNet.Add(item.LineTotal)
			} else {
				productNet = productNet.Add(item.LineTotal)
				if item.Product != nil {
					goodsCost = goodsCost.Add(item.Product.CostPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
				}
			}
		}
		consNet := productNet.Add(rentalNet)
		if consNet.IsPositive() {
			rentalGross := consGross.Mul(rentalNet).Div(consNet)
			agg.rentalRevenue = agg.rentalRevenue.Add(rentalGross)
			agg.productRevenue = agg.productRevenue.Add(consGross.Sub(rentalGross))
		}

		for _, p := range sess.Payments {
			if p.Status != model.PaymentCompleted {
				continue
			}
			addToBucket(&agg, p.Method, p.Amount)
		}
	}

	for _, fee := range fees {
		agg.membershipRevenue = agg.membershipRevenue.Add(fee.Amount)
		addToBucket(&agg, fee.Method, fee.Amount)
	}

	for _, w := range waste {
		agg.wasteCost = agg.wasteCost.Add(w.Quantity.Abs().Mul(w.CostPrice))
	}
	for _, m := range maintenance {
		agg.maintenanceCost = agg.maintenanceCost.Add(m.Amount)
	}

	// Round each bucket, then derive the totals from the rounded parts so the
	// identity total = Σ parts holds exactly in the stored (and sealed) row.
	agg.timeRevenue = RoundMoney(agg.timeRevenue, currency)
	agg.productRevenue = RoundMoney(agg.productRevenue, currency)
	agg.membershipRevenue = RoundMoney(agg.membershipRevenue, currency)
	agg.rentalRevenue = RoundMoney(agg.rentalRevenue, currency)
	agg.totalRevenue = agg.timeRevenue.
		Add(agg.productRevenue).
		Add(agg.membershipRevenue).
		Add(agg.rentalRevenue)

	agg.cash = RoundMoney(agg.cash, currency)
	agg.card = RoundMoney(agg.card, currency)
	agg.credit = RoundMoney(agg.credit, currency)

	agg.wasteCost = RoundMoney(agg.wasteCost, currency)
	agg.maintenanceCost = RoundMoney(agg.maintenanceCost, currency)
	agg.totalCost = RoundMoney(goodsCost, currency).
		Add(agg.wasteCost).
		Add(agg.maintenanceCost)

	return agg
}

// addToBucket normalizes a raw payment method into the three closure buckets.
func addToBucket(agg *shiftAggregate, method string, amount decimal.Decimal) {
	switch normalizePaymentMethod(method) {
	case "cash":
		agg.cash = agg.cash.Add(amount)
	case "credit":
		agg.credit = agg.credit.Add(amount)
	default:
		agg.card = agg.card.Add(amount)
	}
}

// normalizePaymentMethod maps raw method strings (including legacy Spanish
// names) onto cash / card / credit.
func normalizePaymentMethod(method string) string {
	switch method {
	case "cash", "efectivo":
		return "cash"
	case "credit", "fiado", "cuenta_corriente":
		return "credit"
	default:
		// card, debit, transfer, debito, tarjeta, transferencia…
		return "card"
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *closureService) findScoped(ctx context.Context, tenantID, closureID uuid.UUID) (*model.ShiftClosure, error) {
	closure, err := s.repo.FindByID(ctx, closureID)
	if err != nil {
		return nil, errors.New("cierre no encontrado")
	}
	if closure.TenantID != tenantID {
		return nil, errors.New("cierre no encontrado")
	}
	return closure, nil
}

// recordedSeal returns the most recent integrity seal recorded for a closure.
func (s *closureService) recordedSeal(ctx context.Context, closureID uuid.UUID) (*dto.IntegritySeal, error) {
	events, err := s.audit.ListByEntity(ctx, EntityClosure, closureID)
	if err != nil {
		return nil, err
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != model.EventIntegritySeal {
			continue
		}
		var seal dto.IntegritySeal
		if err := json.Unmarshal(events[i].Details, &seal); err != nil {
			return nil, err
		}
		return &seal, nil
	}
	return nil, errors.New("el cierre no tiene sello registrado")
}

func closureToResponse(c *model.ShiftClosure, seal *dto.IntegritySeal) *dto.ClosureResponse {
	resp := &dto.ClosureResponse{
		ID: c.ID.String(),
		Revenue: dto.RevenueBreakdown{
			Time:       c.TimeRevenue,
			Product:    c.ProductRevenue,
			Membership: c.MembershipRevenue,
			Rental:     c.RentalRevenue,
			Total:      c.TotalRevenue,
		},
		Payments: dto.PaymentBreakdown{
			Cash:   c.CashRevenue,
			Card:   c.CardRevenue,
			Credit: c.CreditRevenue,
		},
		Costs: dto.CostBreakdown{
			Goods:       c.TotalCost.Sub(c.WasteCost).Sub(c.MaintenanceCost),
			Waste:       c.WasteCost,
			Maintenance: c.MaintenanceCost,
			Total:       c.TotalCost,
		},
		NetProfit:      c.NetProfit,
		CashInHand:     c.CashInHand,
		CashDifference: c.CashDifference,
		HasCashAlert:   c.HasCashAlert,
		SessionCount:   c.SessionCount,
		Notes:          c.Notes,
		CreatedAt:      c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if seal != nil {
		resp.Seal = *seal
	}
	return resp
}
