package worker

// closure_report_worker.go
// Processes Z-report jobs from QueueClosureReport: renders the closure PDF
// and mails it to the tenant's report address.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/infra"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
)

// ClosureReportJobPayload is the job envelope sent to QueueClosureReport.
type ClosureReportJobPayload struct {
	ClosureID string `json:"closure_id"`
	TenantID  string `json:"tenant_id"`
}

type ClosureReportWorker struct {
	closureRepo    repository.ClosureRepository
	tenantRepo     repository.TenantRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
}

func NewClosureReportWorker(
	closureRepo repository.ClosureRepository,
	tenantRepo repository.TenantRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
) *ClosureReportWorker {
	return &ClosureReportWorker{
		closureRepo:    closureRepo,
		tenantRepo:     tenantRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
	}
}

func (w *ClosureReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ClosureReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("closure_report_worker: invalid payload")
		return
	}
	closureID, err := uuid.Parse(payload.ClosureID)
	if err != nil {
		log.Error().Str("closure_id", payload.ClosureID).Msg("closure_report_worker: invalid closure_id")
		return
	}

	closure, err := w.closureRepo.FindByID(ctx, closureID)
	if err != nil {
		log.Error().Err(err).Str("closure_id", payload.ClosureID).Msg("closure_report_worker: closure not found")
		return
	}
	tenant, err := w.tenantRepo.FindByID(ctx, closure.TenantID)
	if err != nil {
		log.Error().Err(err).Str("closure_id", payload.ClosureID).Msg("closure_report_worker: tenant not found")
		return
	}

	pdfPath, err := infra.GenerateClosureReportPDF(closure, tenant.Name, w.pdfStoragePath)
	if err != nil {
		log.Error().Err(err).Str("closure_id", payload.ClosureID).Msg("closure_report_worker: PDF generation failed")
		return
	}
	log.Info().Str("pdf", pdfPath).Str("closure_id", payload.ClosureID).Msg("closure_report_worker: Z-report generated")

	if tenant.ReportEmail == nil || *tenant.ReportEmail == "" {
		return
	}
	subject := fmt.Sprintf("Cierre de turno %s — %s", closure.CreatedAt.Format("02/01/2006"), tenant.Name)
	body := fmt.Sprintf(
		"Cierre de turno consolidado.\nIngresos: $%s\nUtilidad neta: $%s\nDiferencia de caja: $%s\n",
		closure.TotalRevenue.StringFixed(2), closure.NetProfit.StringFixed(2), closure.CashDifference.StringFixed(2))
	if closure.HasCashAlert {
		body += "\n⚠ La diferencia de caja supera la tolerancia configurada.\n"
	}

	emailJob := EmailJobPayload{
		ToEmail: *tenant.ReportEmail,
		Subject: subject,
		Body:    body,
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("closure_id", payload.ClosureID).Msg("closure_report_worker: failed to enqueue email")
	}
}
