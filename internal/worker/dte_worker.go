package worker

// dte_worker.go
// Processes fiscal document jobs from QueueBilling.
// Sends POST to the Python DTE Sidecar and stores the folio result.
// Immediate retries use exponential backoff; documents that still fail are
// left for the retry cron with a scheduled next attempt.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/infra"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
)

// MaxDocumentRetries before a document is parked in error state and the job
// is moved to the DLQ.
const MaxDocumentRetries = 5

// BillingJobPayload is the job envelope sent to QueueBilling.
type BillingJobPayload struct {
	DocumentID    string  `json:"document_id"`
	CustomerEmail *string `json:"customer_email,omitempty"`
}

// DTEWorker submits pending billing documents to the SII sidecar, then
// generates the PDF receipt and optionally enqueues a customer email.
type DTEWorker struct {
	client         *infra.DTEClient
	billingRepo    repository.BillingRepository
	sessionRepo    repository.SessionRepository
	tenantRepo     repository.TenantRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
	rutEmisor      string
}

func NewDTEWorker(
	client *infra.DTEClient,
	billingRepo repository.BillingRepository,
	sessionRepo repository.SessionRepository,
	tenantRepo repository.TenantRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
	rutEmisor string,
) *DTEWorker {
	return &DTEWorker{
		client:         client,
		billingRepo:    billingRepo,
		sessionRepo:    sessionRepo,
		tenantRepo:     tenantRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
		rutEmisor:      rutEmisor,
	}
}

func (w *DTEWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload BillingJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("dte_worker: invalid payload")
		return
	}
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		log.Error().Str("document_id", payload.DocumentID).Msg("dte_worker: invalid document_id")
		return
	}

	doc, err := w.billingRepo.FindByID(ctx, docID)
	if err != nil {
		log.Error().Err(err).Str("document_id", payload.DocumentID).Msg("dte_worker: document not found")
		return
	}
	if doc.Status == model.BillingStatusIssued {
		return // already emitted (duplicate delivery)
	}

	// Sidecar call with immediate exponential backoff: 3 attempts, 1s, 2s.
	var dteResp *infra.DTEResponse
	dteErr := withRetry(ctx, 3, func(attempt int) error {
		resp, err := w.client.Emitir(ctx, infra.DTEPayload{
			RutEmisor:   w.rutEmisor,
			TipoDTE:     dteTipoFor(doc.DocumentType),
			MontoNeto:   doc.NetAmount.InexactFloat64(),
			MontoIVA:    doc.TaxAmount.InexactFloat64(),
			MontoTotal:  doc.TotalAmount.InexactFloat64(),
			ReferenceID: doc.ID.String(),
		})
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).
				Str("document_id", doc.ID.String()).
				Msg("dte_worker: sidecar attempt failed, retrying")
			return err
		}
		dteResp = resp
		return nil
	})

	switch {
	case dteErr != nil:
		// Hand over to the retry cron with a scheduled next attempt.
		doc.Status = model.BillingStatusError
		doc.RetryCount++
		errMsg := dteErr.Error()
		doc.LastError = &errMsg
		next := time.Now().Add(computeRetryBackoff(doc.RetryCount))
		doc.NextRetryAt = &next
		_ = w.billingRepo.Update(ctx, doc)
		log.Error().Err(dteErr).Str("document_id", doc.ID.String()).
			Msg("dte_worker: sidecar failed after immediate retries")
		return

	case dteResp.Estado == "ACEPTADO":
		folio := dteResp.Folio
		doc.Status = model.BillingStatusIssued
		doc.Folio = &folio
		if dteResp.URLVerificacion != "" {
			u := dteResp.URLVerificacion
			doc.VerificationURL = &u
		}
		doc.NextRetryAt = nil
		doc.LastError = nil
		_ = w.billingRepo.Update(ctx, doc)
		log.Info().Int64("folio", folio).Str("document_id", doc.ID.String()).
			Msg("dte_worker: document accepted")

	default:
		doc.Status = model.BillingStatusRejected
		glosa := dteResp.Glosa
		doc.LastError = &glosa
		doc.NextRetryAt = nil
		_ = w.billingRepo.Update(ctx, doc)
		log.Warn().Str("estado", dteResp.Estado).Str("document_id", doc.ID.String()).
			Msg("dte_worker: document rejected by SII")
	}

	w.deliverReceipt(ctx, doc, payload.CustomerEmail)
}

// deliverReceipt renders the PDF receipt for the document's session and
// enqueues the customer email when an address was provided.
func (w *DTEWorker) deliverReceipt(ctx context.Context, doc *model.BillingDocument, customerEmail *string) {
	if doc.SessionID == nil {
		return
	}
	session, err := w.sessionRepo.FindByID(ctx, *doc.SessionID)
	if err != nil {
		log.Warn().Err(err).Str("document_id", doc.ID.String()).Msg("dte_worker: session for receipt not found")
		return
	}
	tenant, err := w.tenantRepo.FindByID(ctx, doc.TenantID)
	if err != nil {
		return
	}

	pdfPath, err := infra.GenerateReceiptPDF(session, tenant.Name, w.pdfStoragePath)
	if err != nil {
		log.Warn().Err(err).Str("document_id", doc.ID.String()).Msg("dte_worker: PDF generation failed")
		return
	}

	if customerEmail != nil && *customerEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: *customerEmail,
			Subject: fmt.Sprintf("Comprobante %s — Mesa %d", tenant.Name, session.TableNumber),
			Body:    fmt.Sprintf("Adjunto encontrarás tu comprobante de consumo.\nTotal: $%s", doc.TotalAmount.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *customerEmail).Msg("dte_worker: failed to enqueue email")
		}
	}
}

func dteTipoFor(documentType string) int {
	switch documentType {
	case model.DocTypeFactura:
		return infra.DTETipoFactura
	case model.DocTypeNotaCredito:
		return infra.DTETipoNotaCredito
	default:
		return infra.DTETipoBoleta
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// computeRetryBackoff returns the cron backoff for the Nth retry:
// 1m, 2m, 4m, 8m… capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	backoff := time.Minute * time.Duration(1<<uint(retryCount-1))
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	return backoff
}
