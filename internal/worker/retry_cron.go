package worker

// retry_cron.go
// Background goroutine that periodically re-attempts sidecar submission for
// billing documents stuck in status='error' with next_retry_at in the past.
// Respects the circuit breaker to avoid hammering a downed sidecar.

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/infra"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/model"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/repository"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	BillingRepo repository.BillingRepository
	DTEClient   *infra.DTEClient
	CB          *infra.CircuitBreaker
	RDB         *redis.Client
	RutEmisor   string
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries failed documents whose backoff elapsed, and re-attempts emission.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed sidecar
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	docs, err := cfg.BillingRepo.ListPendingRetries(ctx, time.Now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(docs) == 0 {
		return
	}

	log.Info().Int("count", len(docs)).Msg("retry_cron: processing failed documents")

	for i := range docs {
		doc := &docs[i]

		// CB may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		resp, callErr := cfg.DTEClient.Emitir(ctx, infra.DTEPayload{
			RutEmisor:   cfg.RutEmisor,
			TipoDTE:     dteTipoFor(doc.DocumentType),
			MontoNeto:   doc.NetAmount.InexactFloat64(),
			MontoIVA:    doc.TaxAmount.InexactFloat64(),
			MontoTotal:  doc.TotalAmount.InexactFloat64(),
			ReferenceID: doc.ID.String(),
		})

		if callErr != nil {
			doc.RetryCount++
			errMsg := callErr.Error()
			doc.LastError = &errMsg
			next := time.Now().Add(computeRetryBackoff(doc.RetryCount))
			doc.NextRetryAt = &next

			if doc.RetryCount >= MaxDocumentRetries {
				doc.NextRetryAt = nil
				log.Error().
					Str("document_id", doc.ID.String()).
					Int("retries", doc.RetryCount).
					Msg("retry_cron: max retries exceeded, moving to DLQ")

				payload := fmt.Sprintf(`{"document_id":"%s"}`, doc.ID)
				SendToDLQ(ctx, cfg.RDB, QueueBilling, "billing", []byte(payload),
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxDocumentRetries, errMsg),
					doc.RetryCount)
			} else {
				log.Warn().
					Str("document_id", doc.ID.String()).
					Int("retry_count", doc.RetryCount).
					Time("next_retry_at", *doc.NextRetryAt).
					Msg("retry_cron: emission retry failed, scheduled next attempt")
			}

			_ = cfg.BillingRepo.Update(ctx, doc)
			continue
		}

		if resp != nil && resp.Estado == "ACEPTADO" {
			folio := resp.Folio
			doc.Status = model.BillingStatusIssued
			doc.Folio = &folio
			if resp.URLVerificacion != "" {
				u := resp.URLVerificacion
				doc.VerificationURL = &u
			}
			doc.NextRetryAt = nil
			doc.LastError = nil
			_ = cfg.BillingRepo.Update(ctx, doc)

			log.Info().
				Int64("folio", folio).
				Str("document_id", doc.ID.String()).
				Int("total_retries", doc.RetryCount).
				Msg("retry_cron: folio obtained after retry")
		} else if resp != nil {
			doc.Status = model.BillingStatusRejected
			glosa := resp.Glosa
			doc.LastError = &glosa
			doc.NextRetryAt = nil
			_ = cfg.BillingRepo.Update(ctx, doc)
			log.Warn().
				Str("estado", resp.Estado).
				Str("document_id", doc.ID.String()).
				Msg("retry_cron: SII rejected on retry")
		}
	}
}
