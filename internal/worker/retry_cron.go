package worker

// retry_cron.go
// Background goroutine that periodically re-attempts PDF archival for
// invoices whose render failed and whose next_retry_at is in the past.
// After MaxInvoicePDFRetries the job is parked in the DLQ for inspection.

import (
	"context"
	"fmt"
	"time"

	"moveops/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// MaxInvoicePDFRetries is the cap before a job goes to the DLQ.
	MaxInvoicePDFRetries = 5
)

// computeRetryBackoff returns the wait before the given attempt number:
// 1m, 2m, 4m, 8m, … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	backoff := time.Minute * time.Duration(1<<uint(retryCount-1))
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	return backoff
}

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	InvoiceRepo repository.InvoiceRepository
	Renderer    InvoiceRenderer
	RDB         *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries invoices with a due retry, and re-attempts the PDF render.
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
	now := time.Now()
	invoices, err := cfg.InvoiceRepo.ListPendingPDFRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(invoices) == 0 {
		return
	}

	log.Info().Int("count", len(invoices)).Msg("retry_cron: re-attempting invoice PDF renders")

	for i := range invoices {
		inv := &invoices[i]

		path, renderErr := cfg.Renderer.RenderInvoicePDF(inv)
		if renderErr == nil {
			inv.PDFPath = &path
			inv.NextRetryAt = nil
			inv.LastError = nil
			_ = cfg.InvoiceRepo.Update(ctx, inv)
			log.Info().
				Str("invoice_number", inv.InvoiceNumber).
				Int("total_retries", inv.RetryCount).
				Msg("retry_cron: PDF archived after retry")
			continue
		}

		inv.RetryCount++
		errMsg := renderErr.Error()
		inv.LastError = &errMsg

		if inv.RetryCount >= MaxInvoicePDFRetries {
			inv.NextRetryAt = nil
			log.Error().
				Str("invoice_number", inv.InvoiceNumber).
				Int("retries", inv.RetryCount).
				Msg("retry_cron: max retries exceeded, moving to DLQ")

			payload := fmt.Sprintf(`{"invoice_id":"%s"}`, inv.ID)
			SendToDLQ(ctx, cfg.RDB, QueueInvoicePDF, "invoice_pdf", []byte(payload),
				fmt.Sprintf("max retries (%d) exceeded: %s", MaxInvoicePDFRetries, errMsg),
				inv.RetryCount)
		} else {
			nextRetry := time.Now().Add(computeRetryBackoff(inv.RetryCount))
			inv.NextRetryAt = &nextRetry
			log.Warn().
				Str("invoice_number", inv.InvoiceNumber).
				Int("retry_count", inv.RetryCount).
				Time("next_retry_at", nextRetry).
				Msg("retry_cron: render failed again, scheduled next attempt")
		}

		_ = cfg.InvoiceRepo.Update(ctx, inv)
	}
}
