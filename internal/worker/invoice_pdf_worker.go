package worker

// invoice_pdf_worker.go
// Processes invoice PDF archival jobs from QueueInvoicePDF.
// Renders the invoice document to disk and stores its path on the invoice.
// Failures schedule a retry via the retry fields picked up by the retry cron.

import (
	"context"
	"encoding/json"
	"time"

	"moveops/internal/model"
	"moveops/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InvoicePDFJobPayload is the job envelope sent to QueueInvoicePDF.
type InvoicePDFJobPayload struct {
	InvoiceID string `json:"invoice_id"`
}

// InvoiceRenderer renders an invoice document and returns the file path.
type InvoiceRenderer interface {
	RenderInvoicePDF(inv *model.Invoice) (string, error)
}

// InvoicePDFWorker renders invoice PDFs off the request path.
type InvoicePDFWorker struct {
	invoiceRepo repository.InvoiceRepository
	renderer    InvoiceRenderer
}

func NewInvoicePDFWorker(invoiceRepo repository.InvoiceRepository, renderer InvoiceRenderer) *InvoicePDFWorker {
	return &InvoicePDFWorker{invoiceRepo: invoiceRepo, renderer: renderer}
}

// Process handles a single archival job:
//  1. Parse InvoicePDFJobPayload from the job envelope
//  2. Fetch the invoice (with items and charges)
//  3. Render the PDF and store its path
//  4. On failure, bump the retry counter and schedule the next attempt
func (w *InvoicePDFWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload InvoicePDFJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("invoice_pdf_worker: invalid payload")
		return
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		log.Error().Str("invoice_id", payload.InvoiceID).Msg("invoice_pdf_worker: invalid invoice_id")
		return
	}

	inv, err := w.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		log.Error().Err(err).Str("invoice_id", payload.InvoiceID).Msg("invoice_pdf_worker: invoice not found")
		return
	}
	if inv.PDFPath != nil {
		// Already archived — duplicate job, nothing to do
		return
	}

	path, renderErr := w.renderer.RenderInvoicePDF(inv)
	if renderErr != nil {
		inv.RetryCount++
		errMsg := renderErr.Error()
		inv.LastError = &errMsg
		nextRetry := time.Now().Add(computeRetryBackoff(inv.RetryCount))
		inv.NextRetryAt = &nextRetry
		_ = w.invoiceRepo.Update(ctx, inv)
		log.Warn().
			Err(renderErr).
			Str("invoice_number", inv.InvoiceNumber).
			Int("retry_count", inv.RetryCount).
			Msg("invoice_pdf_worker: render failed, scheduled retry")
		return
	}

	inv.PDFPath = &path
	inv.NextRetryAt = nil
	inv.LastError = nil
	if err := w.invoiceRepo.Update(ctx, inv); err != nil {
		log.Error().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("invoice_pdf_worker: failed to store PDF path")
		return
	}
	log.Info().Str("pdf", path).Str("invoice_number", inv.InvoiceNumber).Msg("invoice_pdf_worker: PDF archived")
}
