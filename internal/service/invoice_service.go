package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moveops/internal/apierror"
	"moveops/internal/dto"
	"moveops/internal/finance"
	"moveops/internal/model"
	"moveops/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InvoiceJobEnqueuer pushes PDF archival jobs onto the async queue.
type InvoiceJobEnqueuer interface {
	EnqueueInvoicePDF(ctx context.Context, payload interface{}) error
}

// InvoicePDFRenderer renders the printable invoice document.
type InvoicePDFRenderer interface {
	RenderInvoicePDF(inv *model.Invoice) (string, error)
}

// InvoiceService defines the business logic contract for invoices.
type InvoiceService interface {
	CreateFromBooking(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
	CaptureSignature(ctx context.Context, id uuid.UUID, req dto.SignatureRequest) (*dto.InvoiceResponse, error)
	SendEmail(ctx context.Context, id uuid.UUID, req dto.SendInvoiceEmailRequest) (*dto.SendEmailResponse, error)
	RenderPDF(ctx context.Context, id uuid.UUID) (string, error)
}

type invoiceService struct {
	repo        repository.InvoiceRepository
	bookingRepo repository.BookingRepository
	renderer    InvoicePDFRenderer
	mailer      MailSender
	enqueuer    InvoiceJobEnqueuer
}

func NewInvoiceService(
	repo repository.InvoiceRepository,
	bookingRepo repository.BookingRepository,
	renderer InvoicePDFRenderer,
	mailer MailSender,
	enqueuer InvoiceJobEnqueuer,
) InvoiceService {
	return &invoiceService{
		repo:        repo,
		bookingRepo: bookingRepo,
		renderer:    renderer,
		mailer:      mailer,
		enqueuer:    enqueuer,
	}
}

// runTx wraps fn in a DB transaction. A nil DB (in-memory stubs under test)
// degrades to a plain call.
func (s *invoiceService) runTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := s.repo.DB()
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// CreateFromBooking derives the invoice from a booking exactly once. Items,
// charges and the VAT amount are copied as snapshots; a second creation
// attempt for the same booking conflicts and mutates nothing.
func (s *invoiceService) CreateFromBooking(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, apierror.Validationf("booking_id is not a valid uuid")
	}
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, apierror.NotFoundf("booking not found")
	}
	if booking.Status == model.BookingCancelled {
		return nil, apierror.Conflictf("booking %s is cancelled and cannot be invoiced", booking.BookingNumber)
	}

	if existing, err := s.repo.FindByBookingID(ctx, bookingID); err == nil {
		return nil, apierror.Conflictf("booking %s already has invoice %s", booking.BookingNumber, existing.InvoiceNumber)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		d, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, apierror.Validationf("due_date must be YYYY-MM-DD")
		}
		dueDate = &d
	}

	items := make([]model.InvoiceItem, len(booking.Items))
	for i, it := range booking.Items {
		items[i] = model.InvoiceItem{
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Unit:       it.Unit,
			Position:   i,
		}
	}
	charges := make([]model.InvoiceCharge, len(booking.Charges))
	for i, c := range booking.Charges {
		charges[i] = model.InvoiceCharge{
			Description: c.Description,
			Amount:      c.Amount,
			Kind:        c.Kind,
			Position:    i,
		}
	}

	// Subtotal = items + extra charges; the VAT amount is carried over from
	// the booking, never re-derived from the percentage.
	subtotal := booking.ItemsTotal.Add(booking.ChargesTotal)
	totalAmount := subtotal.Add(booking.VATAmount)
	summary := finance.SummarizePayments(paymentAmounts(booking.PaymentHistory), booking.AdvanceAmount, totalAmount)

	inv := &model.Invoice{
		BookingID:       booking.ID,
		ClientID:        booking.ClientID,
		ClientName:      booking.ClientName,
		ClientPhone:     booking.ClientPhone,
		ClientEmail:     booking.ClientEmail,
		Items:           items,
		Charges:         charges,
		VATPercentage:   booking.VATPercentage,
		Subtotal:        finance.RoundMoney(subtotal),
		VATAmount:       booking.VATAmount,
		TotalAmount:     finance.RoundMoney(totalAmount),
		AmountPaid:      finance.RoundMoney(summary.TotalPaid),
		RemainingAmount: finance.RoundMoney(summary.Remaining),
		PaymentStatus:   finance.ClassifyPaymentStatus(summary.TotalPaid, summary.Remaining),
		Status:          model.InvoiceStatusDraft,
		DueDate:         dueDate,
		Notes:           req.Notes,
	}

	err = s.runTx(ctx, func(tx *gorm.DB) error {
		seq, err := s.repo.NextInvoiceNumber(ctx, tx)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = fmt.Sprintf("INV-%d-%05d", time.Now().Year(), seq)
		if err := s.repo.CreateTx(tx, inv); err != nil {
			return err
		}
		return s.bookingRepo.MarkInvoiceGeneratedTx(tx, booking.ID, inv.ID)
	})
	if err != nil {
		return nil, err
	}

	// PDF archival happens off the request path; a full queue never fails
	// invoice creation.
	payload := map[string]string{"invoice_id": inv.ID.String()}
	if err := s.enqueuer.EnqueueInvoicePDF(ctx, payload); err != nil {
		log.Warn().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("failed to enqueue invoice PDF job")
	}

	resp := toInvoiceResponse(inv)
	return &resp, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("invoice not found")
	}
	resp := toInvoiceResponse(inv)
	return &resp, nil
}

func (s *invoiceService) List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.InvoiceResponse, len(invoices))
	for i := range invoices {
		data[i] = toInvoiceResponse(&invoices[i])
	}
	return &dto.InvoiceListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// CaptureSignature records the delivery signature. Confirmation is one-way:
// a signed invoice cannot be re-signed or unconfirmed.
func (s *invoiceService) CaptureSignature(ctx context.Context, id uuid.UUID, req dto.SignatureRequest) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("invoice not found")
	}
	if inv.DeliveryConfirmed {
		return nil, apierror.Conflictf("invoice %s is already signed", inv.InvoiceNumber)
	}

	now := time.Now()
	inv.SignatureData = &req.Data
	inv.SignedBy = &req.SignedBy
	inv.SignedAt = &now
	inv.DeliveryConfirmed = true
	inv.DeliveryConfirmedAt = &now

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	resp := toInvoiceResponse(inv)
	return &resp, nil
}

// SendEmail dispatches the invoice PDF. The recipient is validated before any
// rendering; a transport failure never flips the email_sent flag.
func (s *invoiceService) SendEmail(ctx context.Context, id uuid.UUID, req dto.SendInvoiceEmailRequest) (*dto.SendEmailResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("invoice not found")
	}

	recipient := ""
	if req.Email != nil && *req.Email != "" {
		recipient = *req.Email
	} else if inv.ClientEmail != nil {
		recipient = *inv.ClientEmail
	}
	if recipient == "" {
		return nil, apierror.Validationf("no recipient: the client has no email on record, provide one in the request")
	}

	pdfPath, err := s.renderer.RenderInvoicePDF(inv)
	if err != nil {
		return nil, apierror.Dependencyf(err, "failed to render invoice PDF")
	}

	body := fmt.Sprintf("Dear %s,\n\nPlease find attached invoice %s.\nTotal: %s\nPaid: %s\nBalance due: %s\n",
		inv.ClientName, inv.InvoiceNumber, inv.TotalAmount.StringFixed(2),
		inv.AmountPaid.StringFixed(2), inv.RemainingAmount.StringFixed(2))
	if req.Message != nil && *req.Message != "" {
		body += "\n" + *req.Message + "\n"
	}

	if err := s.mailer.Send(recipient, fmt.Sprintf("Invoice %s", inv.InvoiceNumber), body, pdfPath); err != nil {
		return nil, apierror.Dependencyf(err, "failed to send invoice email")
	}

	now := time.Now()
	inv.EmailSent = true
	inv.EmailSentAt = &now
	inv.EmailSentTo = &recipient
	if inv.Status == model.InvoiceStatusDraft {
		inv.Status = model.InvoiceStatusSent
	}
	if inv.PDFPath == nil {
		inv.PDFPath = &pdfPath
	}

	resp := &dto.SendEmailResponse{Sent: true, SentTo: recipient, Status: inv.Status}
	if err := s.repo.Update(ctx, inv); err != nil {
		log.Warn().Err(err).Str("invoice_number", inv.InvoiceNumber).Msg("invoice email sent but status persist failed")
		warning := "email sent, but updating the invoice failed; it may still show as draft"
		resp.Warning = &warning
	}
	return resp, nil
}

func (s *invoiceService) RenderPDF(ctx context.Context, id uuid.UUID) (string, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", apierror.NotFoundf("invoice not found")
	}
	path, err := s.renderer.RenderInvoicePDF(inv)
	if err != nil {
		return "", apierror.Dependencyf(err, "failed to render invoice PDF")
	}
	return path, nil
}

func toInvoiceResponse(inv *model.Invoice) dto.InvoiceResponse {
	items := make([]dto.InvoiceLineResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = dto.InvoiceLineResponse{
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Unit:       it.Unit,
		}
	}
	charges := make([]dto.ChargeResponse, len(inv.Charges))
	for i, c := range inv.Charges {
		charges[i] = dto.ChargeResponse{Description: c.Description, Amount: c.Amount, Kind: c.Kind}
	}

	resp := dto.InvoiceResponse{
		ID:              inv.ID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		BookingID:       inv.BookingID.String(),
		ClientID:        inv.ClientID.String(),
		ClientName:      inv.ClientName,
		ClientPhone:     inv.ClientPhone,
		ClientEmail:     inv.ClientEmail,
		Items:           items,
		Charges:         charges,
		VATPercentage:   inv.VATPercentage,
		Subtotal:        inv.Subtotal,
		VATAmount:       inv.VATAmount,
		TotalAmount:     inv.TotalAmount,
		AmountPaid:      inv.AmountPaid,
		RemainingAmount: inv.RemainingAmount,
		// Derived, never trusted from storage
		PaymentStatus:     finance.ClassifyPaymentStatus(inv.AmountPaid, inv.RemainingAmount),
		Status:            inv.Status,
		DeliveryConfirmed: inv.DeliveryConfirmed,
		EmailSent:         inv.EmailSent,
		EmailSentTo:       inv.EmailSentTo,
		Notes:             inv.Notes,
		CreatedAt:         inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.DueDate != nil {
		d := inv.DueDate.Format("2006-01-02")
		resp.DueDate = &d
	}
	if inv.SignedBy != nil && inv.SignedAt != nil {
		resp.Signature = &dto.SignatureResponse{
			SignedBy: *inv.SignedBy,
			SignedAt: inv.SignedAt.Format(time.RFC3339),
		}
	}
	if inv.DeliveryConfirmedAt != nil {
		t := inv.DeliveryConfirmedAt.Format(time.RFC3339)
		resp.DeliveryConfirmedAt = &t
	}
	if inv.EmailSentAt != nil {
		t := inv.EmailSentAt.Format(time.RFC3339)
		resp.EmailSentAt = &t
	}
	if inv.PDFPath != nil {
		url := "/v1/invoices/" + inv.ID.String() + "/pdf"
		resp.PDFUrl = &url
	}
	return resp
}
