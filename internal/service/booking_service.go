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
	"moveops/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EmailEnqueuer pushes notification email jobs onto the async queue.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload interface{}) error
}

// BookingRenderer renders the printable booking confirmation.
type BookingRenderer interface {
	RenderBookingPDF(b *model.Booking) (string, error)
}

// BookingService defines the business logic contract for bookings.
type BookingService interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (*dto.BookingResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.BookingResponse, error)
	List(ctx context.Context, filter dto.BookingFilter) (*dto.BookingListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateBookingRequest) (*dto.BookingResponse, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, req dto.BookingStatusRequest) (*dto.BookingResponse, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req dto.RecordPaymentRequest) (*dto.BookingResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RenderPDF(ctx context.Context, id uuid.UUID) (string, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	clientRepo repository.ClientRepository
	itemRepo   repository.ItemRepository
	quoteRepo  repository.QuoteRepository
	renderer   BookingRenderer
	enqueuer   EmailEnqueuer
}

func NewBookingService(
	repo repository.BookingRepository,
	clientRepo repository.ClientRepository,
	itemRepo repository.ItemRepository,
	quoteRepo repository.QuoteRepository,
	renderer BookingRenderer,
	enqueuer EmailEnqueuer,
) BookingService {
	return &bookingService{
		repo:       repo,
		clientRepo: clientRepo,
		itemRepo:   itemRepo,
		quoteRepo:  quoteRepo,
		renderer:   renderer,
		enqueuer:   enqueuer,
	}
}

func (s *bookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apierror.Validationf("client_id is not a valid uuid")
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, apierror.NotFoundf("client not found")
	}
	if !client.Active {
		return nil, apierror.Validationf("client %s is inactive", client.Name)
	}

	var quoteID *uuid.UUID
	if req.QuoteID != nil && *req.QuoteID != "" {
		qid, err := uuid.Parse(*req.QuoteID)
		if err != nil {
			return nil, apierror.Validationf("quote_id is not a valid uuid")
		}
		quote, err := s.quoteRepo.FindByID(ctx, qid)
		if err != nil {
			return nil, apierror.NotFoundf("quote not found")
		}
		if quote.ClientID != clientID {
			return nil, apierror.Validationf("quote %s belongs to a different client", quote.QuoteNumber)
		}
		quoteID = &qid
	}

	shiftingDate, err := time.Parse("2006-01-02", req.ShiftingDate)
	if err != nil {
		return nil, apierror.Validationf("shifting_date must be YYYY-MM-DD")
	}

	items, lines, err := s.resolveBookingLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	charges, chargeAmounts, err := buildBookingCharges(req.Charges)
	if err != nil {
		return nil, err
	}

	breakdown := finance.BookingTotals(lines, chargeAmounts, req.VATPercentage)
	grandTotal := finance.RoundMoney(breakdown.GrandTotal)

	if req.AdvanceAmount.GreaterThan(grandTotal) {
		return nil, apierror.Validationf("advance_amount %s exceeds the booking total %s",
			req.AdvanceAmount.StringFixed(2), grandTotal.StringFixed(2))
	}
	summary := finance.SummarizePayments(nil, req.AdvanceAmount, grandTotal)

	seq, err := s.repo.NextBookingNumber(ctx)
	if err != nil {
		return nil, err
	}

	b := &model.Booking{
		BookingNumber:       fmt.Sprintf("BK-%d-%05d", time.Now().Year(), seq),
		ClientID:            client.ID,
		ClientName:          client.Name,
		ClientPhone:         client.Phone,
		ClientEmail:         client.Email,
		QuoteID:             quoteID,
		ShiftingDate:        shiftingDate,
		ShiftingTime:        req.ShiftingTime,
		PickupAddress:       req.PickupAddress,
		DeliveryAddress:     req.DeliveryAddress,
		Items:               items,
		Charges:             charges,
		VATPercentage:       req.VATPercentage,
		ItemsTotal:          finance.RoundMoney(breakdown.ItemsTotal),
		ChargesTotal:        finance.RoundMoney(breakdown.ChargesTotal),
		VATAmount:           finance.RoundMoney(breakdown.VATAmount),
		GrandTotal:          grandTotal,
		AdvanceAmount:       finance.RoundMoney(summary.TotalPaid),
		RemainingAmount:     finance.RoundMoney(summary.Remaining),
		Status:              model.BookingPending,
		AssignedStaff:       req.AssignedStaff,
		Notes:               req.Notes,
		SpecialInstructions: req.SpecialInstructions,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	resp := toBookingResponse(b)
	return &resp, nil
}

func (s *bookingService) GetByID(ctx context.Context, id uuid.UUID) (*dto.BookingResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("booking not found")
	}
	resp := toBookingResponse(b)
	return &resp, nil
}

func (s *bookingService) List(ctx context.Context, filter dto.BookingFilter) (*dto.BookingListResponse, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		data[i] = toBookingResponse(&bookings[i])
	}
	return &dto.BookingListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Update edits schedule, addresses, lines and charges, recomputing every
// total. Terminal bookings are immutable.
func (s *bookingService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("booking not found")
	}
	if b.Status == model.BookingCompleted || b.Status == model.BookingCancelled {
		return nil, apierror.Conflictf("booking %s is %s and can no longer be edited", b.BookingNumber, b.Status)
	}

	if req.ShiftingDate != nil {
		d, err := time.Parse("2006-01-02", *req.ShiftingDate)
		if err != nil {
			return nil, apierror.Validationf("shifting_date must be YYYY-MM-DD")
		}
		b.ShiftingDate = d
	}
	if req.ShiftingTime != nil {
		b.ShiftingTime = *req.ShiftingTime
	}
	if req.PickupAddress != nil {
		b.PickupAddress = *req.PickupAddress
	}
	if req.DeliveryAddress != nil {
		b.DeliveryAddress = *req.DeliveryAddress
	}
	if req.AssignedStaff != nil {
		b.AssignedStaff = req.AssignedStaff
	}
	if req.Notes != nil {
		b.Notes = req.Notes
	}
	if req.SpecialInstructions != nil {
		b.SpecialInstructions = req.SpecialInstructions
	}
	if req.VATPercentage != nil {
		if req.VATPercentage.IsNegative() || req.VATPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apierror.Validationf("vat_percentage must be between 0 and 100")
		}
		b.VATPercentage = *req.VATPercentage
	}

	if req.Items != nil {
		items, _, err := s.resolveBookingLines(ctx, req.Items)
		if err != nil {
			return nil, err
		}
		b.Items = items
	}
	if req.Charges != nil {
		charges, _, err := buildBookingCharges(req.Charges)
		if err != nil {
			return nil, err
		}
		b.Charges = charges
	}

	// Recompute totals from the (possibly updated) line/charge sets
	lines := make([]finance.Line, len(b.Items))
	for i, it := range b.Items {
		lines[i] = finance.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	chargeAmounts := make([]decimal.Decimal, len(b.Charges))
	for i, c := range b.Charges {
		chargeAmounts[i] = c.Amount
	}
	breakdown := finance.BookingTotals(lines, chargeAmounts, b.VATPercentage)
	b.ItemsTotal = finance.RoundMoney(breakdown.ItemsTotal)
	b.ChargesTotal = finance.RoundMoney(breakdown.ChargesTotal)
	b.VATAmount = finance.RoundMoney(breakdown.VATAmount)
	b.GrandTotal = finance.RoundMoney(breakdown.GrandTotal)

	amounts := paymentAmounts(b.PaymentHistory)
	summary := finance.SummarizePayments(amounts, b.AdvanceAmount, b.GrandTotal)
	b.AdvanceAmount = finance.RoundMoney(summary.TotalPaid)
	b.RemainingAmount = finance.RoundMoney(summary.Remaining)

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	fresh, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toBookingResponse(fresh)
	return &resp, nil
}

// ChangeStatus enforces the booking state machine. Confirming a booking
// enqueues a best-effort notification email; the status change never fails
// because the queue is down.
func (s *bookingService) ChangeStatus(ctx context.Context, id uuid.UUID, req dto.BookingStatusRequest) (*dto.BookingResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("booking not found")
	}
	if !model.ValidBookingStatus(req.Status) {
		return nil, apierror.Validationf("unknown status %q", req.Status)
	}
	if b.Status == req.Status {
		resp := toBookingResponse(b)
		return &resp, nil
	}
	if !model.CanTransitionBooking(b.Status, req.Status) {
		return nil, apierror.Conflictf("cannot change booking %s from %s to %s", b.BookingNumber, b.Status, req.Status)
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, err
	}
	b.Status = req.Status

	if req.Status == model.BookingConfirmed && b.ClientEmail != nil && *b.ClientEmail != "" {
		payload := worker.EmailJobPayload{
			ToEmail: *b.ClientEmail,
			Subject: fmt.Sprintf("Booking %s confirmed", b.BookingNumber),
			Body: fmt.Sprintf("Dear %s,\n\nYour move on %s is confirmed.\nFrom: %s\nTo: %s\nTotal: %s (paid: %s)\n",
				b.ClientName, b.ShiftingDate.Format("02/01/2006"), b.PickupAddress, b.DeliveryAddress,
				b.GrandTotal.StringFixed(2), b.AdvanceAmount.StringFixed(2)),
		}
		if err := s.enqueuer.EnqueueEmail(ctx, payload); err != nil {
			log.Warn().Err(err).Str("booking_number", b.BookingNumber).Msg("failed to enqueue confirmation email")
		}
	}

	resp := toBookingResponse(b)
	return &resp, nil
}

// RecordPayment appends an immutable payment entry and recomputes the paid /
// remaining figures atomically under a row lock held by the repository.
func (s *bookingService) RecordPayment(ctx context.Context, id uuid.UUID, req dto.RecordPaymentRequest) (*dto.BookingResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, apierror.Validationf("amount must be greater than zero")
	}

	paidAt := time.Now()
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, apierror.Validationf("payment_date must be YYYY-MM-DD")
		}
		paidAt = d
	}

	p := &model.Payment{
		Amount: finance.RoundMoney(req.Amount),
		Method: req.Method,
		PaidAt: paidAt,
		Notes:  req.Notes,
	}

	b, err := s.repo.AppendPayment(ctx, id, p, func(b *model.Booking) {
		summary := finance.SummarizePayments(paymentAmounts(b.PaymentHistory), b.AdvanceAmount, b.GrandTotal)
		b.AdvanceAmount = finance.RoundMoney(summary.TotalPaid)
		b.RemainingAmount = finance.RoundMoney(summary.Remaining)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFoundf("booking not found")
		}
		return nil, err
	}
	resp := toBookingResponse(b)
	return &resp, nil
}

func (s *bookingService) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFoundf("booking not found")
	}
	if b.Status != model.BookingPending {
		return apierror.Conflictf("only pending bookings can be deleted; booking %s is %s", b.BookingNumber, b.Status)
	}
	return s.repo.Delete(ctx, id)
}

func (s *bookingService) RenderPDF(ctx context.Context, id uuid.UUID) (string, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", apierror.NotFoundf("booking not found")
	}
	path, err := s.renderer.RenderBookingPDF(b)
	if err != nil {
		return "", apierror.Dependencyf(err, "failed to render booking PDF")
	}
	return path, nil
}

func (s *bookingService) resolveBookingLines(ctx context.Context, reqs []dto.BookingLineRequest) ([]model.BookingItem, []finance.Line, error) {
	items := make([]model.BookingItem, 0, len(reqs))
	lines := make([]finance.Line, 0, len(reqs))
	for i, lr := range reqs {
		itemID, err := uuid.Parse(lr.ItemID)
		if err != nil {
			return nil, nil, apierror.Validationf("items[%d]: item_id is not a valid uuid", i)
		}
		item, err := s.itemRepo.FindByID(ctx, itemID)
		if err != nil {
			return nil, nil, apierror.NotFoundf("items[%d]: item %s not found", i, itemID)
		}
		if !item.Active {
			return nil, nil, apierror.Validationf("items[%d]: item %q is inactive", i, item.Name)
		}

		unitPrice := item.BasePrice
		if lr.UnitPrice != nil {
			if lr.UnitPrice.IsNegative() {
				return nil, nil, apierror.Validationf("items[%d]: unit_price must not be negative", i)
			}
			unitPrice = *lr.UnitPrice
		}

		items = append(items, model.BookingItem{
			ItemID:     item.ID,
			Name:       item.Name,
			Quantity:   lr.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: finance.RoundMoney(finance.LineTotal(lr.Quantity, unitPrice)),
			Unit:       item.Unit,
			Notes:      lr.Notes,
			Position:   i,
		})
		lines = append(lines, finance.Line{Quantity: lr.Quantity, UnitPrice: unitPrice})
	}
	return items, lines, nil
}

func buildBookingCharges(reqs []dto.ChargeRequest) ([]model.BookingCharge, []decimal.Decimal, error) {
	charges := make([]model.BookingCharge, 0, len(reqs))
	amounts := make([]decimal.Decimal, 0, len(reqs))
	for i, cr := range reqs {
		if cr.Amount.IsNegative() {
			return nil, nil, apierror.Validationf("extra_charges[%d]: amount must not be negative", i)
		}
		kind := cr.Kind
		if kind == "" {
			kind = "other"
		}
		charges = append(charges, model.BookingCharge{
			Description: cr.Description,
			Amount:      cr.Amount,
			Kind:        kind,
			Position:    i,
		})
		amounts = append(amounts, cr.Amount)
	}
	return charges, amounts, nil
}

func paymentAmounts(history []model.Payment) []decimal.Decimal {
	amounts := make([]decimal.Decimal, len(history))
	for i, p := range history {
		amounts[i] = p.Amount
	}
	return amounts
}

func toBookingResponse(b *model.Booking) dto.BookingResponse {
	items := make([]dto.QuoteLineResponse, len(b.Items))
	for i, it := range b.Items {
		items[i] = dto.QuoteLineResponse{
			ItemID:     it.ItemID.String(),
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Unit:       it.Unit,
			Notes:      it.Notes,
		}
	}
	charges := make([]dto.ChargeResponse, len(b.Charges))
	for i, c := range b.Charges {
		charges[i] = dto.ChargeResponse{Description: c.Description, Amount: c.Amount, Kind: c.Kind}
	}
	history := make([]dto.PaymentResponse, len(b.PaymentHistory))
	legacy := make([]dto.LegacyPayment, len(b.PaymentHistory))
	for i, p := range b.PaymentHistory {
		history[i] = dto.PaymentResponse{
			ID:     p.ID.String(),
			Amount: p.Amount,
			Method: p.Method,
			PaidAt: p.PaidAt.Format(time.RFC3339),
			Notes:  p.Notes,
		}
		legacy[i] = dto.LegacyPayment{
			Amount: p.Amount,
			Method: p.Method,
			Date:   p.PaidAt.Format("2006-01-02"),
		}
	}

	resp := dto.BookingResponse{
		ID:                  b.ID.String(),
		BookingNumber:       b.BookingNumber,
		ClientID:            b.ClientID.String(),
		ClientName:          b.ClientName,
		ClientPhone:         b.ClientPhone,
		ClientEmail:         b.ClientEmail,
		ShiftingDate:        b.ShiftingDate.Format("2006-01-02"),
		ShiftingTime:        b.ShiftingTime,
		PickupAddress:       b.PickupAddress,
		DeliveryAddress:     b.DeliveryAddress,
		Items:               items,
		Charges:             charges,
		VATPercentage:       b.VATPercentage,
		ItemsTotal:          b.ItemsTotal,
		ChargesTotal:        b.ChargesTotal,
		VATAmount:           b.VATAmount,
		GrandTotal:          b.GrandTotal,
		AdvanceAmount:       b.AdvanceAmount,
		RemainingAmount:     b.RemainingAmount,
		PaymentHistory:      history,
		Payments:            legacy,
		Status:              b.Status,
		AssignedStaff:       b.AssignedStaff,
		Notes:               b.Notes,
		SpecialInstructions: b.SpecialInstructions,
		InvoiceGenerated:    b.InvoiceGenerated,
		CreatedAt:           b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           b.UpdatedAt.Format(time.RFC3339),
	}
	if b.QuoteID != nil {
		qid := b.QuoteID.String()
		resp.QuoteID = &qid
	}
	if b.InvoiceID != nil {
		iid := b.InvoiceID.String()
		resp.InvoiceID = &iid
	}
	return resp
}
