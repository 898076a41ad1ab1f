package service

import (
	"context"
	"fmt"
	"time"

	"moveops/internal/apierror"
	"moveops/internal/dto"
	"moveops/internal/finance"
	"moveops/internal/model"
	"moveops/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MailSender abstracts the SMTP mailer so tests can stub delivery.
type MailSender interface {
	Send(to, subject, body, pdfPath string) error
}

// QuoteRenderer renders the printable quote document.
type QuoteRenderer interface {
	RenderQuotePDF(q *model.Quote) (string, error)
}

// QuoteService defines the business logic contract for quotes.
type QuoteService interface {
	Create(ctx context.Context, req dto.CreateQuoteRequest) (*dto.QuoteResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.QuoteResponse, error)
	List(ctx context.Context, filter dto.QuoteFilter) (*dto.QuoteListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateQuoteRequest) (*dto.QuoteResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SendEmail(ctx context.Context, id uuid.UUID, req dto.SendQuoteEmailRequest) (*dto.SendEmailResponse, error)
	RenderPDF(ctx context.Context, id uuid.UUID) (string, error)
}

type quoteService struct {
	repo       repository.QuoteRepository
	clientRepo repository.ClientRepository
	itemRepo   repository.ItemRepository
	renderer   QuoteRenderer
	mailer     MailSender
}

func NewQuoteService(
	repo repository.QuoteRepository,
	clientRepo repository.ClientRepository,
	itemRepo repository.ItemRepository,
	renderer QuoteRenderer,
	mailer MailSender,
) QuoteService {
	return &quoteService{
		repo:       repo,
		clientRepo: clientRepo,
		itemRepo:   itemRepo,
		renderer:   renderer,
		mailer:     mailer,
	}
}

func (s *quoteService) Create(ctx context.Context, req dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
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

	items, lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	charges, chargeAmounts, err := buildCharges(req.Charges)
	if err != nil {
		return nil, err
	}
	discounts, financeDiscounts, err := buildDiscounts(req.Discounts)
	if err != nil {
		return nil, err
	}

	breakdown := finance.QuoteTotals(lines, chargeAmounts, financeDiscounts, req.VATPercentage)

	seq, err := s.repo.NextQuoteNumber(ctx)
	if err != nil {
		return nil, err
	}

	validityDays := req.ValidityDays
	if validityDays == 0 {
		validityDays = 30
	}

	q := &model.Quote{
		QuoteNumber:     fmt.Sprintf("Q-%d-%05d", time.Now().Year(), seq),
		ClientID:        client.ID,
		ClientName:      client.Name,
		ClientPhone:     client.Phone,
		ClientEmail:     client.Email,
		Items:           items,
		Charges:         charges,
		Discounts:       discounts,
		VATPercentage:   req.VATPercentage,
		Subtotal:        finance.RoundMoney(breakdown.Subtotal),
		ChargesTotal:    finance.RoundMoney(breakdown.ChargesTotal),
		DiscountTotal:   finance.RoundMoney(breakdown.DiscountTotal),
		VATAmount:       finance.RoundMoney(breakdown.VATAmount),
		GrandTotal:      finance.RoundMoney(breakdown.GrandTotal),
		Status:          model.QuoteStatusDraft,
		ValidityDays:    validityDays,
		Notes:           req.Notes,
		TermsConditions: req.TermsConditions,
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	resp := toQuoteResponse(q)
	return &resp, nil
}

func (s *quoteService) GetByID(ctx context.Context, id uuid.UUID) (*dto.QuoteResponse, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("quote not found")
	}
	resp := toQuoteResponse(q)
	return &resp, nil
}

func (s *quoteService) List(ctx context.Context, filter dto.QuoteFilter) (*dto.QuoteListResponse, error) {
	quotes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.QuoteResponse, len(quotes))
	for i := range quotes {
		data[i] = toQuoteResponse(&quotes[i])
	}
	return &dto.QuoteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Update replaces the full line/charge/discount sets and recomputes every
// total from scratch. Client snapshot and status are untouched.
func (s *quoteService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateQuoteRequest) (*dto.QuoteResponse, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("quote not found")
	}

	items, lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	charges, chargeAmounts, err := buildCharges(req.Charges)
	if err != nil {
		return nil, err
	}
	discounts, financeDiscounts, err := buildDiscounts(req.Discounts)
	if err != nil {
		return nil, err
	}

	breakdown := finance.QuoteTotals(lines, chargeAmounts, financeDiscounts, req.VATPercentage)

	q.Items = items
	q.Charges = charges
	q.Discounts = discounts
	q.VATPercentage = req.VATPercentage
	q.Subtotal = finance.RoundMoney(breakdown.Subtotal)
	q.ChargesTotal = finance.RoundMoney(breakdown.ChargesTotal)
	q.DiscountTotal = finance.RoundMoney(breakdown.DiscountTotal)
	q.VATAmount = finance.RoundMoney(breakdown.VATAmount)
	q.GrandTotal = finance.RoundMoney(breakdown.GrandTotal)
	if req.ValidityDays != nil {
		q.ValidityDays = *req.ValidityDays
	}
	if req.Notes != nil {
		q.Notes = req.Notes
	}
	if req.TermsConditions != nil {
		q.TermsConditions = req.TermsConditions
	}

	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	fresh, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toQuoteResponse(fresh)
	return &resp, nil
}

func (s *quoteService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFoundf("quote not found")
	}
	return s.repo.Delete(ctx, id)
}

// SendEmail renders the quote PDF and emails it. The recipient is resolved
// before any rendering happens: no PDF is generated for an unsendable quote.
// A successful send with a failed status persist is reported as success with
// a warning — the email objectively went out.
func (s *quoteService) SendEmail(ctx context.Context, id uuid.UUID, req dto.SendQuoteEmailRequest) (*dto.SendEmailResponse, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("quote not found")
	}

	recipient := ""
	if req.Email != nil && *req.Email != "" {
		recipient = *req.Email
	} else if q.ClientEmail != nil {
		recipient = *q.ClientEmail
	}
	if recipient == "" {
		return nil, apierror.Validationf("no recipient: the client has no email on record, provide one in the request")
	}

	pdfPath, err := s.renderer.RenderQuotePDF(q)
	if err != nil {
		return nil, apierror.Dependencyf(err, "failed to render quote PDF")
	}

	body := fmt.Sprintf("Dear %s,\n\nPlease find attached quote %s for a total of %s.\nThis quote is valid for %d days.\n",
		q.ClientName, q.QuoteNumber, q.GrandTotal.StringFixed(2), q.ValidityDays)
	if req.Message != nil && *req.Message != "" {
		body += "\n" + *req.Message + "\n"
	}

	subject := fmt.Sprintf("Quote %s", q.QuoteNumber)
	if err := s.mailer.Send(recipient, subject, body, pdfPath); err != nil {
		return nil, apierror.Dependencyf(err, "failed to send quote email")
	}

	resp := &dto.SendEmailResponse{Sent: true, SentTo: recipient, Status: model.QuoteStatusSent}
	if err := s.repo.UpdateSendState(ctx, id, model.QuoteStatusSent, time.Now(), recipient); err != nil {
		// The email went out; don't report failure for a bookkeeping miss.
		log.Warn().Err(err).Str("quote_number", q.QuoteNumber).Msg("quote email sent but status persist failed")
		warning := "email sent, but updating the quote status failed; it may still show as draft"
		resp.Warning = &warning
	}
	return resp, nil
}

func (s *quoteService) RenderPDF(ctx context.Context, id uuid.UUID) (string, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", apierror.NotFoundf("quote not found")
	}
	path, err := s.renderer.RenderQuotePDF(q)
	if err != nil {
		return "", apierror.Dependencyf(err, "failed to render quote PDF")
	}
	return path, nil
}

// resolveLines turns line requests into model items with catalog snapshots.
// Validation failures name the offending item index.
func (s *quoteService) resolveLines(ctx context.Context, reqs []dto.QuoteLineRequest) ([]model.QuoteItem, []finance.Line, error) {
	items := make([]model.QuoteItem, 0, len(reqs))
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

		items = append(items, model.QuoteItem{
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

func buildCharges(reqs []dto.ChargeRequest) ([]model.QuoteCharge, []decimal.Decimal, error) {
	charges := make([]model.QuoteCharge, 0, len(reqs))
	amounts := make([]decimal.Decimal, 0, len(reqs))
	for i, cr := range reqs {
		if cr.Amount.IsNegative() {
			return nil, nil, apierror.Validationf("additional_charges[%d]: amount must not be negative", i)
		}
		kind := cr.Kind
		if kind == "" {
			kind = "other"
		}
		charges = append(charges, model.QuoteCharge{
			Description: cr.Description,
			Amount:      cr.Amount,
			Kind:        kind,
			Position:    i,
		})
		amounts = append(amounts, cr.Amount)
	}
	return charges, amounts, nil
}

func buildDiscounts(reqs []dto.DiscountRequest) ([]model.QuoteDiscount, []finance.Discount, error) {
	discounts := make([]model.QuoteDiscount, 0, len(reqs))
	financeDiscounts := make([]finance.Discount, 0, len(reqs))
	for i, dr := range reqs {
		if dr.Amount.IsNegative() {
			return nil, nil, apierror.Validationf("discounts[%d]: amount must not be negative", i)
		}
		if dr.Type == finance.DiscountPercentage && dr.Amount.GreaterThan(decimal.NewFromInt(100)) {
			return nil, nil, apierror.Validationf("discounts[%d]: percentage must not exceed 100", i)
		}
		discounts = append(discounts, model.QuoteDiscount{
			Description: dr.Description,
			Amount:      dr.Amount,
			Type:        dr.Type,
			Position:    i,
		})
		financeDiscounts = append(financeDiscounts, finance.Discount{Type: dr.Type, Amount: dr.Amount})
	}
	return discounts, financeDiscounts, nil
}

func toQuoteResponse(q *model.Quote) dto.QuoteResponse {
	items := make([]dto.QuoteLineResponse, len(q.Items))
	for i, it := range q.Items {
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
	charges := make([]dto.ChargeResponse, len(q.Charges))
	for i, c := range q.Charges {
		charges[i] = dto.ChargeResponse{Description: c.Description, Amount: c.Amount, Kind: c.Kind}
	}
	discounts := make([]dto.DiscountResponse, len(q.Discounts))
	for i, d := range q.Discounts {
		discounts[i] = dto.DiscountResponse{Description: d.Description, Amount: d.Amount, Type: d.Type}
	}

	resp := dto.QuoteResponse{
		ID:              q.ID.String(),
		QuoteNumber:     q.QuoteNumber,
		ClientID:        q.ClientID.String(),
		ClientName:      q.ClientName,
		ClientPhone:     q.ClientPhone,
		ClientEmail:     q.ClientEmail,
		Items:           items,
		Charges:         charges,
		Discounts:       discounts,
		VATPercentage:   q.VATPercentage,
		Subtotal:        q.Subtotal,
		ChargesTotal:    q.ChargesTotal,
		DiscountTotal:   q.DiscountTotal,
		VATAmount:       q.VATAmount,
		GrandTotal:      q.GrandTotal,
		Status:          q.Status,
		ValidityDays:    q.ValidityDays,
		Notes:           q.Notes,
		TermsConditions: q.TermsConditions,
		CreatedAt:       q.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       q.UpdatedAt.Format(time.RFC3339),
	}
	if q.EmailSentAt != nil {
		sentAt := q.EmailSentAt.Format(time.RFC3339)
		resp.EmailSentAt = &sentAt
	}
	resp.EmailSentTo = q.EmailSentTo
	return resp
}
