package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"moveops/internal/apierror"
	"moveops/internal/dto"
	"moveops/internal/model"
	"moveops/internal/repository"
	"moveops/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Shared stubs ──────────────────────────────────────────────────────────────

// stubClientRepo is an in-memory ClientRepository for testing.
type stubClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClientRepo) FindByPhone(_ context.Context, phone string) (*model.Client, error) {
	for _, c := range r.clients {
		if c.Phone == phone {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClientRepo) List(_ context.Context, _ dto.ClientFilter) ([]model.Client, int64, error) {
	out := make([]model.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClientRepo) Update(_ context.Context, c *model.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	c, ok := r.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Active = false
	return nil
}

var _ repository.ClientRepository = (*stubClientRepo)(nil)

// stubItemRepo is an in-memory ItemRepository for testing.
type stubItemRepo struct {
	items map[uuid.UUID]*model.Item
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[uuid.UUID]*model.Item)}
}

func (r *stubItemRepo) Create(_ context.Context, i *model.Item) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	r.items[i.ID] = i
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return i, nil
}

func (r *stubItemRepo) List(_ context.Context, _ dto.ItemFilter) ([]model.Item, int64, error) {
	out := make([]model.Item, 0, len(r.items))
	for _, i := range r.items {
		out = append(out, *i)
	}
	return out, int64(len(out)), nil
}

func (r *stubItemRepo) Update(_ context.Context, i *model.Item) error {
	r.items[i.ID] = i
	return nil
}

func (r *stubItemRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	i, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.Active = false
	return nil
}

func (r *stubItemRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	i, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.Active = true
	return nil
}

var _ repository.ItemRepository = (*stubItemRepo)(nil)

// stubQuoteRepo is an in-memory QuoteRepository for testing.
type stubQuoteRepo struct {
	quotes          map[uuid.UUID]*model.Quote
	seq             int
	sendStateErr    error
	sendStateCalled bool
}

func newStubQuoteRepo() *stubQuoteRepo {
	return &stubQuoteRepo{quotes: make(map[uuid.UUID]*model.Quote)}
}

func (r *stubQuoteRepo) Create(_ context.Context, q *model.Quote) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	r.quotes[q.ID] = q
	return nil
}

func (r *stubQuoteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (r *stubQuoteRepo) Update(_ context.Context, q *model.Quote) error {
	r.quotes[q.ID] = q
	return nil
}

func (r *stubQuoteRepo) UpdateSendState(_ context.Context, id uuid.UUID, status string, sentAt time.Time, sentTo string) error {
	r.sendStateCalled = true
	if r.sendStateErr != nil {
		return r.sendStateErr
	}
	q, ok := r.quotes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	q.Status = status
	q.EmailSentAt = &sentAt
	q.EmailSentTo = &sentTo
	return nil
}

func (r *stubQuoteRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.quotes, id)
	return nil
}

func (r *stubQuoteRepo) List(_ context.Context, _ dto.QuoteFilter) ([]model.Quote, int64, error) {
	out := make([]model.Quote, 0, len(r.quotes))
	for _, q := range r.quotes {
		out = append(out, *q)
	}
	return out, int64(len(out)), nil
}

func (r *stubQuoteRepo) NextQuoteNumber(_ context.Context) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubQuoteRepo) DB() *gorm.DB { return nil }

var _ repository.QuoteRepository = (*stubQuoteRepo)(nil)

// stubRenderer serves as quote, booking and invoice renderer at once.
type stubRenderer struct {
	fail  error
	calls int
}

func (r *stubRenderer) render(prefix, number string) (string, error) {
	r.calls++
	if r.fail != nil {
		return "", r.fail
	}
	return fmt.Sprintf("/tmp/pdfs/%s_%s.pdf", prefix, number), nil
}

func (r *stubRenderer) RenderQuotePDF(q *model.Quote) (string, error) {
	return r.render("quote", q.QuoteNumber)
}

func (r *stubRenderer) RenderBookingPDF(b *model.Booking) (string, error) {
	return r.render("booking", b.BookingNumber)
}

func (r *stubRenderer) RenderInvoicePDF(inv *model.Invoice) (string, error) {
	return r.render("invoice", inv.InvoiceNumber)
}

// stubMailer records outbound email instead of touching SMTP.
type sentMail struct {
	To      string
	Subject string
	Body    string
	PDFPath string
}

type stubMailer struct {
	fail error
	sent []sentMail
}

func (m *stubMailer) Send(to, subject, body, pdfPath string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body, PDFPath: pdfPath})
	return nil
}

// ── Seed helpers ──────────────────────────────────────────────────────────────

func seedClient(repo *stubClientRepo, name, phone string, email *string) *model.Client {
	c := &model.Client{ID: uuid.New(), Name: name, Phone: phone, Email: email, Active: true}
	repo.clients[c.ID] = c
	return c
}

func seedItem(repo *stubItemRepo, name string, price float64) *model.Item {
	i := &model.Item{
		ID:        uuid.New(),
		Name:      name,
		Category:  "packing",
		Unit:      "unit",
		BasePrice: decimal.NewFromFloat(price),
		Active:    true,
	}
	repo.items[i.ID] = i
	return i
}

func strPtr(s string) *string { return &s }

func buildQuoteSvc() (service.QuoteService, *stubQuoteRepo, *stubClientRepo, *stubItemRepo, *stubRenderer, *stubMailer) {
	quoteRepo := newStubQuoteRepo()
	clientRepo := newStubClientRepo()
	itemRepo := newStubItemRepo()
	renderer := &stubRenderer{}
	mailer := &stubMailer{}
	svc := service.NewQuoteService(quoteRepo, clientRepo, itemRepo, renderer, mailer)
	return svc, quoteRepo, clientRepo, itemRepo, renderer, mailer
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateQuote_Totals(t *testing.T) {
	svc, _, clientRepo, itemRepo, _, _ := buildQuoteSvc()
	client := seedClient(clientRepo, "Asha Verma", "0300111222", nil)
	box := seedItem(itemRepo, "Packing box", 100)

	// subtotal = 2×100 = 200; charge 50; discount 10% of 200 = 20
	// taxable = 230; VAT 10% = 23; grand = 253
	resp, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID: client.ID.String(),
		Items: []dto.QuoteLineRequest{
			{ItemID: box.ID.String(), Quantity: 2},
		},
		Charges: []dto.ChargeRequest{
			{Description: "Long carry", Amount: decimal.NewFromInt(50), Kind: "labour"},
		},
		Discounts: []dto.DiscountRequest{
			{Description: "Repeat customer", Amount: decimal.NewFromInt(10), Type: "percentage"},
		},
		VATPercentage: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	assert.Equal(t, "200", resp.Subtotal.String())
	assert.Equal(t, "50", resp.ChargesTotal.String())
	assert.Equal(t, "20", resp.DiscountTotal.String())
	assert.Equal(t, "23", resp.VATAmount.String())
	assert.Equal(t, "253", resp.GrandTotal.String())
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, 30, resp.ValidityDays) // default

	wantNumber := fmt.Sprintf("Q-%d-%05d", time.Now().Year(), 1)
	assert.Equal(t, wantNumber, resp.QuoteNumber)
}

func TestCreateQuote_UnitPriceOverride(t *testing.T) {
	svc, _, clientRepo, itemRepo, _, _ := buildQuoteSvc()
	client := seedClient(clientRepo, "Bruno Diaz", "0300333444", nil)
	van := seedItem(itemRepo, "Van hour", 80)

	override := decimal.NewFromInt(60)
	resp, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID: client.ID.String(),
		Items: []dto.QuoteLineRequest{
			{ItemID: van.ID.String(), Quantity: 3, UnitPrice: &override},
		},
		VATPercentage: decimal.Zero,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "60", resp.Items[0].UnitPrice.String())
	assert.Equal(t, "180", resp.Items[0].TotalPrice.String())
	assert.Equal(t, "180", resp.GrandTotal.String())
}

func TestCreateQuote_InactiveItem(t *testing.T) {
	svc, _, clientRepo, itemRepo, _, _ := buildQuoteSvc()
	client := seedClient(clientRepo, "Carla Soto", "0300555666", nil)
	piano := seedItem(itemRepo, "Piano surcharge", 500)
	piano.Active = false

	_, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID:      client.ID.String(),
		Items:         []dto.QuoteLineRequest{{ItemID: piano.ID.String(), Quantity: 1}},
		VATPercentage: decimal.Zero,
	})
	assert.ErrorContains(t, err, "inactive")
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestCreateQuote_InactiveClient(t *testing.T) {
	svc, _, clientRepo, itemRepo, _, _ := buildQuoteSvc()
	client := seedClient(clientRepo, "Dora Ali", "0300777888", nil)
	client.Active = false
	box := seedItem(itemRepo, "Packing box", 100)

	_, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID:      client.ID.String(),
		Items:         []dto.QuoteLineRequest{{ItemID: box.ID.String(), Quantity: 1}},
		VATPercentage: decimal.Zero,
	})
	assert.ErrorContains(t, err, "inactive")
}

func TestCreateQuote_PercentageDiscountOver100(t *testing.T) {
	svc, _, clientRepo, itemRepo, _, _ := buildQuoteSvc()
	client := seedClient(clientRepo, "Eli Khan", "0300999000", nil)
	box := seedItem(itemRepo, "Packing box", 100)

	_, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID: client.ID.String(),
		Items:    []dto.QuoteLineRequest{{ItemID: box.ID.String(), Quantity: 1}},
		Discounts: []dto.DiscountRequest{
			{Description: "Everything free", Amount: decimal.NewFromInt(150), Type: "percentage"},
		},
		VATPercentage: decimal.Zero,
	})
	assert.ErrorContains(t, err, "must not exceed 100")
}

func TestUpdateQuote_RecomputesTotals(t *testing.T) {
	svc, _, clientRepo, itemRepo, _, _ := buildQuoteSvc()
	client := seedClient(clientRepo, "Fran Gil", "0301111222", nil)
	box := seedItem(itemRepo, "Packing box", 100)

	created, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID:      client.ID.String(),
		Items:         []dto.QuoteLineRequest{{ItemID: box.ID.String(), Quantity: 1}},
		VATPercentage: decimal.Zero,
	})
	require.NoError(t, err)
	assert.Equal(t, "100", created.GrandTotal.String())

	updated, err := svc.Update(context.Background(), uuid.MustParse(created.ID), dto.UpdateQuoteRequest{
		Items:         []dto.QuoteLineRequest{{ItemID: box.ID.String(), Quantity: 5}},
		VATPercentage: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.Equal(t, "500", updated.Subtotal.String())
	assert.Equal(t, "100", updated.VATAmount.String())
	assert.Equal(t, "600", updated.GrandTotal.String())
	// Number and status survive the edit
	assert.Equal(t, created.QuoteNumber, updated.QuoteNumber)
	assert.Equal(t, "draft", updated.Status)
}

func TestSendQuoteEmail_NoRecipient(t *testing.T) {
	svc, _, clientRepo, itemRepo, renderer, _ := buildQuoteSvc()
	client := seedClient(clientRepo, "Gus Mora", "0302222333", nil) // no email
	box := seedItem(itemRepo, "Packing box", 100)

	created, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID:      client.ID.String(),
		Items:         []dto.QuoteLineRequest{{ItemID: box.ID.String(), Quantity: 1}},
		VATPercentage: decimal.Zero,
	})
	require.NoError(t, err)

	_, err = svc.SendEmail(context.Background(), uuid.MustParse(created.ID), dto.SendQuoteEmailRequest{})
	assert.ErrorContains(t, err, "no recipient")
	// Recipient is resolved before rendering: no PDF was produced
	assert.Equal(t, 0, renderer.calls)
}

func TestSendQuoteEmail_OverrideRecipient(t *testing.T) {
	svc, quoteRepo, clientRepo, itemRepo, _, mailer := buildQuoteSvc()
	client := seedClient(clientRepo, "Hana Reyes", "0303333444", strPtr("hana@example.com"))
	box := seedItem(itemRepo, "Packing box", 100)

	created, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID:      client.ID.String(),
		Items:         []dto.QuoteLineRequest{{ItemID: box.ID.String(), Quantity: 1}},
		VATPercentage: decimal.Zero,
	})
	require.NoError(t, err)

	resp, err := svc.SendEmail(context.Background(), uuid.MustParse(created.ID), dto.SendQuoteEmailRequest{
		Email: strPtr("partner@example.com"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	assert.Equal(t, "partner@example.com", resp.SentTo)
	assert.Nil(t, resp.Warning)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "partner@example.com", mailer.sent[0].To)
	assert.NotEmpty(t, mailer.sent[0].PDFPath)

	stored := quoteRepo.quotes[uuid.MustParse(created.ID)]
	assert.Equal(t, "sent", stored.Status)
	require.NotNil(t, stored.EmailSentTo)
	assert.Equal(t, "partner@example.com", *stored.EmailSentTo)
}

func TestSendQuoteEmail_RenderFailure(t *testing.T) {
	svc, _, clientRepo, itemRepo, renderer, mailer := buildQuoteSvc()
	client := seedClient(clientRepo, "Iris Vega", "0304444555", strPtr("iris@example.com"))
	box := seedItem(itemRepo, "Packing box", 100)

	created, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID:      client.ID.String(),
		Items:         []dto.QuoteLineRequest{{ItemID: box.ID.String(), Quantity: 1}},
		VATPercentage: decimal.Zero,
	})
	require.NoError(t, err)

	renderer.fail = errors.New("font missing")
	_, err = svc.SendEmail(context.Background(), uuid.MustParse(created.ID), dto.SendQuoteEmailRequest{})
	assert.ErrorContains(t, err, "failed to render")
	assert.True(t, apierror.IsKind(err, apierror.KindDependency))
	assert.Empty(t, mailer.sent)
}

func TestSendQuoteEmail_PersistFailureReportsWarning(t *testing.T) {
	svc, quoteRepo, clientRepo, itemRepo, _, mailer := buildQuoteSvc()
	client := seedClient(clientRepo, "Joel Nash", "0305555666", strPtr("joel@example.com"))
	box := seedItem(itemRepo, "Packing box", 100)

	created, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID:      client.ID.String(),
		Items:         []dto.QuoteLineRequest{{ItemID: box.ID.String(), Quantity: 1}},
		VATPercentage: decimal.Zero,
	})
	require.NoError(t, err)

	quoteRepo.sendStateErr = errors.New("connection reset")
	resp, err := svc.SendEmail(context.Background(), uuid.MustParse(created.ID), dto.SendQuoteEmailRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	require.NotNil(t, resp.Warning)
	assert.Contains(t, *resp.Warning, "email sent")
	assert.Len(t, mailer.sent, 1)
}

func TestDeleteQuote_NotFound(t *testing.T) {
	svc, _, _, _, _, _ := buildQuoteSvc()
	err := svc.Delete(context.Background(), uuid.New())
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestCreateQuote_UnknownItemIsNotFound(t *testing.T) {
	svc, _, clientRepo, _, _, _ := buildQuoteSvc()
	client := seedClient(clientRepo, "Eli Nasser", "0300999000", nil)

	_, err := svc.Create(context.Background(), dto.CreateQuoteRequest{
		ClientID:      client.ID.String(),
		Items:         []dto.QuoteLineRequest{{ItemID: uuid.New().String(), Quantity: 1}},
		VATPercentage: decimal.Zero,
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
	assert.ErrorContains(t, err, "items[0]")
}
