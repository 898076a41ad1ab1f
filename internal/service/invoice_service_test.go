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

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubInvoiceRepo is an in-memory InvoiceRepository for testing.
type stubInvoiceRepo struct {
	invoices  map[uuid.UUID]*model.Invoice
	byBooking map[uuid.UUID]*model.Invoice
	seq       int
	updateErr error
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{
		invoices:  make(map[uuid.UUID]*model.Invoice),
		byBooking: make(map[uuid.UUID]*model.Invoice),
	}
}

func (r *stubInvoiceRepo) CreateTx(_ *gorm.DB, inv *model.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.invoices[inv.ID] = inv
	r.byBooking[inv.BookingID] = inv
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *stubInvoiceRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.byBooking[bookingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *stubInvoiceRepo) Update(_ context.Context, inv *model.Invoice) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.invoices[inv.ID] = inv
	r.byBooking[inv.BookingID] = inv
	return nil
}

func (r *stubInvoiceRepo) List(_ context.Context, _ dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	out := make([]model.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (r *stubInvoiceRepo) ListPendingPDFRetries(_ context.Context, _ time.Time, _ int) ([]model.Invoice, error) {
	return nil, nil
}

func (r *stubInvoiceRepo) NextInvoiceNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

func buildInvoiceSvc() (service.InvoiceService, *stubInvoiceRepo, *stubBookingRepo, *stubMailer, *stubEnqueuer) {
	invoiceRepo := newStubInvoiceRepo()
	bookingRepo := newStubBookingRepo()
	mailer := &stubMailer{}
	enqueuer := &stubEnqueuer{}
	svc := service.NewInvoiceService(invoiceRepo, bookingRepo, &stubRenderer{}, mailer, enqueuer)
	return svc, invoiceRepo, bookingRepo, mailer, enqueuer
}

// seedBooking places a completed-move style booking directly in the stub repo.
func seedBooking(repo *stubBookingRepo, email *string) *model.Booking {
	b := &model.Booking{
		ID:            uuid.New(),
		BookingNumber: "BK-2026-00007",
		ClientID:      uuid.New(),
		ClientName:    "Ada Varga",
		ClientPhone:   "0320111222",
		ClientEmail:   email,
		ShiftingDate:  time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Items: []model.BookingItem{
			{ItemID: uuid.New(), Name: "Crew hour", Quantity: 4, UnitPrice: decimal.NewFromInt(200), TotalPrice: decimal.NewFromInt(800), Unit: "hour"},
		},
		Charges: []model.BookingCharge{
			{Description: "Storage night", Amount: decimal.NewFromInt(200), Kind: "storage"},
		},
		VATPercentage:   decimal.NewFromInt(10),
		ItemsTotal:      decimal.NewFromInt(800),
		ChargesTotal:    decimal.NewFromInt(200),
		VATAmount:       decimal.NewFromInt(100),
		GrandTotal:      decimal.NewFromInt(1100),
		AdvanceAmount:   decimal.NewFromInt(300),
		RemainingAmount: decimal.NewFromInt(800),
		Status:          model.BookingCompleted,
	}
	repo.bookings[b.ID] = b
	return b
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateInvoice_SnapshotsAndTotals(t *testing.T) {
	svc, invoiceRepo, bookingRepo, _, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)

	resp, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{
		BookingID: b.ID.String(),
	})
	require.NoError(t, err)

	// subtotal = items + charges; total = subtotal + carried VAT
	assert.Equal(t, "1000", resp.Subtotal.String())
	assert.Equal(t, "100", resp.VATAmount.String())
	assert.Equal(t, "1100", resp.TotalAmount.String())
	assert.Equal(t, "300", resp.AmountPaid.String())
	assert.Equal(t, "800", resp.RemainingAmount.String())
	assert.Equal(t, "partial", resp.PaymentStatus)
	assert.Equal(t, "draft", resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Crew hour", resp.Items[0].Name)
	require.Len(t, resp.Charges, 1)

	wantNumber := fmt.Sprintf("INV-%d-%05d", time.Now().Year(), 1)
	assert.Equal(t, wantNumber, resp.InvoiceNumber)

	// The booking is marked invoiced inside the same operation
	assert.True(t, bookingRepo.bookings[b.ID].InvoiceGenerated)
	require.NotNil(t, bookingRepo.bookings[b.ID].InvoiceID)
	assert.Len(t, invoiceRepo.invoices, 1)
}

func TestCreateInvoice_DuplicateConflict(t *testing.T) {
	svc, invoiceRepo, bookingRepo, _, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)

	_, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)

	_, err = svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	assert.ErrorContains(t, err, "already has invoice")
	// The failed attempt created nothing
	assert.Len(t, invoiceRepo.invoices, 1)
}

func TestCreateInvoice_CancelledBooking(t *testing.T) {
	svc, _, bookingRepo, _, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)
	b.Status = model.BookingCancelled

	_, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	assert.ErrorContains(t, err, "cancelled")
}

func TestCreateInvoice_VATAmountIsCarriedNotRederived(t *testing.T) {
	svc, _, bookingRepo, _, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)
	// Deliberately inconsistent with the percentage: the stored figure wins
	b.VATAmount = decimal.NewFromInt(99)

	resp, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "99", resp.VATAmount.String())
	assert.Equal(t, "1099", resp.TotalAmount.String())
}

func TestCreateInvoice_AdvanceFallbackWhenNoHistory(t *testing.T) {
	svc, _, bookingRepo, _, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)
	b.PaymentHistory = nil
	b.AdvanceAmount = decimal.NewFromInt(1100)

	resp, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "1100", resp.AmountPaid.String())
	assert.Equal(t, "0", resp.RemainingAmount.String())
	assert.Equal(t, "paid", resp.PaymentStatus)
}

func TestCreateInvoice_PaymentHistoryOverridesAdvance(t *testing.T) {
	svc, _, bookingRepo, _, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)
	b.PaymentHistory = []model.Payment{
		{ID: uuid.New(), BookingID: b.ID, Amount: decimal.NewFromInt(400), Method: "cash", PaidAt: time.Now()},
		{ID: uuid.New(), BookingID: b.ID, Amount: decimal.NewFromInt(100), Method: "card", PaidAt: time.Now()},
	}

	resp, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "500", resp.AmountPaid.String())
	assert.Equal(t, "600", resp.RemainingAmount.String())
}

func TestCreateInvoice_EnqueuesPDFJob(t *testing.T) {
	svc, _, bookingRepo, _, enqueuer := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)

	_, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	assert.Len(t, enqueuer.pdfJobs, 1)
}

func TestCreateInvoice_EnqueueFailureDoesNotBlock(t *testing.T) {
	svc, invoiceRepo, bookingRepo, _, enqueuer := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)
	enqueuer.fail = errors.New("redis down")

	_, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	assert.Len(t, invoiceRepo.invoices, 1)
}

func TestCaptureSignature_OneWay(t *testing.T) {
	svc, invoiceRepo, bookingRepo, _, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)
	created, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	resp, err := svc.CaptureSignature(context.Background(), id, dto.SignatureRequest{
		Data:     "data:image/png;base64,iVBORw0KGgo=",
		SignedBy: "Ada Varga",
	})
	require.NoError(t, err)
	assert.True(t, resp.DeliveryConfirmed)
	require.NotNil(t, resp.Signature)
	assert.Equal(t, "Ada Varga", resp.Signature.SignedBy)

	stored := invoiceRepo.invoices[id]
	require.NotNil(t, stored.SignatureData)
	require.NotNil(t, stored.SignedAt)

	// A signed invoice cannot be re-signed
	_, err = svc.CaptureSignature(context.Background(), id, dto.SignatureRequest{
		Data:     "data:image/png;base64,other",
		SignedBy: "Someone Else",
	})
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	assert.Equal(t, "Ada Varga", *invoiceRepo.invoices[id].SignedBy)
}

func TestSendInvoiceEmail_NoRecipient(t *testing.T) {
	svc, _, bookingRepo, mailer, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, nil)
	created, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)

	_, err = svc.SendEmail(context.Background(), uuid.MustParse(created.ID), dto.SendInvoiceEmailRequest{})
	assert.ErrorContains(t, err, "no recipient")
	assert.Empty(t, mailer.sent)
}

func TestSendInvoiceEmail_Success(t *testing.T) {
	svc, invoiceRepo, bookingRepo, mailer, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, strPtr("ada@example.com"))
	created, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	resp, err := svc.SendEmail(context.Background(), id, dto.SendInvoiceEmailRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	assert.Equal(t, "ada@example.com", resp.SentTo)
	assert.Equal(t, "sent", resp.Status)
	require.Len(t, mailer.sent, 1)

	stored := invoiceRepo.invoices[id]
	assert.True(t, stored.EmailSent)
	assert.Equal(t, "sent", stored.Status)
	require.NotNil(t, stored.PDFPath)
}

func TestSendInvoiceEmail_TransportFailure(t *testing.T) {
	svc, invoiceRepo, bookingRepo, mailer, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, strPtr("ada@example.com"))
	created, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	mailer.fail = errors.New("550 relay refused")
	_, err = svc.SendEmail(context.Background(), id, dto.SendInvoiceEmailRequest{})
	assert.True(t, apierror.IsKind(err, apierror.KindDependency))
	assert.False(t, invoiceRepo.invoices[id].EmailSent)
	assert.Equal(t, "draft", invoiceRepo.invoices[id].Status)
}

func TestSendInvoiceEmail_PersistFailureReportsWarning(t *testing.T) {
	svc, invoiceRepo, bookingRepo, mailer, _ := buildInvoiceSvc()
	b := seedBooking(bookingRepo, strPtr("ada@example.com"))
	created, err := svc.CreateFromBooking(context.Background(), dto.CreateInvoiceRequest{BookingID: b.ID.String()})
	require.NoError(t, err)

	invoiceRepo.updateErr = errors.New("connection reset")
	resp, err := svc.SendEmail(context.Background(), uuid.MustParse(created.ID), dto.SendInvoiceEmailRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Sent)
	require.NotNil(t, resp.Warning)
	assert.Len(t, mailer.sent, 1)
}

func TestGetInvoice_NotFound(t *testing.T) {
	svc, _, _, _, _ := buildInvoiceSvc()
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}
