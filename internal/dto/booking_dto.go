package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type BookingLineRequest struct {
	ItemID    string           `json:"item_id"    validate:"required,uuid"`
	Quantity  int              `json:"quantity"   validate:"min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Notes     *string          `json:"notes"`
}

type CreateBookingRequest struct {
	ClientID string `json:"client_id" validate:"required,uuid"`
	// QuoteID links the booking back to the quote it was accepted from
	QuoteID             *string              `json:"quote_id" validate:"omitempty,uuid"`
	ShiftingDate        string               `json:"shifting_date" validate:"required,datetime=2006-01-02"`
	ShiftingTime        string               `json:"shifting_time"`
	PickupAddress       string               `json:"pickup_address"   validate:"required,min=3"`
	DeliveryAddress     string               `json:"delivery_address" validate:"required,min=3"`
	Items               []BookingLineRequest `json:"items"          validate:"required,min=1,dive"`
	Charges             []ChargeRequest      `json:"extra_charges"  validate:"dive"`
	VATPercentage       decimal.Decimal      `json:"vat_percentage" validate:"min=0,max=100"`
	AdvanceAmount       decimal.Decimal      `json:"advance_amount" validate:"min=0"`
	AssignedStaff       *string              `json:"assigned_staff"`
	Notes               *string              `json:"notes"`
	SpecialInstructions *string              `json:"special_instructions"`
}

type UpdateBookingRequest struct {
	ShiftingDate        *string              `json:"shifting_date" validate:"omitempty,datetime=2006-01-02"`
	ShiftingTime        *string              `json:"shifting_time"`
	PickupAddress       *string              `json:"pickup_address"   validate:"omitempty,min=3"`
	DeliveryAddress     *string              `json:"delivery_address" validate:"omitempty,min=3"`
	Items               []BookingLineRequest `json:"items"          validate:"omitempty,min=1,dive"`
	Charges             []ChargeRequest      `json:"extra_charges"  validate:"dive"`
	VATPercentage       *decimal.Decimal     `json:"vat_percentage"`
	AssignedStaff       *string              `json:"assigned_staff"`
	Notes               *string              `json:"notes"`
	SpecialInstructions *string              `json:"special_instructions"`
}

type BookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed in_progress completed cancelled"`
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Method string          `json:"payment_method" validate:"required,oneof=cash card bank_transfer cheque other"`
	// Date in YYYY-MM-DD; empty = today
	Date  string  `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Notes *string `json:"notes"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type BookingFilter struct {
	ClientID string `form:"client_id" validate:"omitempty,uuid"`
	Status   string `form:"status"` // one of the five states or "all"
	Date     string `form:"date"`   // shifting date YYYY-MM-DD
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PaymentResponse struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt string          `json:"paid_at"`
	Notes  *string         `json:"notes,omitempty"`
}

// LegacyPayment mirrors the old flat `payments` array shape consumed by
// pre-existing readers. Built at read time from the canonical payment
// history — never written as a second stored array.
type LegacyPayment struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"paymentMethod"`
	Date   string          `json:"paymentDate"`
}

type BookingResponse struct {
	ID                  string              `json:"id"`
	BookingNumber       string              `json:"booking_number"`
	ClientID            string              `json:"client_id"`
	ClientName          string              `json:"client_name"`
	ClientPhone         string              `json:"client_phone"`
	ClientEmail         *string             `json:"client_email"`
	QuoteID             *string             `json:"quote_id,omitempty"`
	ShiftingDate        string              `json:"shifting_date"`
	ShiftingTime        string              `json:"shifting_time"`
	PickupAddress       string              `json:"pickup_address"`
	DeliveryAddress     string              `json:"delivery_address"`
	Items               []QuoteLineResponse `json:"items"`
	Charges             []ChargeResponse    `json:"extra_charges"`
	VATPercentage       decimal.Decimal     `json:"vat_percentage"`
	ItemsTotal          decimal.Decimal     `json:"items_total"`
	ChargesTotal        decimal.Decimal     `json:"charges_total"`
	VATAmount           decimal.Decimal     `json:"vat_amount"`
	GrandTotal          decimal.Decimal     `json:"total_amount"`
	AdvanceAmount       decimal.Decimal     `json:"advance_amount"`
	RemainingAmount     decimal.Decimal     `json:"remaining_amount"`
	PaymentHistory      []PaymentResponse   `json:"payment_history"`
	Payments            []LegacyPayment     `json:"payments"`
	Status              string              `json:"status"`
	AssignedStaff       *string             `json:"assigned_staff"`
	Notes               *string             `json:"notes"`
	SpecialInstructions *string             `json:"special_instructions"`
	InvoiceGenerated    bool                `json:"invoice_generated"`
	InvoiceID           *string             `json:"invoice_id,omitempty"`
	CreatedAt           string              `json:"created_at"`
	UpdatedAt           string              `json:"updated_at"`
}

type BookingListResponse struct {
	Data  []BookingResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
