package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateInvoiceRequest struct {
	BookingID string  `json:"booking_id" validate:"required,uuid"`
	DueDate   *string `json:"due_date"   validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes"`
}

type SignatureRequest struct {
	// Data is the signature image payload (data-URL or base64 PNG)
	Data     string `json:"signature" validate:"required,min=1"`
	SignedBy string `json:"signed_by" validate:"required,min=1"`
}

type SendInvoiceEmailRequest struct {
	Email   *string `json:"email"   validate:"omitempty,email"`
	Message *string `json:"message"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type InvoiceFilter struct {
	ClientID      string `form:"client_id" validate:"omitempty,uuid"`
	Status        string `form:"status"    validate:"omitempty,oneof=draft sent paid overdue cancelled"`
	PaymentStatus string `form:"payment_status" validate:"omitempty,oneof=unpaid partial paid"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceLineResponse struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Unit       string          `json:"unit"`
}

type SignatureResponse struct {
	SignedBy string `json:"signed_by"`
	SignedAt string `json:"signed_at"`
}

type InvoiceResponse struct {
	ID                  string                `json:"id"`
	InvoiceNumber       string                `json:"invoice_number"`
	BookingID           string                `json:"booking_id"`
	ClientID            string                `json:"client_id"`
	ClientName          string                `json:"client_name"`
	ClientPhone         string                `json:"client_phone"`
	ClientEmail         *string               `json:"client_email"`
	Items               []InvoiceLineResponse `json:"items"`
	Charges             []ChargeResponse      `json:"extra_charges"`
	VATPercentage       decimal.Decimal       `json:"vat_percentage"`
	Subtotal            decimal.Decimal       `json:"subtotal"`
	VATAmount           decimal.Decimal       `json:"vat_amount"`
	TotalAmount         decimal.Decimal       `json:"total_amount"`
	AmountPaid          decimal.Decimal       `json:"amount_paid"`
	RemainingAmount     decimal.Decimal       `json:"remaining_amount"`
	PaymentStatus       string                `json:"payment_status"`
	Status              string                `json:"status"`
	DueDate             *string               `json:"due_date,omitempty"`
	Signature           *SignatureResponse    `json:"signature,omitempty"`
	DeliveryConfirmed   bool                  `json:"delivery_confirmed"`
	DeliveryConfirmedAt *string               `json:"delivery_confirmed_at,omitempty"`
	EmailSent           bool                  `json:"email_sent"`
	EmailSentAt         *string               `json:"email_sent_at,omitempty"`
	EmailSentTo         *string               `json:"email_sent_to,omitempty"`
	PDFUrl              *string               `json:"pdf_url,omitempty"`
	Notes               *string               `json:"notes"`
	CreatedAt           string                `json:"created_at"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
