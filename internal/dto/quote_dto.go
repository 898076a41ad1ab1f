package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// QuoteLineRequest references a catalog item. UnitPrice may be omitted, in
// which case the catalog base price is snapshotted; the line total is always
// recomputed server-side regardless of what the client submits.
type QuoteLineRequest struct {
	ItemID    string           `json:"item_id"    validate:"required,uuid"`
	Quantity  int              `json:"quantity"   validate:"min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Notes     *string          `json:"notes"`
}

type ChargeRequest struct {
	Description string          `json:"description" validate:"required,min=1"`
	Amount      decimal.Decimal `json:"amount"      validate:"min=0"`
	Kind        string          `json:"kind"`
}

type DiscountRequest struct {
	Description string          `json:"description" validate:"required,min=1"`
	Amount      decimal.Decimal `json:"amount"      validate:"min=0"`
	Type        string          `json:"type"        validate:"required,oneof=fixed percentage"`
}

type CreateQuoteRequest struct {
	ClientID        string             `json:"client_id"      validate:"required,uuid"`
	Items           []QuoteLineRequest `json:"items"          validate:"required,min=1,dive"`
	Charges         []ChargeRequest    `json:"additional_charges" validate:"dive"`
	Discounts       []DiscountRequest  `json:"discounts"      validate:"dive"`
	VATPercentage   decimal.Decimal    `json:"vat_percentage" validate:"min=0,max=100"`
	ValidityDays    int                `json:"validity_days"  validate:"omitempty,min=1"`
	Notes           *string            `json:"notes"`
	TermsConditions *string            `json:"terms_conditions"`
}

// UpdateQuoteRequest resubmits the full line/charge/discount sets; totals are
// recomputed from scratch.
type UpdateQuoteRequest struct {
	Items           []QuoteLineRequest `json:"items"          validate:"required,min=1,dive"`
	Charges         []ChargeRequest    `json:"additional_charges" validate:"dive"`
	Discounts       []DiscountRequest  `json:"discounts"      validate:"dive"`
	VATPercentage   decimal.Decimal    `json:"vat_percentage" validate:"min=0,max=100"`
	ValidityDays    *int               `json:"validity_days"  validate:"omitempty,min=1"`
	Notes           *string            `json:"notes"`
	TermsConditions *string            `json:"terms_conditions"`
}

type SendQuoteEmailRequest struct {
	// Email overrides the client snapshot address when present
	Email   *string `json:"email"   validate:"omitempty,email"`
	Message *string `json:"message"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type QuoteFilter struct {
	ClientID string `form:"client_id" validate:"omitempty,uuid"`
	Status   string `form:"status"    validate:"omitempty,oneof=draft sent"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type QuoteLineResponse struct {
	ItemID     string          `json:"item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Unit       string          `json:"unit"`
	Notes      *string         `json:"notes,omitempty"`
}

type ChargeResponse struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
}

type DiscountResponse struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
}

type QuoteResponse struct {
	ID              string              `json:"id"`
	QuoteNumber     string              `json:"quote_number"`
	ClientID        string              `json:"client_id"`
	ClientName      string              `json:"client_name"`
	ClientPhone     string              `json:"client_phone"`
	ClientEmail     *string             `json:"client_email"`
	Items           []QuoteLineResponse `json:"items"`
	Charges         []ChargeResponse    `json:"additional_charges"`
	Discounts       []DiscountResponse  `json:"discounts"`
	VATPercentage   decimal.Decimal     `json:"vat_percentage"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	ChargesTotal    decimal.Decimal     `json:"total_additional_charges"`
	DiscountTotal   decimal.Decimal     `json:"total_discount"`
	VATAmount       decimal.Decimal     `json:"vat_amount"`
	GrandTotal      decimal.Decimal     `json:"grand_total"`
	Status          string              `json:"status"`
	ValidityDays    int                 `json:"validity_days"`
	Notes           *string             `json:"notes"`
	TermsConditions *string             `json:"terms_conditions"`
	EmailSentAt     *string             `json:"email_sent_at,omitempty"`
	EmailSentTo     *string             `json:"email_sent_to,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

type QuoteListResponse struct {
	Data  []QuoteResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// SendEmailResponse reports email dispatch. Warning is set when the email
// objectively went out but a follow-up persist failed — success with caveat,
// never an opaque failure.
type SendEmailResponse struct {
	Sent    bool    `json:"sent"`
	SentTo  string  `json:"sent_to"`
	Status  string  `json:"status"`
	Warning *string `json:"warning,omitempty"`
}
