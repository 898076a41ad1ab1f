package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote statuses. Further values are reserved for future workflow states but
// only draft/sent are reachable today.
const (
	QuoteStatusDraft = "draft"
	QuoteStatusSent  = "sent"
)

// Quote is a priced offer for a client. All monetary totals are computed
// server-side from the embedded lines; client-submitted totals are ignored.
type Quote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteNumber string    `gorm:"uniqueIndex;not null"`
	ClientID    uuid.UUID `gorm:"type:uuid;index;not null"`
	// Snapshot of the client at quote time — never live-joined
	ClientName  string `gorm:"not null"`
	ClientPhone string `gorm:"not null"`
	ClientEmail *string

	Items     []QuoteItem     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Charges   []QuoteCharge   `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Discounts []QuoteDiscount `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`

	VATPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ChargesTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	VATAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Status          string `gorm:"type:varchar(20);not null;default:'draft'"`
	ValidityDays    int    `gorm:"not null;default:30"`
	Notes           *string
	TermsConditions *string

	EmailSentAt *time.Time
	EmailSentTo *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Client *Client `gorm:"foreignKey:ClientID"`
}

// QuoteItem is a line item with a price snapshot taken from the catalog.
// TotalPrice always equals Quantity × UnitPrice (recomputed on persist).
type QuoteItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null"`
	Name      string    `gorm:"not null"`
	Quantity  int       `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Unit      string `gorm:"not null;default:'unit'"`
	Notes     *string
	Position  int `gorm:"not null;default:0"`
}

// QuoteCharge is always additive to the taxable base.
// Kind is a free-text category: "delivery" | "packing" | "other" | …
type QuoteCharge struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Kind        string          `gorm:"type:varchar(30);not null;default:'other'"`
	Position    int             `gorm:"not null;default:0"`
}

// QuoteDiscount is subtracted from the taxable base before VAT. Percentage
// discounts are applied against the original item subtotal, never a running
// balance, so multiple discounts do not compound.
type QuoteDiscount struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Type        string          `gorm:"type:varchar(20);not null;default:'fixed'"`
	Position    int             `gorm:"not null;default:0"`
}
