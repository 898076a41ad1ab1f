package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Payment statuses — always derived from AmountPaid vs TotalAmount, never
// trusted from caller input.
const (
	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
)

// Invoice is derived exactly once from a booking (1:1, enforced at creation).
// Items, charges and the VAT amount are snapshots copied from the booking;
// they are intentionally NOT re-synced when the booking changes afterwards.
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber string    `gorm:"uniqueIndex;not null"`
	BookingID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ClientID      uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientName    string    `gorm:"not null"`
	ClientPhone   string    `gorm:"not null"`
	ClientEmail   *string

	Items   []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Charges []InvoiceCharge `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	VATPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// VATAmount is carried over from the booking at creation time, not
	// recomputed from VATPercentage.
	VATAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// AmountPaid reflects the booking's payment history at creation time.
	AmountPaid      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null;default:'unpaid'"`

	Status  string     `gorm:"type:varchar(20);not null;default:'draft'"`
	DueDate *time.Time

	// Digital signature — one-way delivery confirmation
	SignatureData        *string `gorm:"type:text"`
	SignedBy             *string
	SignedAt             *time.Time
	DeliveryConfirmed    bool `gorm:"not null;default:false"`
	DeliveryConfirmedAt  *time.Time

	EmailSent   bool `gorm:"not null;default:false"`
	EmailSentAt *time.Time
	EmailSentTo *string

	// PDFPath is relative to PDF_STORAGE_PATH; filled by the archival worker
	PDFPath *string
	// Retry fields — used by the retry cron to re-attempt failed PDF archivals
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time
	LastError   *string

	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	Booking *Booking `gorm:"foreignKey:BookingID"`
	Client  *Client  `gorm:"foreignKey:ClientID"`
}

// InvoiceItem is a snapshot of a booking line item with internal ids dropped.
type InvoiceItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"not null"`
	Quantity   int       `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Unit       string `gorm:"not null;default:'unit'"`
	Position   int    `gorm:"not null;default:0"`
}

// InvoiceCharge is a snapshot of a booking extra charge.
type InvoiceCharge struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Kind        string          `gorm:"type:varchar(30);not null;default:'other'"`
	Position    int             `gorm:"not null;default:0"`
}
