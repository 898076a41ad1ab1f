package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking statuses.
const (
	BookingPending    = "pending"
	BookingConfirmed  = "confirmed"
	BookingInProgress = "in_progress"
	BookingCompleted  = "completed"
	BookingCancelled  = "cancelled"
)

// bookingTransitions encodes the booking state machine. completed and
// cancelled are terminal; cancellation is reachable from any active state.
var bookingTransitions = map[string][]string{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted, BookingCancelled},
	BookingCompleted:  {},
	BookingCancelled:  {},
}

// ValidBookingStatus reports whether s is one of the five booking states.
func ValidBookingStatus(s string) bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionBooking reports whether from→to is an allowed status change.
func CanTransitionBooking(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking is a scheduled move. Totals are recomputed server-side whenever
// items, charges or the VAT percentage change.
type Booking struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookingNumber string    `gorm:"uniqueIndex;not null"`
	ClientID      uuid.UUID `gorm:"type:uuid;index;not null"`
	// Snapshot of the client at booking time
	ClientName  string `gorm:"not null"`
	ClientPhone string `gorm:"not null"`
	ClientEmail *string
	// QuoteID is an optional provenance link to the quote this booking came from
	QuoteID *uuid.UUID `gorm:"type:uuid;index"`

	ShiftingDate    time.Time `gorm:"not null"`
	ShiftingTime    string    `gorm:"type:varchar(10)"`
	PickupAddress   string    `gorm:"not null"`
	DeliveryAddress string    `gorm:"not null"`

	Items   []BookingItem   `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	Charges []BookingCharge `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`

	VATPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	ItemsTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ChargesTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	VATAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// AdvanceAmount tracks total recorded payments; kept equal to the sum of
	// PaymentHistory after every append.
	AdvanceAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	PaymentHistory []Payment `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`

	Status              string `gorm:"type:varchar(20);not null;default:'pending';index"`
	AssignedStaff       *string
	Notes               *string
	SpecialInstructions *string

	InvoiceGenerated bool       `gorm:"not null;default:false"`
	InvoiceID        *uuid.UUID `gorm:"type:uuid"`

	// Version supports optimistic concurrency for callers that cannot hold a
	// row lock (the repository increments it on every write).
	Version   int `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Client *Client `gorm:"foreignKey:ClientID"`
	Quote  *Quote  `gorm:"foreignKey:QuoteID"`
}

// BookingItem mirrors QuoteItem: a catalog price snapshot with a server-side
// recomputed TotalPrice.
type BookingItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookingID  uuid.UUID `gorm:"type:uuid;index;not null"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null"`
	Name       string    `gorm:"not null"`
	Quantity   int       `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Unit       string `gorm:"not null;default:'unit'"`
	Notes      *string
	Position   int `gorm:"not null;default:0"`
}

// BookingCharge is an extra charge added on top of the item subtotal
// (long carry, stairs, storage night, …).
type BookingCharge struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookingID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Kind        string          `gorm:"type:varchar(30);not null;default:'other'"`
	Position    int             `gorm:"not null;default:0"`
}

// Payment is an immutable entry in a booking's payment history. Entries are
// never modified or deleted; corrections are recorded as new entries.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookingID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Method: "cash" | "card" | "bank_transfer" | "cheque" | "other"
	Method    string    `gorm:"type:varchar(20);not null"`
	PaidAt    time.Time `gorm:"not null"`
	Notes     *string
	CreatedAt time.Time
}
