package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer record. Quotes, bookings and invoices keep their own
// snapshot of name/phone/email taken at creation time — editing a client never
// rewrites documents already issued against it.
type Client struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name  string    `gorm:"index;not null"`
	Phone string    `gorm:"uniqueIndex;not null"`
	Email *string
	// Address is the client's default address; bookings carry their own
	// pickup/delivery addresses.
	Address   *string
	Notes     *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
