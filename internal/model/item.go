package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a catalog entry (packing box, van hour, piano surcharge, …).
// Reference data only: quantity and price are copied onto quote/booking line
// items at add time, so later catalog price changes never retroactively affect
// already-created documents.
type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	Category    string    `gorm:"not null"`
	Unit        string    `gorm:"not null;default:'unit'"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description *string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
