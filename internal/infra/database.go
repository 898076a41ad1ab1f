package infra

import (
	"fmt"

	"moveops/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all entities, then creates the document-number sequences that GORM
// cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway Postgres container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.Item{},
		&model.Quote{},
		&model.QuoteItem{},
		&model.QuoteCharge{},
		&model.QuoteDiscount{},
		&model.Booking{},
		&model.BookingItem{},
		&model.BookingCharge{},
		&model.Payment{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.InvoiceCharge{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// Document numbers (Q-YYYY-NNNN etc.) draw from Postgres sequences for
	// atomic generation — never supplied by callers.
	sequences := []string{
		`CREATE SEQUENCE IF NOT EXISTS quote_number_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS booking_number_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS invoice_number_seq START 1`,
	}
	for _, s := range sequences {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("create sequence: %w", err)
		}
	}
	return nil
}
