package repository

import (
	"context"

	"moveops/internal/dto"
	"moveops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	Create(ctx context.Context, b *model.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Update replaces the booking and its item/charge sets atomically.
	Update(ctx context.Context, b *model.Booking) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// AppendPayment serializes concurrent payment recording per booking: the
	// booking row is locked (SELECT … FOR UPDATE) for the duration of the
	// append + recompute + write, so two simultaneous appends cannot both
	// read the same history and lose an update.
	AppendPayment(ctx context.Context, id uuid.UUID, p *model.Payment, recompute func(b *model.Booking)) (*model.Booking, error)
	// MarkInvoiceGenerated runs inside the invoice-creation transaction.
	MarkInvoiceGeneratedTx(tx *gorm.DB, bookingID, invoiceID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.BookingFilter) ([]model.Booking, int64, error)
	NextBookingNumber(ctx context.Context) (int, error)
	DB() *gorm.DB
}

type bookingRepo struct{ db *gorm.DB }

func NewBookingRepository(db *gorm.DB) BookingRepository { return &bookingRepo{db: db} }

func (r *bookingRepo) DB() *gorm.DB { return r.db }

func (r *bookingRepo) Create(ctx context.Context, b *model.Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *bookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Charges", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("PaymentHistory", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC, created_at ASC") }).
		First(&b, id).Error
	return &b, err
}

func (r *bookingRepo) Update(ctx context.Context, b *model.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", b.ID).Delete(&model.BookingItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", b.ID).Delete(&model.BookingCharge{}).Error; err != nil {
			return err
		}
		b.Version++
		return tx.Omit("PaymentHistory").Save(b).Error
	})
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Booking{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		}).Error
}

func (r *bookingRepo) AppendPayment(ctx context.Context, id uuid.UUID, p *model.Payment, recompute func(b *model.Booking)) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error; err != nil {
			return err
		}
		if err := tx.Preload("PaymentHistory").First(&b, id).Error; err != nil {
			return err
		}

		p.BookingID = id
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		b.PaymentHistory = append(b.PaymentHistory, *p)

		recompute(&b)

		return tx.Model(&model.Booking{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"advance_amount":   b.AdvanceAmount,
				"remaining_amount": b.RemainingAmount,
				"version":          gorm.Expr("version + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) MarkInvoiceGeneratedTx(tx *gorm.DB, bookingID, invoiceID uuid.UUID) error {
	return tx.Model(&model.Booking{}).Where("id = ?", bookingID).
		Updates(map[string]interface{}{
			"invoice_generated": true,
			"invoice_id":        invoiceID,
			"version":           gorm.Expr("version + 1"),
		}).Error
}

func (r *bookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Booking{}, id).Error
}

func (r *bookingRepo) List(ctx context.Context, filter dto.BookingFilter) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Booking{})

	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(shifting_date) = ?", filter.Date)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").Preload("Charges").Preload("PaymentHistory").
		Order("shifting_date DESC, created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&bookings).Error
	return bookings, total, err
}

func (r *bookingRepo) NextBookingNumber(ctx context.Context) (int, error) {
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('booking_number_seq')").Scan(&num).Error
	return num, err
}
