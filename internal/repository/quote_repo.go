package repository

import (
	"context"
	"time"

	"moveops/internal/dto"
	"moveops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuoteRepository interface {
	Create(ctx context.Context, q *model.Quote) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	// Update replaces the quote and its line/charge/discount sets atomically.
	Update(ctx context.Context, q *model.Quote) error
	// UpdateSendState persists the sent status and email audit fields only.
	UpdateSendState(ctx context.Context, id uuid.UUID, status string, sentAt time.Time, sentTo string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.QuoteFilter) ([]model.Quote, int64, error)
	NextQuoteNumber(ctx context.Context) (int, error)
	DB() *gorm.DB
}

type quoteRepo struct{ db *gorm.DB }

func NewQuoteRepository(db *gorm.DB) QuoteRepository { return &quoteRepo{db: db} }

func (r *quoteRepo) DB() *gorm.DB { return r.db }

func (r *quoteRepo) Create(ctx context.Context, q *model.Quote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *quoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var q model.Quote
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Charges", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Discounts", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&q, id).Error
	return &q, err
}

func (r *quoteRepo) Update(ctx context.Context, q *model.Quote) error {
	// Child sets are replaced wholesale: delete and re-insert inside one tx
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", q.ID).Delete(&model.QuoteItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", q.ID).Delete(&model.QuoteCharge{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", q.ID).Delete(&model.QuoteDiscount{}).Error; err != nil {
			return err
		}
		return tx.Save(q).Error
	})
}

func (r *quoteRepo) UpdateSendState(ctx context.Context, id uuid.UUID, status string, sentAt time.Time, sentTo string) error {
	return r.db.WithContext(ctx).Model(&model.Quote{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"email_sent_at": sentAt,
			"email_sent_to": sentTo,
		}).Error
}

func (r *quoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Quote{}, id).Error
}

func (r *quoteRepo) List(ctx context.Context, filter dto.QuoteFilter) ([]model.Quote, int64, error) {
	var quotes []model.Quote
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Quote{})

	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").Preload("Charges").Preload("Discounts").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&quotes).Error
	return quotes, total, err
}

func (r *quoteRepo) NextQuoteNumber(ctx context.Context) (int, error) {
	// PostgreSQL sequence for atomic document numbering
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('quote_number_seq')").Scan(&num).Error
	return num, err
}
