package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateItemRequest struct {
	Name        string          `json:"name"       validate:"required,min=2,max=120"`
	Category    string          `json:"category"   validate:"required"`
	Unit        string          `json:"unit"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"min=0"`
	Description *string         `json:"description"`
}

type UpdateItemRequest struct {
	Name        *string          `json:"name"       validate:"omitempty,min=2,max=120"`
	Category    *string          `json:"category"`
	Unit        *string          `json:"unit"`
	BasePrice   *decimal.Decimal `json:"base_price"`
	Description *string          `json:"description"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ItemFilter struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Description *string         `json:"description"`
	Active      bool            `json:"active"`
}

type ItemListResponse struct {
	Data  []ItemResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
