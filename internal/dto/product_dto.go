package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name            string          `json:"name" validate:"required,max=255"`
	Code            string          `json:"code" validate:"required,max=50"`
	Description     string          `json:"description"`
	CategoryID      string          `json:"category_id" validate:"required,uuid"`
	BasePrice       decimal.Decimal `json:"base_price" validate:"min=0"`
	DiscountPercent int             `json:"discount_percent" validate:"min=0,max=100"`
	StockQuantity   int             `json:"stock_quantity" validate:"min=0"`
	Active          *bool           `json:"active"`
}

type UpdateProductRequest struct {
	Name            *string          `json:"name" validate:"omitempty,max=255"`
	Description     *string          `json:"description"`
	CategoryID      *string          `json:"category_id" validate:"omitempty,uuid"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	DiscountPercent *int             `json:"discount_percent"`
	Active          *bool            `json:"active"`
}

type AdjustStockRequest struct {
	// Delta is positive to receive stock, negative to remove it.
	Delta int `json:"delta" validate:"required"`
}

type ProductResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Code            string          `json:"code"`
	Description     string          `json:"description"`
	CategoryID      uuid.UUID       `json:"category_id"`
	BasePrice       decimal.Decimal `json:"base_price"`
	DiscountPercent int             `json:"discount_percent"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	StockQuantity   int             `json:"stock_quantity"`
	InStock         bool            `json:"in_stock"`
	Active          bool            `json:"active"`
}

// PriceCheckResponse is the public, cacheable price lookup payload.
type PriceCheckResponse struct {
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	BasePrice  decimal.Decimal `json:"base_price"`
	FinalPrice decimal.Decimal `json:"final_price"`
	InStock    bool            `json:"in_stock"`
}
