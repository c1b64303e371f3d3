package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item. StockQuantity never goes negative:
// every decrement runs as a conditional UPDATE at the storage layer.
type Product struct {
	SoftDeleteBase

	Name        string `gorm:"size:255;not null;index" json:"name"`
	Code        string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Description string `json:"description"`

	// PROTECT: a category cannot be deleted while products reference it.
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`

	BasePrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"base_price"`
	DiscountPercent int             `gorm:"not null;default:0" json:"discount_percent"`
	StockQuantity   int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`

	Active bool `gorm:"not null;default:true;index" json:"active"`
}

func (Product) TableName() string { return "products" }

// FinalPrice applies the discount in decimal arithmetic rounded to 2
// places. Floating point is a correctness bug here, not cosmetic.
func (p Product) FinalPrice() decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - p.DiscountPercent))
	return p.BasePrice.Mul(factor).Div(decimal.NewFromInt(100)).Round(2)
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.StockQuantity > 0 }
