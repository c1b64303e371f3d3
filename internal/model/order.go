package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus codes follow the happy-path progression order numerically.
// The mutation API accepts any assignment except Cancelled from Shipped
// or Delivered; side effects are coupled to specific transitions in the
// order service.
type OrderStatus int

const (
	StatusPending    OrderStatus = 0
	StatusConfirmed  OrderStatus = 10
	StatusProcessing OrderStatus = 20
	StatusShipped    OrderStatus = 30
	StatusDelivered  OrderStatus = 40
	StatusCancelled  OrderStatus = 50
)

var statusNames = map[OrderStatus]string{
	StatusPending:    "Pending",
	StatusConfirmed:  "Confirmed",
	StatusProcessing: "Processing",
	StatusShipped:    "Shipped",
	StatusDelivered:  "Delivered",
	StatusCancelled:  "Cancelled",
}

func (s OrderStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

// Valid reports whether s is one of the declared status codes.
func (s OrderStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Order is a single-product purchase. OrderCode is generated at creation
// and immutable; UnitPrice and TotalPrice are snapshots fixed at creation.
type Order struct {
	SoftDeleteBase

	OrderCode string `gorm:"size:50;uniqueIndex;not null" json:"order_code"`

	// PROTECT: a product cannot be deleted while orders reference it.
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`

	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`

	Status          OrderStatus `gorm:"not null;default:0;index" json:"status"`
	StatusChangedAt *time.Time  `json:"status_changed_at"`

	// Owned collection, cascade-deleted with the order.
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Order) TableName() string { return "orders" }

// NewOrderCode returns "ORD-" plus 10 random uppercase hex chars.
func NewOrderCode() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:10])
}
