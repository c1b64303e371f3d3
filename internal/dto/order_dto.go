package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type SetOrderStatusRequest struct {
	Status int     `json:"status"`
	Notes  *string `json:"notes"`
}

type OrderResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderCode       string          `json:"order_code"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          int             `json:"status"`
	StatusDisplay   string          `json:"status_display"`
	StatusChangedAt *time.Time      `json:"status_changed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	Timeline        []TimelineEntry `json:"timeline,omitempty"`
}

// TimelineEntry is one audit row of an order's status history,
// newest first.
type TimelineEntry struct {
	OldStatus     *int      `json:"old_status"`
	NewStatus     int       `json:"new_status"`
	StatusDisplay string    `json:"status_display"`
	ChangedBy     *string   `json:"changed_by"`
	ChangeSource  string    `json:"change_source"`
	IPAddress     *string   `json:"ip_address"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}
