package model

import (
	"time"

	"github.com/google/uuid"
)

// ChangeSource is the channel that triggered a status change.
type ChangeSource string

const (
	SourceAPI    ChangeSource = "api"
	SourceAdmin  ChangeSource = "admin"
	SourceSystem ChangeSource = "system"
)

// OrderStatusHistory is an append-only audit row. Rows are never updated
// or deleted from the application layer; they only go away through the
// CASCADE when their parent order is physically removed.
type OrderStatusHistory struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`

	// OldStatus is null only for the initial creation record.
	OldStatus *OrderStatus `json:"old_status"`
	NewStatus OrderStatus  `gorm:"not null" json:"new_status"`

	ChangedBy    *string      `gorm:"size:100" json:"changed_by"`
	ChangeSource ChangeSource `gorm:"size:20;not null;default:'system';index" json:"change_source"`
	IPAddress    *string      `gorm:"size:45" json:"ip_address"`
	Notes        *string      `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
