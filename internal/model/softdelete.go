package model

import (
	"time"

	"github.com/google/uuid"
)

// DeleteStatus marks a record as logically removed. Records are never
// physically deleted; default repository queries filter on NotDeleted.
type DeleteStatus int

const (
	NotDeleted DeleteStatus = 0
	Deleted    DeleteStatus = 1
)

// SoftDeleteBase carries the shared identity and soft-delete fields
// embedded by every catalog entity.
type SoftDeleteBase struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DeleteStatus DeleteStatus `gorm:"not null;default:0;index" json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsDeleted reports whether the record has been soft deleted.
func (b SoftDeleteBase) IsDeleted() bool { return b.DeleteStatus == Deleted }
