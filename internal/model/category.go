package model

import "github.com/google/uuid"

// Category is a node in the product category tree. ParentID is a nullable
// self-reference; the parent chain is kept acyclic by the category service
// (validated before any write, never repaired after the fact).
type Category struct {
	SoftDeleteBase

	Name        string  `gorm:"size:255;not null;index" json:"name"`
	Description *string `json:"description"`

	// SET NULL on physical parent deletion; logical deletion cascades
	// through the service instead of the constraint.
	ParentID *uuid.UUID `gorm:"type:uuid;index;constraint:OnDelete:SET NULL" json:"parent_id"`
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"-"`

	ImageURL *string `json:"image_url"`
	Active   bool    `gorm:"not null;default:true;index" json:"active"`
}

func (Category) TableName() string { return "categories" }
