package dto

import "github.com/google/uuid"

type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Active      *bool   `json:"active"`
}

// UpdateCategoryRequest uses pointer-means-unchanged semantics. ParentID
// set to the empty string detaches the category from its parent.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id" validate:"omitempty"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Active      *bool   `json:"active"`
}

type CategoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ImageURL    *string    `json:"image_url"`
	Active      bool       `json:"active"`
	Deleted     bool       `json:"deleted,omitempty"`
}
