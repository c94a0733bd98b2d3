package model

import "time"

// Book represents one row of the books table.
// This is a pure domain model with no database-specific dependencies or tags.
// Every column except the identity is nullable, so non-id fields are
// pointers; nil means the column holds NULL.
type Book struct {
	ID            int64      `json:"id"`
	Title         *string    `json:"title"`
	Author        *string    `json:"author"`
	PublishedDate *time.Time `json:"publishedDate"`
	ImageURL      *string    `json:"imageUrl"`
	Description   *string    `json:"description"`
	CreatedBy     *string    `json:"createdBy"`
	CreatedByID   *string    `json:"createdById"`
}
