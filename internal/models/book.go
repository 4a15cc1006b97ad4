package models

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// BookDB represents a book row joined with its category name
type BookDB struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Author          string     `json:"author" db:"author"`
	Description     string     `json:"description" db:"description"`
	PublicationYear *int       `json:"publication_year" db:"publication_year"`
	CoverImage      *string    `json:"cover_image" db:"cover_image"`     // Stored upload name, nil when no cover
	CategoryID      *uuid.UUID `json:"category_id" db:"category_id"`     // Nil when uncategorized
	CategoryName    *string    `json:"category_name" db:"category_name"` // Joined from categories
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`             // Owner
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// BookFilter narrows a book listing. Nil fields are not applied.
type BookFilter struct {
	CategoryID *uuid.UUID
	Search     *string
}

// BookInput holds the fields of a new book.
type BookInput struct {
	Title           string
	Author          string
	Description     string
	PublicationYear *int
	CategoryID      *uuid.UUID
	CoverImage      *string
}

// BookUpdate is a sparse update: only non-nil fields are written.
// CategoryID with Valid=false clears the category.
type BookUpdate struct {
	Title           *string
	Author          *string
	Description     *string
	PublicationYear *int
	CategoryID      *uuid.NullUUID
	CoverImage      *string
}

// IsEmpty reports whether the update carries no field at all.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.Description == nil &&
		u.PublicationYear == nil && u.CategoryID == nil && u.CoverImage == nil
}

// Upload is an uploaded cover image as received from the client.
type Upload struct {
	Filename    string    // Client-side file name
	ContentType string    // Declared media type
	Size        int64     // Declared size in bytes
	Body        io.Reader // File contents
}
