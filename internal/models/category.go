package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryDB represents a category row in the database
type CategoryDB struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CategoryWithCount is a category with the number of books referencing it.
type CategoryWithCount struct {
	CategoryDB
	BookCount int64 `json:"book_count" db:"book_count"`
}
