package models

// Book event operations.
const (
	BookCreated = "created"
	BookUpdated = "updated"
	BookDeleted = "deleted"
)

// BookEvent describes a change to a book, published after the change is stored.
type BookEvent struct {
	EventID   string `json:"event_id"`  // Unique event identifier
	Timestamp int64  `json:"timestamp"` // Unix seconds
	BookID    string `json:"book_id"`
	UserID    string `json:"user_id"` // Owner of the book
	Operation string `json:"operation"`
}
