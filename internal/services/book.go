package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/logger"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
	"github.com/sbilibin2017/gw-book-collection/internal/repositories"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=book.go -destination=book_mock.go -package=services

var (
	// ErrValidation is returned when input fails a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrBookNotFound is returned for absent books and books owned by someone else.
	ErrBookNotFound = errors.New("book not found")
)

func errorf(sentinel error, msg string) error {
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// BookReader defines owner-scoped book reads.
type BookReader interface {
	List(ctx context.Context, userID uuid.UUID, filter models.BookFilter) ([]models.BookDB, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.BookDB, error)
}

// BookWriter defines owner-scoped book writes.
type BookWriter interface {
	Create(ctx context.Context, userID uuid.UUID, in models.BookInput) (uuid.UUID, error)
	Update(ctx context.Context, id, userID uuid.UUID, upd models.BookUpdate) (bool, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// FileStorage stores cover images.
type FileStorage interface {
	Save(ctx context.Context, upload models.Upload) (string, error)
	Remove(ctx context.Context, name string) error
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// BookService manages a user's books and their cover images.
type BookService struct {
	reader      BookReader
	writer      BookWriter
	files       FileStorage
	kafkaWriter KafkaWriter // nil disables events
}

// NewBookService creates a new BookService.
func NewBookService(reader BookReader, writer BookWriter, files FileStorage, kafkaWriter KafkaWriter) *BookService {
	return &BookService{
		reader:      reader,
		writer:      writer,
		files:       files,
		kafkaWriter: kafkaWriter,
	}
}

// List returns the user's books, newest first.
func (s *BookService) List(ctx context.Context, userID uuid.UUID, filter models.BookFilter) ([]models.BookDB, error) {
	books, err := s.reader.List(ctx, userID, filter)
	if err != nil {
		logger.Log.Errorw("failed to list books", "userID", userID, "error", err)
		return nil, err
	}
	return books, nil
}

// Get returns one of the user's books.
func (s *BookService) Get(ctx context.Context, id, userID uuid.UUID) (*models.BookDB, error) {
	book, err := s.reader.GetByID(ctx, id, userID)
	if err != nil {
		logger.Log.Errorw("failed to get book", "bookID", id, "userID", userID, "error", err)
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// Create stores the cover (if any) and inserts the book.
// A stored cover is removed again when the insert fails.
func (s *BookService) Create(ctx context.Context, userID uuid.UUID, in models.BookInput, upload *models.Upload) (*models.BookDB, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" || in.Author == "" {
		return nil, errorf(ErrValidation, "title and author are required")
	}
	if err := checkBookInput(in); err != nil {
		return nil, err
	}

	var stored string
	if upload != nil {
		name, err := s.files.Save(ctx, *upload)
		if err != nil {
			logger.Log.Warnw("failed to store cover image", "userID", userID, "error", err)
			return nil, err
		}
		stored = name
		in.CoverImage = &stored
	}

	id, err := s.writer.Create(ctx, userID, in)
	if err != nil {
		s.removeFile(ctx, stored)
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return nil, errorf(ErrValidation, "category does not exist")
		}
		if errors.Is(err, repositories.ErrInvalidData) {
			return nil, errorf(ErrValidation, "invalid field value")
		}
		logger.Log.Errorw("failed to create book", "userID", userID, "error", err)
		return nil, err
	}

	book, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, models.BookCreated, id, userID)
	return book, nil
}

// Update writes the fields present in upd and, when upload is set, replaces the cover.
// The previous cover is removed only after the row has been updated.
func (s *BookService) Update(ctx context.Context, id, userID uuid.UUID, upd models.BookUpdate, upload *models.Upload) (*models.BookDB, error) {
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, errorf(ErrValidation, "title cannot be empty")
		}
		upd.Title = &title
	}
	if upd.Author != nil {
		author := strings.TrimSpace(*upd.Author)
		if author == "" {
			return nil, errorf(ErrValidation, "author cannot be empty")
		}
		upd.Author = &author
	}
	if err := checkBookUpdate(upd); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	var stored string
	if upload != nil {
		name, err := s.files.Save(ctx, *upload)
		if err != nil {
			logger.Log.Warnw("failed to store cover image", "bookID", id, "error", err)
			return nil, err
		}
		stored = name
		upd.CoverImage = &stored
	}

	updated, err := s.writer.Update(ctx, id, userID, upd)
	if err != nil {
		s.removeFile(ctx, stored)
		if errors.Is(err, repositories.ErrForeignKeyViolation) {
			return nil, errorf(ErrValidation, "category does not exist")
		}
		if errors.Is(err, repositories.ErrInvalidData) {
			return nil, errorf(ErrValidation, "invalid field value")
		}
		logger.Log.Errorw("failed to update book", "bookID", id, "userID", userID, "error", err)
		return nil, err
	}
	if !updated {
		s.removeFile(ctx, stored)
		return nil, ErrBookNotFound
	}

	if stored != "" && existing.CoverImage != nil {
		s.removeFile(ctx, *existing.CoverImage)
	}

	book, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, models.BookUpdated, id, userID)
	return book, nil
}

// Delete removes the book and then its cover.
func (s *BookService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	existing, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}

	deleted, err := s.writer.Delete(ctx, id, userID)
	if err != nil {
		logger.Log.Errorw("failed to delete book", "bookID", id, "userID", userID, "error", err)
		return err
	}
	if !deleted {
		return ErrBookNotFound
	}

	if existing.CoverImage != nil {
		s.removeFile(ctx, *existing.CoverImage)
	}

	s.publishEvent(ctx, models.BookDeleted, id, userID)
	return nil
}

// removeFile deletes a stored cover. Failures are logged only.
func (s *BookService) removeFile(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.files.Remove(ctx, name); err != nil {
		logger.Log.Warnw("failed to remove cover image", "file", name, "error", err)
	}
}

// publishEvent publishes a book change to Kafka.
func (s *BookService) publishEvent(ctx context.Context, operation string, bookID, userID uuid.UUID) {
	if s.kafkaWriter == nil {
		return
	}

	event := models.BookEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		BookID:    bookID.String(),
		UserID:    userID.String(),
		Operation: operation,
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal book event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.BookID),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish book event to Kafka", "event_id", event.EventID, "error", err)
	} else {
		logger.Log.Infow("Book event published to Kafka", "event_id", event.EventID, "operation", operation)
	}
}
