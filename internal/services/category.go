package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/logger"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
	"github.com/sbilibin2017/gw-book-collection/internal/repositories"
)

//go:generate mockgen -source=category.go -destination=category_mock.go -package=services

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
)

// CategoryReader defines category reads.
type CategoryReader interface {
	List(ctx context.Context) ([]models.CategoryWithCount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CategoryDB, error)
}

// CategoryWriter defines category writes.
type CategoryWriter interface {
	Create(ctx context.Context, name, description string) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, name, description string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CategoryService manages the shared category list.
type CategoryService struct {
	reader CategoryReader
	writer CategoryWriter
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(reader CategoryReader, writer CategoryWriter) *CategoryService {
	return &CategoryService{reader: reader, writer: writer}
}

// List returns every category with its book count, ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.CategoryWithCount, error) {
	categories, err := s.reader.List(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list categories", "error", err)
		return nil, err
	}
	return categories, nil
}

// Get returns the category or ErrCategoryNotFound.
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.CategoryDB, error) {
	category, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get category", "categoryID", id, "error", err)
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Create adds a category. Names are unique.
func (s *CategoryService) Create(ctx context.Context, name, description string) (*models.CategoryDB, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorf(ErrValidation, "name is required")
	}
	if err := checkCategory(name, &description); err != nil {
		return nil, err
	}

	id, err := s.writer.Create(ctx, name, description)
	if err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			return nil, ErrCategoryAlreadyExists
		}
		if errors.Is(err, repositories.ErrInvalidData) {
			return nil, errorf(ErrValidation, "invalid field value")
		}
		logger.Log.Errorw("failed to create category", "name", name, "error", err)
		return nil, err
	}

	return s.Get(ctx, id)
}

// Update renames the category. A nil description keeps the current one.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, name string, description *string) (*models.CategoryDB, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorf(ErrValidation, "name is required")
	}
	if err := checkCategory(name, description); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	desc := existing.Description
	if description != nil {
		desc = *description
	}

	updated, err := s.writer.Update(ctx, id, name, desc)
	if err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			return nil, ErrCategoryAlreadyExists
		}
		if errors.Is(err, repositories.ErrInvalidData) {
			return nil, errorf(ErrValidation, "invalid field value")
		}
		logger.Log.Errorw("failed to update category", "categoryID", id, "error", err)
		return nil, err
	}
	if !updated {
		return nil, ErrCategoryNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes the category. Books that referenced it become uncategorized.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.writer.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete category", "categoryID", id, "error", err)
		return err
	}
	if !deleted {
		return ErrCategoryNotFound
	}
	logger.Log.Infow("category deleted", "categoryID", id)
	return nil
}
