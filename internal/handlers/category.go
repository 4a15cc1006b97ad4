package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
)

//go:generate mockgen -source=category.go -destination=category_mock.go -package=handlers

// CategoryLister lists every category with its book count.
type CategoryLister interface {
	List(ctx context.Context) ([]models.CategoryWithCount, error)
}

// CategoryGetter looks up one category.
type CategoryGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.CategoryDB, error)
}

// CategoryCreator creates a category.
type CategoryCreator interface {
	Create(ctx context.Context, name, description string) (*models.CategoryDB, error)
}

// CategoryUpdater renames a category, optionally replacing its description.
type CategoryUpdater interface {
	Update(ctx context.Context, id uuid.UUID, name string, description *string) (*models.CategoryDB, error)
}

// CategoryDeleter deletes a category.
type CategoryDeleter interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRequest is the body of category create and update
// swagger:model CategoryRequest
type CategoryRequest struct {
	// required: true
	// default: Fantasy
	Name string `json:"name" validate:"required,max=100"`

	// Omitted on update keeps the current description
	Description *string `json:"description"`
}

func categoryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Category not found")
		return uuid.Nil, false
	}
	return id, true
}

func decodeCategory(w http.ResponseWriter, r *http.Request) (*CategoryRequest, bool) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return nil, false
	}
	return &req, true
}

// NewListCategoriesHandler returns an HTTP handler listing categories.
// @Summary List categories
// @Description All categories ordered by name, with the number of books in each.
// @Tags categories
// @Produce json
// @Success 200 {array} models.CategoryWithCount
// @Router /categories [get]
func NewListCategoriesHandler(svc CategoryLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if categories == nil {
			categories = []models.CategoryWithCount{}
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

// NewGetCategoryHandler returns an HTTP handler for a single category.
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path string true "Category id"
// @Success 200 {object} models.CategoryDB
// @Failure 404 {object} handlers.ErrorResponse "Category not found"
// @Router /categories/{id} [get]
func NewGetCategoryHandler(svc CategoryGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := categoryID(w, r)
		if !ok {
			return
		}

		category, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	}
}

// NewCreateCategoryHandler returns an HTTP handler creating a category.
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body handlers.CategoryRequest true "Category"
// @Success 201 {object} models.CategoryDB
// @Failure 400 {object} handlers.ErrorResponse "Invalid request / duplicate name"
// @Router /categories [post]
func NewCreateCategoryHandler(svc CategoryCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeCategory(w, r)
		if !ok {
			return
		}

		var description string
		if req.Description != nil {
			description = *req.Description
		}

		category, err := svc.Create(r.Context(), req.Name, description)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, category)
	}
}

// NewUpdateCategoryHandler returns an HTTP handler updating a category.
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category id"
// @Param category body handlers.CategoryRequest true "Category"
// @Success 200 {object} models.CategoryDB
// @Failure 400 {object} handlers.ErrorResponse "Invalid request / duplicate name"
// @Failure 404 {object} handlers.ErrorResponse "Category not found"
// @Router /categories/{id} [put]
func NewUpdateCategoryHandler(svc CategoryUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := categoryID(w, r)
		if !ok {
			return
		}
		req, ok := decodeCategory(w, r)
		if !ok {
			return
		}

		category, err := svc.Update(r.Context(), id, req.Name, req.Description)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	}
}

// NewDeleteCategoryHandler returns an HTTP handler deleting a category.
// @Summary Delete category
// @Description Books in the category become uncategorized.
// @Tags categories
// @Produce json
// @Param id path string true "Category id"
// @Success 200 {object} handlers.MessageResponse
// @Failure 404 {object} handlers.ErrorResponse "Category not found"
// @Router /categories/{id} [delete]
func NewDeleteCategoryHandler(svc CategoryDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := categoryID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
	}
}
