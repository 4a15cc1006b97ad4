package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
)

//go:generate mockgen -source=book.go -destination=book_mock.go -package=handlers

// BookLister lists the caller's books.
type BookLister interface {
	List(ctx context.Context, userID uuid.UUID, filter models.BookFilter) ([]models.BookDB, error)
}

// BookGetter loads one of the caller's books.
type BookGetter interface {
	Get(ctx context.Context, id, userID uuid.UUID) (*models.BookDB, error)
}

// BookCreator creates a book with an optional cover.
type BookCreator interface {
	Create(ctx context.Context, userID uuid.UUID, in models.BookInput, upload *models.Upload) (*models.BookDB, error)
}

// BookUpdater applies a partial update with an optional new cover.
type BookUpdater interface {
	Update(ctx context.Context, id, userID uuid.UUID, upd models.BookUpdate, upload *models.Upload) (*models.BookDB, error)
}

// BookDeleter deletes one of the caller's books.
type BookDeleter interface {
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// bookID reads the {id} path parameter. A malformed id is reported as a
// missing book so ids of other users' books cannot be probed.
func bookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Book not found")
		return uuid.Nil, false
	}
	return id, true
}

// NewListBooksHandler returns an HTTP handler listing the caller's books.
// @Summary List books
// @Description Returns the caller's books, newest first. Search matches title or author, case-insensitively.
// @Tags books
// @Produce json
// @Param categoryId query string false "Category id"
// @Param search query string false "Substring of title or author"
// @Success 200 {array} models.BookDB
// @Failure 400 {object} handlers.ErrorResponse "Invalid categoryId"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /books [get]
// @Security BearerAuth
func NewListBooksHandler(svc BookLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		var filter models.BookFilter
		query := r.URL.Query()
		if v := strings.TrimSpace(query.Get("categoryId")); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid categoryId")
				return
			}
			filter.CategoryID = &id
		}
		if v := strings.TrimSpace(query.Get("search")); v != "" {
			filter.Search = &v
		}

		books, err := svc.List(r.Context(), userID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if books == nil {
			books = []models.BookDB{}
		}

		writeJSON(w, http.StatusOK, books)
	}
}

// NewGetBookHandler returns an HTTP handler for a single book.
// @Summary Get book
// @Tags books
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} models.BookDB
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Book not found"
// @Router /books/{id} [get]
// @Security BearerAuth
func NewGetBookHandler(svc BookGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		id, ok := bookID(w, r)
		if !ok {
			return
		}

		book, err := svc.Get(r.Context(), id, userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, book)
	}
}

// NewCreateBookHandler returns an HTTP handler creating a book.
// @Summary Create book
// @Description Accepts multipart/form-data (with an optional cover_image file) or JSON.
// @Tags books
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param title formData string true "Title"
// @Param author formData string true "Author"
// @Param description formData string false "Description"
// @Param publication_year formData int false "Publication year"
// @Param category_id formData string false "Category id"
// @Param cover_image formData file false "Cover image (jpeg or png, max 5MB)"
// @Success 201 {object} models.BookDB
// @Failure 400 {object} handlers.ErrorResponse "Validation failed"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /books [post]
// @Security BearerAuth
func NewCreateBookHandler(svc BookCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		form, cleanup, err := parseBookForm(w, r)
		defer cleanup()
		if err != nil {
			writeFormError(w, err)
			return
		}

		book, err := svc.Create(r.Context(), userID, form.input(), form.Upload)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, book)
	}
}

// NewUpdateBookHandler returns an HTTP handler updating a book.
// @Summary Update book
// @Description Only the fields sent are changed. An empty category_id removes the category.
// @Tags books
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param id path string true "Book id"
// @Param title formData string false "Title"
// @Param author formData string false "Author"
// @Param description formData string false "Description"
// @Param publication_year formData int false "Publication year"
// @Param category_id formData string false "Category id"
// @Param cover_image formData file false "Cover image (jpeg or png, max 5MB)"
// @Success 200 {object} models.BookDB
// @Failure 400 {object} handlers.ErrorResponse "Validation failed"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Book not found"
// @Router /books/{id} [put]
// @Security BearerAuth
func NewUpdateBookHandler(svc BookUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		id, ok := bookID(w, r)
		if !ok {
			return
		}

		form, cleanup, err := parseBookForm(w, r)
		defer cleanup()
		if err != nil {
			writeFormError(w, err)
			return
		}

		book, err := svc.Update(r.Context(), id, userID, form.update(), form.Upload)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, book)
	}
}

// NewDeleteBookHandler returns an HTTP handler deleting a book.
// @Summary Delete book
// @Tags books
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} handlers.MessageResponse
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Book not found"
// @Router /books/{id} [delete]
// @Security BearerAuth
func NewDeleteBookHandler(svc BookDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		id, ok := bookID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id, userID); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Book deleted successfully"})
	}
}
