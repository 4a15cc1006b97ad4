package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
)

const selectBooks = `
	SELECT b.id, b.title, b.author, b.description, b.publication_year, b.cover_image,
	       b.category_id, c.name AS category_name, b.user_id, b.created_at, b.updated_at
	FROM books b
	LEFT JOIN categories c ON c.id = b.category_id
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BookReadRepository reads books, always scoped to their owner.
type BookReadRepository struct {
	db *sqlx.DB
}

func NewBookReadRepository(db *sqlx.DB) *BookReadRepository {
	return &BookReadRepository{db: db}
}

// List returns the owner's books, newest first, narrowed by filter.
func (r *BookReadRepository) List(ctx context.Context, userID uuid.UUID, filter models.BookFilter) ([]models.BookDB, error) {
	query := selectBooks + ` WHERE b.user_id = $1`
	args := []any{userID}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(` AND b.category_id = $%d`, len(args))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(*filter.Search)+"%")
		query += fmt.Sprintf(` AND (b.title ILIKE $%d OR b.author ILIKE $%d)`, len(args), len(args))
	}
	query += ` ORDER BY b.created_at DESC`

	books := []models.BookDB{}
	err := r.db.SelectContext(ctx, &books, query, args...)
	logQuery(query, args, len(books), err)

	if err != nil {
		return nil, err
	}
	return books, nil
}

// GetByID returns the book only if it belongs to userID; otherwise nil.
func (r *BookReadRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.BookDB, error) {
	query := selectBooks + ` WHERE b.id = $1 AND b.user_id = $2`

	var book models.BookDB
	err := r.db.GetContext(ctx, &book, query, id, userID)
	logQuery(query, []any{id, userID}, book.ID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// BookWriteRepository mutates books, always scoped to their owner.
type BookWriteRepository struct {
	db *sqlx.DB
}

func NewBookWriteRepository(db *sqlx.DB) *BookWriteRepository {
	return &BookWriteRepository{db: db}
}

// Create inserts a book owned by userID and returns its id.
func (r *BookWriteRepository) Create(ctx context.Context, userID uuid.UUID, in models.BookInput) (uuid.UUID, error) {
	const query = `
		INSERT INTO books (title, author, description, publication_year, cover_image, category_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id
	`
	args := []any{in.Title, in.Author, in.Description, in.PublicationYear, in.CoverImage, in.CategoryID, userID}

	var id uuid.UUID
	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id)
	logQuery(query, args, id, err)

	if err != nil {
		return uuid.Nil, classifyError(err)
	}
	return id, nil
}

// Update writes the non-nil fields of upd and refreshes updated_at.
// It reports whether a row owned by userID was changed.
func (r *BookWriteRepository) Update(ctx context.Context, id, userID uuid.UUID, upd models.BookUpdate) (bool, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Author != nil {
		set("author", *upd.Author)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.PublicationYear != nil {
		set("publication_year", *upd.PublicationYear)
	}
	if upd.CoverImage != nil {
		set("cover_image", *upd.CoverImage)
	}
	if upd.CategoryID != nil {
		set("category_id", *upd.CategoryID)
	}

	args = append(args, id, userID)
	query := fmt.Sprintf("UPDATE books SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, args, rowsAffected, err)

	if err != nil {
		return false, classifyError(err)
	}
	return rowsAffected > 0, nil
}

// Delete removes the book if userID owns it and reports whether a row was removed.
func (r *BookWriteRepository) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	const query = `DELETE FROM books WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{id, userID}, rowsAffected, err)

	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
