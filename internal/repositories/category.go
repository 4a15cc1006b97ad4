package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
)

// CategoryReadRepository reads the shared category list.
type CategoryReadRepository struct {
	db *sqlx.DB
}

// NewCategoryReadRepository creates a CategoryReadRepository over db.
func NewCategoryReadRepository(db *sqlx.DB) *CategoryReadRepository {
	return &CategoryReadRepository{db: db}
}

// List returns every category with the number of books referencing it, ordered by name.
func (r *CategoryReadRepository) List(ctx context.Context) ([]models.CategoryWithCount, error) {
	const query = `
		SELECT c.id, c.name, c.description, c.created_at, COUNT(b.id) AS book_count
		FROM categories c
		LEFT JOIN books b ON b.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name
	`

	categories := []models.CategoryWithCount{}
	err := r.db.SelectContext(ctx, &categories, query)
	logQuery(query, nil, len(categories), err)

	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID returns the category or nil when it does not exist.
func (r *CategoryReadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CategoryDB, error) {
	const query = `
		SELECT id, name, description, created_at
		FROM categories
		WHERE id = $1
	`

	var category models.CategoryDB
	err := r.db.GetContext(ctx, &category, query, id)
	logQuery(query, []any{id}, category.Name, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CategoryWriteRepository writes categories.
type CategoryWriteRepository struct {
	db *sqlx.DB
}

// NewCategoryWriteRepository creates a CategoryWriteRepository over db.
func NewCategoryWriteRepository(db *sqlx.DB) *CategoryWriteRepository {
	return &CategoryWriteRepository{db: db}
}

// Create inserts a category and returns its id.
// A taken name surfaces as ErrUniqueViolation.
func (r *CategoryWriteRepository) Create(ctx context.Context, name, description string) (uuid.UUID, error) {
	const query = `
		INSERT INTO categories (name, description, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.QueryRowxContext(ctx, query, name, description).Scan(&id)
	logQuery(query, []any{name, description}, id, err)

	if err != nil {
		return uuid.Nil, classifyError(err)
	}
	return id, nil
}

// Update overwrites name and description. It reports false when no row matched.
func (r *CategoryWriteRepository) Update(ctx context.Context, id uuid.UUID, name, description string) (bool, error) {
	const query = `UPDATE categories SET name = $1, description = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, name, description, id)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{name, description, id}, rowsAffected, err)

	if err != nil {
		return false, classifyError(err)
	}
	return rowsAffected > 0, nil
}

// Delete removes the category and detaches its books in a single statement.
func (r *CategoryWriteRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `
		WITH detached AS (
			UPDATE books SET category_id = NULL WHERE category_id = $1
		)
		DELETE FROM categories WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{id}, rowsAffected, err)

	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
