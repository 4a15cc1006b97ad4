package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryReadRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryReadRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(b.id) AS book_count`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "book_count"}).
			AddRow(uuid.NewString(), "Fantasy", "", now, int64(3)).
			AddRow(uuid.NewString(), "Sci-Fi", "space", now, int64(0)))

	categories, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Fantasy", categories[0].Name)
	assert.Equal(t, int64(3), categories[0].BookCount)
	assert.Equal(t, int64(0), categories[1].BookCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryReadRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryReadRepository(db)
	id := uuid.New()
	query := regexp.QuoteMeta(`SELECT id, name, description, created_at FROM categories WHERE id = $1`)

	mock.ExpectQuery(query).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow(id.String(), "Poetry", "verse", time.Now()))

	category, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, category)
	assert.Equal(t, "Poetry", category.Name)

	mock.ExpectQuery(query).WithArgs(id).WillReturnError(sql.ErrNoRows)
	category, err = repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryWriteRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryWriteRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories (name, description, created_at)`)).
		WithArgs("Poetry", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := repo.Create(context.Background(), "Poetry", "")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories`)).
		WithArgs("Poetry", "").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = repo.Create(context.Background(), "Poetry", "")
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryWriteRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryWriteRepository(db)
	id := uuid.New()
	query := regexp.QuoteMeta(`UPDATE categories SET name = $1, description = $2 WHERE id = $3`)

	mock.ExpectExec(query).WithArgs("Poems", "verse", id).WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Update(context.Background(), id, "Poems", "verse")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(query).WithArgs("Poems", "verse", id).WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Update(context.Background(), id, "Poems", "verse")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryWriteRepository_Delete_DetachesBooks(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryWriteRepository(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE books SET category_id = NULL WHERE category_id = $1 ) DELETE FROM categories WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
