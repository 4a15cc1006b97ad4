package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookColumns = []string{
	"id", "title", "author", "description", "publication_year", "cover_image",
	"category_id", "category_name", "user_id", "created_at", "updated_at",
}

func ptr[T any](v T) *T { return &v }

func TestBookReadRepository_List(t *testing.T) {
	userID := uuid.New()
	categoryID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		filter    models.BookFilter
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "NoFilter",
			wantQuery: `WHERE b.user_id = $1 ORDER BY b.created_at DESC`,
			wantArgs:  []any{userID},
		},
		{
			name:      "Category",
			filter:    models.BookFilter{CategoryID: &categoryID},
			wantQuery: `WHERE b.user_id = $1 AND b.category_id = $2 ORDER BY b.created_at DESC`,
			wantArgs:  []any{userID, categoryID},
		},
		{
			name:      "SearchEscapesWildcards",
			filter:    models.BookFilter{Search: ptr("50%_off")},
			wantQuery: `WHERE b.user_id = $1 AND (b.title ILIKE $2 OR b.author ILIKE $2) ORDER BY b.created_at DESC`,
			wantArgs:  []any{userID, `%50\%\_off%`},
		},
		{
			name:      "CategoryAndSearch",
			filter:    models.BookFilter{CategoryID: &categoryID, Search: ptr("tolkien")},
			wantQuery: `AND b.category_id = $2 AND (b.title ILIKE $3 OR b.author ILIKE $3)`,
			wantArgs:  []any{userID, categoryID, "%tolkien%"},
		},
		{
			name:      "EmptySearchIgnored",
			filter:    models.BookFilter{Search: ptr("")},
			wantQuery: `WHERE b.user_id = $1 ORDER BY b.created_at DESC`,
			wantArgs:  []any{userID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewBookReadRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta(tt.wantQuery)).
				WithArgs(driverArgs(tt.wantArgs)...).
				WillReturnRows(sqlmock.NewRows(bookColumns).
					AddRow(uuid.NewString(), "The Hobbit", "Tolkien", "", int64(1937), nil,
						categoryID.String(), "Fantasy", userID.String(), now, now))

			books, err := repo.List(context.Background(), userID, tt.filter)
			require.NoError(t, err)
			require.Len(t, books, 1)
			assert.Equal(t, "The Hobbit", books[0].Title)
			assert.Equal(t, 1937, *books[0].PublicationYear)
			assert.Equal(t, "Fantasy", *books[0].CategoryName)
			assert.Nil(t, books[0].CoverImage)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func driverArgs(args []any) []driver.Value {
	values := make([]driver.Value, 0, len(args))
	for _, a := range args {
		values = append(values, a)
	}
	return values
}

func TestBookReadRepository_List_EmptyIsNotNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookReadRepository(db)

	mock.ExpectQuery(`FROM books b`).WillReturnRows(sqlmock.NewRows(bookColumns))

	books, err := repo.List(context.Background(), uuid.New(), models.BookFilter{})
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestBookReadRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookReadRepository(db)
	id, owner := uuid.New(), uuid.New()
	query := regexp.QuoteMeta(`WHERE b.id = $1 AND b.user_id = $2`)

	mock.ExpectQuery(query).WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(bookColumns).
			AddRow(id.String(), "Dune", "Herbert", "spice", nil, "cover.png", nil, nil, owner.String(), time.Now(), time.Now()))

	book, err := repo.GetByID(context.Background(), id, owner)
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, "cover.png", *book.CoverImage)
	assert.Nil(t, book.CategoryID)
	assert.Nil(t, book.PublicationYear)

	other := uuid.New()
	mock.ExpectQuery(query).WithArgs(id, other).WillReturnError(sql.ErrNoRows)
	book, err = repo.GetByID(context.Background(), id, other)
	assert.NoError(t, err)
	assert.Nil(t, book)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookWriteRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookWriteRepository(db)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books (title, author, description, publication_year, cover_image, category_id, user_id, created_at, updated_at)`)).
		WithArgs("Dune", "Herbert", "", 1965, "c.png", nil, owner).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := repo.Create(context.Background(), owner, models.BookInput{
		Title: "Dune", Author: "Herbert", PublicationYear: ptr(1965), CoverImage: ptr("c.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookWriteRepository_Create_UnknownCategory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookWriteRepository(db)

	mock.ExpectQuery(`INSERT INTO books`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "books_category_id_fkey"})

	_, err := repo.Create(context.Background(), uuid.New(), models.BookInput{Title: "x", Author: "y", CategoryID: ptr(uuid.New())})
	assert.ErrorIs(t, err, ErrForeignKeyViolation)
}

func TestBookWriteRepository_Update(t *testing.T) {
	id, owner := uuid.New(), uuid.New()
	categoryID := uuid.New()

	tests := []struct {
		name      string
		upd       models.BookUpdate
		wantQuery string
		wantArgs  []any
		affected  int64
		want      bool
	}{
		{
			name:      "TitleOnly",
			upd:       models.BookUpdate{Title: ptr("New")},
			wantQuery: `UPDATE books SET updated_at = NOW(), title = $1 WHERE id = $2 AND user_id = $3`,
			wantArgs:  []any{"New", id, owner},
			affected:  1,
			want:      true,
		},
		{
			name:      "TouchOnly",
			upd:       models.BookUpdate{},
			wantQuery: `UPDATE books SET updated_at = NOW() WHERE id = $1 AND user_id = $2`,
			wantArgs:  []any{id, owner},
			affected:  1,
			want:      true,
		},
		{
			name: "AllFields",
			upd: models.BookUpdate{
				Title: ptr("T"), Author: ptr("A"), Description: ptr("D"), PublicationYear: ptr(2001),
				CoverImage: ptr("c.jpg"), CategoryID: &uuid.NullUUID{UUID: categoryID, Valid: true},
			},
			wantQuery: `UPDATE books SET updated_at = NOW(), title = $1, author = $2, description = $3, publication_year = $4, cover_image = $5, category_id = $6 WHERE id = $7 AND user_id = $8`,
			wantArgs:  []any{"T", "A", "D", 2001, "c.jpg", categoryID, id, owner},
			affected:  1,
			want:      true,
		},
		{
			name:      "ClearCategory",
			upd:       models.BookUpdate{CategoryID: &uuid.NullUUID{}},
			wantQuery: `UPDATE books SET updated_at = NOW(), category_id = $1 WHERE id = $2 AND user_id = $3`,
			wantArgs:  []any{nil, id, owner},
			affected:  1,
			want:      true,
		},
		{
			name:      "NotOwned",
			upd:       models.BookUpdate{Title: ptr("New")},
			wantQuery: `UPDATE books SET updated_at = NOW(), title = $1 WHERE id = $2 AND user_id = $3`,
			wantArgs:  []any{"New", id, owner},
			affected:  0,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewBookWriteRepository(db)

			mock.ExpectExec(regexp.QuoteMeta(tt.wantQuery)).
				WithArgs(driverArgs(tt.wantArgs)...).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.Update(context.Background(), id, owner, tt.upd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookWriteRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookWriteRepository(db)
	id, owner := uuid.New(), uuid.New()
	query := regexp.QuoteMeta(`DELETE FROM books WHERE id = $1 AND user_id = $2`)

	mock.ExpectExec(query).WithArgs(id, owner).WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Delete(context.Background(), id, owner)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(query).WithArgs(id, owner).WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Delete(context.Background(), id, owner)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
