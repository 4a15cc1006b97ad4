package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserWriteRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, password_hash, created_at)`)).
		WithArgs("a@b.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	got, err := repo.Save(context.Background(), "a@b.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Save_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("a@b.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	got, err := repo.Save(context.Background(), "a@b.com", "hash")
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.Equal(t, uuid.Nil, got)
}

func TestUserReadRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserReadRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`)

	t.Run("Found", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()
		mock.ExpectQuery(query).WithArgs("a@b.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
				AddRow(id.String(), "a@b.com", "hash", now))

		user, err := repo.GetByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, id, user.UserID)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("nobody@b.com").WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmail(ctx, "nobody@b.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("a@b.com").WillReturnError(errors.New("conn reset"))

		user, err := repo.GetByEmail(ctx, "a@b.com")
		assert.Error(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserReadRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserReadRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, email, created_at FROM users WHERE id = $1`)

	id := uuid.New()
	mock.ExpectQuery(query).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "created_at"}).
			AddRow(id.String(), "a@b.com", time.Now()))

	user, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	mock.ExpectQuery(query).WithArgs(id).WillReturnError(sql.ErrNoRows)
	user, err = repo.GetByID(ctx, id)
	assert.NoError(t, err)
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}
