package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, ErrUniqueViolation},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrForeignKeyViolation},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), ErrUniqueViolation},
		{"value too long", &pgconn.PgError{Code: "22001", Message: "value too long for type character varying(255)"}, ErrInvalidData},
		{"integer out of range", &pgconn.PgError{Code: "22003"}, ErrInvalidData},
		{"bad encoding", &pgconn.PgError{Code: "22021"}, ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyError(tt.err), tt.want)
		})
	}

	notNull := &pgconn.PgError{Code: "23502"}
	assert.Equal(t, error(notNull), classifyError(notNull))

	other := errors.New("boom")
	assert.Equal(t, other, classifyError(other))
	assert.Equal(t, error(nil), classifyError(nil))
}
