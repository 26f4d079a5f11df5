package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-portal/internal/domain"
)

var userRowColumns = []string{"id", "email", "password_hash", "name", "role", "created_at", "last_login"}

func TestUserRepositoryCreateDefaultsRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ana@example.com", "hash", pgxmock.AnyArg(), "USER").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))

	repo := NewUserRepository(mock)
	user := &domain.User{Email: "ana@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))

	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, created, user.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	name := "Ana"
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, email, password_hash, name, role, created_at, last_login FROM users WHERE email=\$1`).
		WithArgs("ana@example.com").
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow("u-1", "ana@example.com", "hash", &name, "ADMIN", created, (*time.Time)(nil)))

	user, err := NewUserRepository(mock).GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	require.NotNil(t, user.Name)
	assert.Equal(t, "Ana", *user.Name)
	assert.Nil(t, user.LastLogin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByIDMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewUserRepository(mock).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdatesReportMissingRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE users SET last_login=\$1 WHERE id=\$2`).
		WithArgs(at, "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE users SET role=\$1 WHERE id=\$2`).
		WithArgs("ADMIN", "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewUserRepository(mock)
	require.NoError(t, repo.TouchLastLogin(context.Background(), "u-1", at))
	assert.ErrorIs(t, repo.SetRole(context.Background(), "ghost", domain.RoleAdmin), pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
