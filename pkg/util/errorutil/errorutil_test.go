package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "domain error passes through", err: NewForbidden("nope"), wantCode: CodeForbidden, wantStatus: http.StatusForbidden},
		{name: "wrapped domain error", err: fmt.Errorf("outer: %w", NewConflict("dup", nil)), wantCode: CodeConflict, wantStatus: http.StatusConflict},
		{name: "no rows", err: fmt.Errorf("get: %w", pgx.ErrNoRows), wantCode: CodeNotFound, wantStatus: http.StatusNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, wantCode: CodeConflict, wantStatus: http.StatusConflict},
		{name: "other pg error", err: &pgconn.PgError{Code: "42P01"}, wantCode: CodeInternal, wantStatus: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("boom"), wantCode: CodeInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, tt.wantStatus, de.HTTPStatus)
		})
	}
}

func TestToDomainError_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ToDomainError(nil))
}

func TestInternalErrorHidesCause(t *testing.T) {
	t.Parallel()

	de := ToDomainError(errors.New("relation \"users\" does not exist"))
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorContains(t, de, "does not exist")
}

func TestWrapUnauthorized(t *testing.T) {
	t.Parallel()

	cause := errors.New("token expired")
	err := WrapUnauthorized("invalid session", cause)
	assert.ErrorIs(t, err, cause)

	de := ToDomainError(err)
	assert.Equal(t, CodeUnauthorized, de.Code)
	assert.Equal(t, "invalid session", de.Message)
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(errors.New("x")))
}
