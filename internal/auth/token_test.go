package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-portal/internal/domain"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCodec(t *testing.T, clock *fakeClock) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec("test-secret", 7*24*time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return codec
}

func TestTokenCodecRoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	token, expiresAt, err := codec.Issue(domain.SessionClaims{UserID: "u-1", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(7*24*time.Hour), expiresAt)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.Equal(expiresAt))
	assert.True(t, claims.IssuedAt.Equal(clock.t))
}

func TestTokenCodecExpiryBoundary(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	codec := newTestCodec(t, clock)

	token, expiresAt, err := codec.Issue(domain.SessionClaims{UserID: "u-1"})
	require.NoError(t, err)

	clock.t = expiresAt.Add(-time.Second)
	_, err = codec.Verify(token)
	require.NoError(t, err)

	clock.t = expiresAt
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	clock.t = expiresAt.Add(time.Hour)
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodecRejectsAnyByteChange(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	token, _, err := codec.Issue(domain.SessionClaims{UserID: "u-1", Email: "ana@example.com"})
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]
		_, err := codec.Verify(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken, "position %d", i)
	}
}

func TestTokenCodecRejectsForeignTokens(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	other, err := NewTokenCodec("another-secret", time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	foreign, _, err := other.Issue(domain.SessionClaims{UserID: "u-1"})
	require.NoError(t, err)
	_, err = codec.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  "u-1",
		"exp": clock.t.Add(time.Hour).Unix(),
	})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Verify(noneToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u-1"})
	noExpiryToken, err := noExpiry.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = codec.Verify(noExpiryToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	for _, garbage := range []string{"", "abc", strings.Repeat(".", 2), "a.b.c"} {
		_, err := codec.Verify(garbage)
		assert.ErrorIs(t, err, ErrInvalidToken, garbage)
	}
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenCodec("", time.Hour)
	assert.Error(t, err)
}
