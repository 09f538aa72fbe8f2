package controlplane

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	t.Parallel()
	_, err := NewJWTService(JWTConfig{Secret: "too-short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestNewJWTService_AppliesDefaults(t *testing.T) {
	t.Parallel()
	svc, err := NewJWTService(JWTConfig{Secret: "01234567890123456789012345678901"})
	require.NoError(t, err)

	token, expiry, err := svc.IssueToken("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)
}

func TestJWTService_IssueThenValidateRoundTrips(t *testing.T) {
	t.Parallel()
	svc, err := NewJWTService(JWTConfig{Secret: "01234567890123456789012345678901", Lifetime: time.Minute})
	require.NoError(t, err)

	token, _, err := svc.IssueToken("bob")
	require.NoError(t, err)

	operator, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", operator)
}

func TestJWTService_ValidateTokenRejectsGarbage(t *testing.T) {
	t.Parallel()
	svc, err := NewJWTService(JWTConfig{Secret: "01234567890123456789012345678901"})
	require.NoError(t, err)

	_, err = svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateTokenRejectsExpired(t *testing.T) {
	t.Parallel()
	svc, err := NewJWTService(JWTConfig{Secret: "01234567890123456789012345678901", Lifetime: -time.Minute})
	require.NoError(t, err)

	token, _, err := svc.IssueToken("carol")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_ValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()
	issuer, err := NewJWTService(JWTConfig{Secret: "01234567890123456789012345678901"})
	require.NoError(t, err)
	verifier, err := NewJWTService(JWTConfig{Secret: "abcdefghijklmnopqrstuvwxyzabcdef"})
	require.NoError(t, err)

	token, _, err := issuer.IssueToken("dave")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireAuth_RejectsMissingHeader(t *testing.T) {
	t.Parallel()
	svc, err := NewJWTService(JWTConfig{Secret: "01234567890123456789012345678901"})
	require.NoError(t, err)

	called := false
	handler := svc.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAuth_AllowsValidToken(t *testing.T) {
	t.Parallel()
	svc, err := NewJWTService(JWTConfig{Secret: "01234567890123456789012345678901"})
	require.NoError(t, err)
	token, _, err := svc.IssueToken("erin")
	require.NoError(t, err)

	called := false
	handler := svc.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
