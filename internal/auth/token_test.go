package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAccessToken(t *testing.T) {
	t.Run("Cookie Preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie_token"})
		// Add header as well to ensure cookie takes precedence
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "cookie_token", token)
	})

	t.Run("Header Fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "header_token", token)
	})

	t.Run("Empty Cookie Falls Back to Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: ""})
		req.Header.Set("Authorization", "Bearer header_token")

		token := ExtractAccessToken(req)
		assert.Equal(t, "header_token", token)
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		token := ExtractAccessToken(req)
		assert.Empty(t, token)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user:pass")

		token := ExtractAccessToken(req)
		assert.Empty(t, token)
	})
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	t.Run("Round trip", func(t *testing.T) {
		token, err := tm.Generate(42, "buyer@example.com", "ADMIN")
		require.NoError(t, err)

		claims, err := tm.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "buyer@example.com", claims.Email)
		assert.Equal(t, "ADMIN", claims.Role)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := NewTokenManager("other", time.Hour).Generate(1, "a@b.c", "USER")
		require.NoError(t, err)

		_, err = tm.Parse(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		past := NewTokenManager("test-secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.Generate(1, "a@b.c", "USER")
		require.NoError(t, err)

		_, err = tm.Parse(token)
		assert.Error(t, err)
	})

	t.Run("Unsigned algorithm rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 1})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tm.Parse(raw)
		assert.Error(t, err)
	})

	t.Run("Missing secret", func(t *testing.T) {
		empty := NewTokenManager("", 0)
		_, err := empty.Generate(1, "a@b.c", "USER")
		assert.ErrorIs(t, err, ErrMissingSecret)
		_, err = empty.Parse("x")
		assert.ErrorIs(t, err, ErrMissingSecret)
	})
}
