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

func TestExtractBearerToken(t *testing.T) {
	t.Run("Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "header_token", ExtractBearerToken(req))
	})

	t.Run("Cookie Ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie_token"})

		assert.Empty(t, ExtractBearerToken(req))
	})

	t.Run("Wrong Scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user:pass")

		assert.Empty(t, ExtractBearerToken(req))
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		assert.Empty(t, ExtractBearerToken(req))
	})
}

func TestIssueMerchantToken(t *testing.T) {
	secret := []byte("test-secret")

	t.Run("With Expiry", func(t *testing.T) {
		tokenString, err := IssueMerchantToken(secret, "shop-1", time.Hour)
		require.NoError(t, err)

		claims := jwt.RegisteredClaims{}
		_, err = jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "shop-1", claims.Subject)
		require.NotNil(t, claims.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("Without Expiry", func(t *testing.T) {
		tokenString, err := IssueMerchantToken(secret, "shop-1", 0)
		require.NoError(t, err)

		claims := jwt.RegisteredClaims{}
		_, err = jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		require.NoError(t, err)
		assert.Nil(t, claims.ExpiresAt)
	})

	t.Run("Empty Secret", func(t *testing.T) {
		_, err := IssueMerchantToken(nil, "shop-1", time.Hour)
		assert.ErrorIs(t, err, ErrEmptySecret)
	})
}
