package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bancard-connector/internal/auth"
	"bancard-connector/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("Token Passes Auth Middleware", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run([]string{"-merchant", "shop-1", "-ttl", "1h"}, "test-secret", &out))

		token := strings.TrimSpace(out.String())
		req := httptest.NewRequest(http.MethodGet, "/charges/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, token, auth.ExtractBearerToken(req))

		var merchant string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			merchant, _ = middleware.MerchantFromContext(r.Context())
		})
		middleware.Auth([]byte("test-secret"))(next).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "shop-1", merchant)
	})

	t.Run("Missing Merchant", func(t *testing.T) {
		err := run(nil, "test-secret", &bytes.Buffer{})
		assert.ErrorIs(t, err, errMissingMerchant)
	})

	t.Run("Missing Secret", func(t *testing.T) {
		err := run([]string{"-merchant", "shop-1"}, "", &bytes.Buffer{})
		assert.ErrorIs(t, err, auth.ErrEmptySecret)
	})
}
