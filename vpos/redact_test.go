package vpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactTokens(t *testing.T) {
	t.Run("NestedTokens", func(t *testing.T) {
		raw := []byte(`{"status":"success","confirmation":{"token":"abc123","amount":"1000.00","shop_process_id":1}}`)

		got := RedactTokens(raw)

		assert.JSONEq(t, `{"status":"success","confirmation":{"token":"[REDACTED]","amount":"1000.00","shop_process_id":1}}`, string(got))
		assert.NotContains(t, string(got), "abc123")
	})

	t.Run("TokensInsideLists", func(t *testing.T) {
		got := RedactTokens([]byte(`{"items":[{"token":"x"},{"key":"y"}]}`))

		assert.JSONEq(t, `{"items":[{"token":"[REDACTED]"},{"key":"y"}]}`, string(got))
	})

	t.Run("NoToken", func(t *testing.T) {
		got := RedactTokens([]byte(`{"status":"error","messages":[]}`))

		assert.JSONEq(t, `{"status":"error","messages":[]}`, string(got))
	})

	t.Run("NotJSON", func(t *testing.T) {
		assert.Nil(t, RedactTokens([]byte(`token=abc`)))
		assert.Nil(t, RedactTokens(nil))
	})
}
