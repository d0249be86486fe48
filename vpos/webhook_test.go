package vpos

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bancard-connector/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validWebhookToken = "4a0c03b21d85853c79b3a517f934bf2c"

func webhookBody(token, shopProcessID, code string) []byte {
	return []byte(fmt.Sprintf(`{
		"operation": {
			"token": %q,
			"shop_process_id": %s,
			"response": "S",
			"response_details": "Procesado Satisfactoriamente",
			"amount": "1000.00",
			"currency": "PYG",
			"authorization_number": "123456",
			"ticket_number": "123456789123456",
			"response_code": %q,
			"response_description": "Transaccion aprobada",
			"extended_response_description": null,
			"security_information": {"customer_ip": "123.123.123.123", "card_source": "L", "card_country": "PARAGUAY", "version": "0.3", "risk_index": 0}
		}
	}`, token, shopProcessID, code))
}

func TestParseWebhook(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		raw := webhookBody(validWebhookToken, "1", "00")

		p, err := ParseWebhook(raw)

		require.NoError(t, err)
		assert.Equal(t, "1", p.Operation.ShopProcessID)
		assert.Equal(t, "123456", p.Operation.AuthorizationNumber)
		assert.Equal(t, string(raw), string(p.Raw()))
	})

	t.Run("NotJSON", func(t *testing.T) {
		_, err := ParseWebhook([]byte("not json"))
		assert.ErrorIs(t, err, ErrInvalidWebhookData)
	})

	t.Run("MissingOperation", func(t *testing.T) {
		_, err := ParseWebhook([]byte(`{"foo":"bar"}`))
		assert.ErrorIs(t, err, ErrInvalidWebhookData)
	})

	t.Run("MissingShopProcessID", func(t *testing.T) {
		_, err := ParseWebhook([]byte(`{"operation":{"token":"x","response_code":"00"}}`))
		assert.ErrorIs(t, err, ErrInvalidWebhookData)
	})
}

func TestChargeIDFromWebhook(t *testing.T) {
	id, err := ChargeIDFromWebhook(webhookBody("whatever", `"42"`, "00"))
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	_, err = ChargeIDFromWebhook([]byte(`{}`))
	assert.ErrorIs(t, err, ErrInvalidWebhookData)
}

func TestConnector_VerifyWebhook(t *testing.T) {
	ctx := context.Background()
	c := newTestConnector(t, &fakeGateway{})

	t.Run("Paid", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.WebhookVerifications.WithLabelValues("ok"))

		out, err := c.VerifyWebhook(ctx, webhookBody(validWebhookToken, "1", "00"), "1", thousand, CurrencyPYG)

		require.NoError(t, err)
		assert.Equal(t, Paid, out.State)
		assert.Equal(t, "123456", out.AuthorizationNumber)
		assert.Equal(t, "123456789123456", out.TicketNumber)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.WebhookVerifications.WithLabelValues("ok")))
	})

	t.Run("StringChargeIDAndLeadingZeros", func(t *testing.T) {
		out, err := c.VerifyWebhook(ctx, webhookBody(validWebhookToken, `"1"`, "00"), "001", thousand, CurrencyPYG)

		require.NoError(t, err)
		assert.Equal(t, Paid, out.State)
	})

	t.Run("MutatedToken", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.WebhookVerifications.WithLabelValues("invalid_webhook_token"))

		for i := range validWebhookToken {
			mutated := []byte(validWebhookToken)
			if mutated[i] == 'f' {
				mutated[i] = '0'
			} else {
				mutated[i] = 'f'
			}

			_, err := c.VerifyWebhook(ctx, webhookBody(string(mutated), "1", "00"), "1", thousand, CurrencyPYG)

			assert.ErrorIs(t, err, ErrInvalidWebhookToken, "position %d", i)
		}
		after := testutil.ToFloat64(metrics.WebhookVerifications.WithLabelValues("invalid_webhook_token"))
		assert.Equal(t, float64(len(validWebhookToken)), after-before)
	})

	t.Run("WrongExpectedAmount", func(t *testing.T) {
		_, err := c.VerifyWebhook(ctx, webhookBody(validWebhookToken, "1", "00"), "1", decimal.NewFromInt(2000), CurrencyPYG)

		assert.ErrorIs(t, err, ErrInvalidWebhookToken)
	})

	t.Run("ChargeIDMismatch", func(t *testing.T) {
		_, err := c.VerifyWebhook(ctx, webhookBody(validWebhookToken, "2", "00"), "1", thousand, CurrencyPYG)

		assert.ErrorIs(t, err, ErrInvalidWebhookData)
		assert.NotErrorIs(t, err, ErrInvalidWebhookToken)
	})

	t.Run("MissingToken", func(t *testing.T) {
		_, err := c.VerifyWebhook(ctx, webhookBody("", "1", "00"), "1", thousand, CurrencyPYG)

		assert.ErrorIs(t, err, ErrInvalidWebhookData)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := c.VerifyWebhook(ctx, []byte(`{"operation":`), "1", thousand, CurrencyPYG)

		assert.ErrorIs(t, err, ErrInvalidWebhookData)
	})

	t.Run("PaymentRejections", func(t *testing.T) {
		cases := map[string]error{
			"05": ErrPaymentMethodNotEnabled,
			"12": ErrTransactionInvalid,
			"15": ErrPaymentMethodNotEnabled,
			"51": ErrInsufficientFunds,
			"57": ErrPaymentRejectedUnknownReason,
		}
		for code, want := range cases {
			_, err := c.VerifyWebhook(ctx, webhookBody(validWebhookToken, "1", code), "1", thousand, CurrencyPYG)

			assert.ErrorIs(t, err, want, code)
			assert.ErrorIs(t, err, ErrPaymentRejected, code)
			assert.NotErrorIs(t, err, ErrInvalidWebhookData, code)

			var vErr *Error
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, code, vErr.Code)
			assert.NotEmpty(t, vErr.Response)
		}
	})

	t.Run("ApprovedWithoutAuthorization", func(t *testing.T) {
		raw := []byte(`{"operation":{"token":"` + validWebhookToken + `","shop_process_id":1,"amount":"1000.00","currency":"PYG","response_code":"00"}}`)

		_, err := c.VerifyWebhook(ctx, raw, "1", thousand, CurrencyPYG)

		assert.ErrorIs(t, err, ErrInvalidWebhookData)
	})

	t.Run("InvalidExpectation", func(t *testing.T) {
		_, err := c.VerifyWebhook(ctx, webhookBody(validWebhookToken, "1", "00"), "1", thousand, "USD")

		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("PreParsedPayload", func(t *testing.T) {
		p, err := ParseWebhook(webhookBody(validWebhookToken, "1", "00"))
		require.NoError(t, err)

		out, err := c.VerifyWebhookPayload(ctx, p, "1", thousand, CurrencyPYG)

		require.NoError(t, err)
		assert.Equal(t, "123456", out.AuthorizationNumber)
	})

	t.Run("NilPayload", func(t *testing.T) {
		_, err := c.VerifyWebhookPayload(ctx, nil, "1", thousand, CurrencyPYG)

		assert.ErrorIs(t, err, ErrInvalidWebhookData)
	})
}
