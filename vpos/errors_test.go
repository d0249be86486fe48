package vpos

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	t.Run("MatchesKindSentinel", func(t *testing.T) {
		err := &Error{Kind: KindDuplicateChargeID, Message: "dup"}
		assert.ErrorIs(t, err, ErrDuplicateChargeID)
		assert.NotErrorIs(t, err, ErrChargeRejected)
		assert.NotErrorIs(t, err, ErrPaymentRejected)
	})

	t.Run("PaymentRejections", func(t *testing.T) {
		for _, kind := range []Kind{
			KindPaymentMethodNotEnabled,
			KindTransactionInvalid,
			KindInsufficientFunds,
			KindPaymentRejectedUnknownReason,
		} {
			err := &Error{Kind: kind}
			assert.ErrorIs(t, err, ErrPaymentRejected, kind.String())
			assert.ErrorIs(t, err, kindSentinels[kind], kind.String())
		}
		assert.NotErrorIs(t, &Error{Kind: KindRollbackFailed}, ErrPaymentRejected)
	})

	t.Run("Wrapped", func(t *testing.T) {
		err := fmt.Errorf("create charge: %w", &Error{Kind: KindInvalidWebhookToken})
		assert.ErrorIs(t, err, ErrInvalidWebhookToken)
		assert.Equal(t, KindInvalidWebhookToken, KindOf(err))
	})

	t.Run("UnwrapCause", func(t *testing.T) {
		err := &Error{Kind: KindInvalidParameter, Err: ErrUnsupportedCurrency}
		assert.ErrorIs(t, err, ErrInvalidParameter)
		assert.ErrorIs(t, err, ErrUnsupportedCurrency)
	})

	t.Run("DefaultMessage", func(t *testing.T) {
		assert.Equal(t, ErrRollbackFailed.Error(), (&Error{Kind: KindRollbackFailed}).Error())
	})

	t.Run("KindOfForeignError", func(t *testing.T) {
		assert.Equal(t, Kind(0), KindOf(errors.New("boom")))
		assert.Equal(t, "unknown", Kind(0).String())
	})
}
