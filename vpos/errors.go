package vpos

import (
	"encoding/json"
	"errors"
)

// Kind identifies one variant of the connector's closed error taxonomy.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindInvalidParameter
	KindDuplicateChargeID
	KindChargeRejected
	KindInconsistentCharge
	KindPaymentMethodNotEnabled
	KindTransactionInvalid
	KindInsufficientFunds
	KindPaymentRejectedUnknownReason
	KindRollbackFailed
	KindInvalidWebhookData
	KindInvalidWebhookToken
	KindUnexpectedResponse
)

var (
	// -- Setup --
	ErrConfiguration      = errors.New("vpos: invalid configuration")
	ErrAlreadyInitialized = errors.New("vpos: default connector already initialized")

	// -- Caller input --
	ErrInvalidParameter    = errors.New("vpos: invalid parameter")
	ErrUnsupportedCurrency = errors.New("vpos: unsupported currency")
	ErrInvalidAmount       = errors.New("vpos: invalid amount")

	// -- Charge creation --
	ErrDuplicateChargeID = errors.New("vpos: marketplace charge id already exists")
	ErrChargeRejected    = errors.New("vpos: charge rejected")

	// -- Confirmation --
	ErrInconsistentCharge           = errors.New("vpos: charge amount or currency mismatch")
	ErrPaymentRejected              = errors.New("vpos: payment rejected")
	ErrPaymentMethodNotEnabled      = errors.New("vpos: payment method not enabled")
	ErrTransactionInvalid           = errors.New("vpos: transaction invalid")
	ErrInsufficientFunds            = errors.New("vpos: insufficient funds")
	ErrPaymentRejectedUnknownReason = errors.New("vpos: payment rejected for unknown reason")

	// -- Rollback --
	ErrRollbackFailed = errors.New("vpos: rollback failed")

	// -- Webhook --
	ErrInvalidWebhookData  = errors.New("vpos: invalid webhook data")
	ErrInvalidWebhookToken = errors.New("vpos: invalid webhook token")

	// -- Gateway plumbing --
	ErrUnexpectedResponse = errors.New("vpos: unexpected gateway response")
	ErrTransport          = errors.New("vpos: gateway transport failure")
)

var kindSentinels = map[Kind]error{
	KindConfiguration:                ErrConfiguration,
	KindInvalidParameter:             ErrInvalidParameter,
	KindDuplicateChargeID:            ErrDuplicateChargeID,
	KindChargeRejected:               ErrChargeRejected,
	KindInconsistentCharge:           ErrInconsistentCharge,
	KindPaymentMethodNotEnabled:      ErrPaymentMethodNotEnabled,
	KindTransactionInvalid:           ErrTransactionInvalid,
	KindInsufficientFunds:            ErrInsufficientFunds,
	KindPaymentRejectedUnknownReason: ErrPaymentRejectedUnknownReason,
	KindRollbackFailed:               ErrRollbackFailed,
	KindInvalidWebhookData:           ErrInvalidWebhookData,
	KindInvalidWebhookToken:          ErrInvalidWebhookToken,
	KindUnexpectedResponse:           ErrUnexpectedResponse,
}

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindDuplicateChargeID:
		return "duplicate_charge_id"
	case KindChargeRejected:
		return "charge_rejected"
	case KindInconsistentCharge:
		return "inconsistent_charge"
	case KindPaymentMethodNotEnabled:
		return "payment_method_not_enabled"
	case KindTransactionInvalid:
		return "transaction_invalid"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindPaymentRejectedUnknownReason:
		return "payment_rejected_unknown_reason"
	case KindRollbackFailed:
		return "rollback_failed"
	case KindInvalidWebhookData:
		return "invalid_webhook_data"
	case KindInvalidWebhookToken:
		return "invalid_webhook_token"
	case KindUnexpectedResponse:
		return "unexpected_response"
	default:
		return "unknown"
	}
}

// PaymentRejection reports whether the kind is a payer-side payment failure.
func (k Kind) PaymentRejection() bool {
	switch k {
	case KindPaymentMethodNotEnabled, KindTransactionInvalid, KindInsufficientFunds, KindPaymentRejectedUnknownReason:
		return true
	}
	return false
}

// Error is the single error type returned by the connector for everything except
// transport failures. Response holds the raw gateway (or webhook) payload so the
// caller can audit it.
type Error struct {
	Kind     Kind
	Message  string
	ChargeID string
	// Status is the gateway's top-level status field, when one was received.
	Status string
	// Code is the gateway message key or confirmation response code.
	Code     string
	Response json.RawMessage
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		return sentinel.Error()
	}
	return "vpos: error"
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error's kind, and ErrPaymentRejected for any
// payer-side rejection.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if sentinel, ok := kindSentinels[e.Kind]; ok && sentinel == target {
		return true
	}
	return target == ErrPaymentRejected && e.Kind.PaymentRejection()
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func invalidParameter(msg string) *Error {
	return newError(KindInvalidParameter, msg)
}

// KindOf returns the kind of a connector error, or 0 when err is not one.
func KindOf(err error) Kind {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Kind
	}
	return 0
}
