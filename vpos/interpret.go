package vpos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	statusSuccess = "success"

	keyInvalidOperation = "InvalidOperationError"
	keyPaymentNotFound  = "PaymentNotFoundError"

	duplicateProcessMarker = "process has already been taken"
	noErrorMessage         = "[NoBancardErrorMessage]"
)

// Confirmation response codes.
const (
	CodeApproved            = "00"
	CodeMethodNotEnabled    = "05"
	CodeInvalidTransaction  = "12"
	CodeMethodNotEnabledAlt = "15"
	CodeInsufficientFunds   = "51"
)

func decodeResponse(raw json.RawMessage) (gatewayResponse, error) {
	var resp gatewayResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, &Error{
			Kind:     KindUnexpectedResponse,
			Message:  "The gateway response could not be decoded.",
			Response: raw,
			Err:      err,
		}
	}
	return resp, nil
}

// messages decodes the messages list. It fails when the field is present but is not a
// list of objects.
func (r gatewayResponse) messages(chargeID string, raw json.RawMessage) ([]gatewayMessage, error) {
	if len(r.Messages) == 0 || string(r.Messages) == "null" {
		return nil, nil
	}
	var msgs []gatewayMessage
	if err := json.Unmarshal(r.Messages, &msgs); err != nil {
		return nil, &Error{
			Kind:     KindUnexpectedResponse,
			Message:  "The gateway response could not be decoded.",
			ChargeID: chargeID,
			Status:   r.Status,
			Response: raw,
			Err:      err,
		}
	}
	return msgs, nil
}

// lenientMessages keeps whatever entries decode as objects and ignores the rest. A
// messages field that is not a list yields none.
func (r gatewayResponse) lenientMessages() []gatewayMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(r.Messages, &items); err != nil {
		return nil
	}
	msgs := make([]gatewayMessage, 0, len(items))
	for _, item := range items {
		var m gatewayMessage
		if err := json.Unmarshal(item, &m); err != nil || bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func unexpected(msg, chargeID string, resp gatewayResponse, raw json.RawMessage) *Error {
	return &Error{
		Kind:     KindUnexpectedResponse,
		Message:  msg,
		ChargeID: chargeID,
		Status:   resp.Status,
		Response: raw,
	}
}

// interpretCharge maps a single-buy creation response to an outcome.
func interpretCharge(raw json.RawMessage, chargeID, paymentURLPrefix string) (*ChargeOutcome, error) {
	resp, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}

	if resp.Status == statusSuccess {
		if resp.ProcessID == "" {
			return nil, unexpected("The gateway reported success without a process id.", chargeID, resp, raw)
		}
		processID := string(resp.ProcessID)
		return &ChargeOutcome{
			ProcessID:  processID,
			PaymentURL: paymentURLPrefix + processID,
			Response:   raw,
		}, nil
	}

	lastKey, lastDsc := "", noErrorMessage
	for _, m := range resp.lenientMessages() {
		lastKey, lastDsc = m.Key, m.Dsc
		if lastDsc == "" {
			lastDsc = noErrorMessage
		}
		if m.Key == keyInvalidOperation && strings.Contains(m.Dsc, duplicateProcessMarker) {
			return nil, &Error{
				Kind: KindDuplicateChargeID,
				Message: fmt.Sprintf(
					"The marketplace charge ID %s already exists in the gateway. Check the charge status with the confirmation webservice.",
					chargeID),
				ChargeID: chargeID,
				Status:   resp.Status,
				Code:     m.Key,
				Response: raw,
			}
		}
	}

	return nil, &Error{
		Kind:     KindChargeRejected,
		Message:  lastDsc,
		ChargeID: chargeID,
		Status:   resp.Status,
		Code:     lastKey,
		Response: raw,
	}
}

// rejectionForCode classifies a non-approved confirmation response code.
func rejectionForCode(code string) (Kind, string) {
	switch code {
	case CodeMethodNotEnabled, CodeMethodNotEnabledAlt:
		return KindPaymentMethodNotEnabled, "The payer's payment method is not enabled for making payments."
	case CodeInvalidTransaction:
		return KindTransactionInvalid, "The transaction is not valid."
	case CodeInsufficientFunds:
		return KindInsufficientFunds, "The payment card does not have enough funds."
	default:
		return KindPaymentRejectedUnknownReason, "The payment has been rejected."
	}
}

// interpretConfirmation maps a confirmation (status query) response to the payment
// state, checking that a paid charge matches the expected amount and currency.
func interpretConfirmation(raw json.RawMessage, chargeID, currency string, amount decimal.Decimal) (*Confirmation, error) {
	resp, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}

	if resp.Status == statusSuccess {
		conf := resp.Confirmation
		if conf == nil {
			conf = &confirmation{}
		}
		code := string(conf.ResponseCode)
		if code != CodeApproved {
			kind, msg := rejectionForCode(code)
			return nil, &Error{
				Kind:     kind,
				Message:  msg,
				ChargeID: chargeID,
				Status:   resp.Status,
				Code:     code,
				Response: raw,
			}
		}

		if conf.Amount == nil || *conf.Amount == "" {
			return nil, unexpected("The gateway confirmed the payment without an amount.", chargeID, resp, raw)
		}
		if !amountMatches(string(*conf.Amount), currency, amount) || conf.Currency != currency {
			return nil, &Error{
				Kind:     KindInconsistentCharge,
				Message:  fmt.Sprintf("Duplicated charge ID %s in the gateway rejected due to inconsistency in amount/currency.", chargeID),
				ChargeID: chargeID,
				Status:   resp.Status,
				Code:     code,
				Response: raw,
			}
		}
		return &Confirmation{
			State:               Paid,
			AuthorizationNumber: string(conf.AuthorizationNumber),
			TicketNumber:        string(conf.TicketNumber),
			ResponseDescription: conf.ResponseDescription,
			Response:            raw,
		}, nil
	}

	msgs, err := resp.messages(chargeID, raw)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, unexpected("The gateway returned an error without messages.", chargeID, resp, raw)
	}
	first := msgs[0]
	if first.Key == keyPaymentNotFound {
		// Not paid yet: the caller should roll back if the payer never completes it.
		return &Confirmation{State: NotYetPaid, Response: raw}, nil
	}

	return nil, &Error{
		Kind:     KindPaymentRejectedUnknownReason,
		Message:  "The payment has been rejected: " + first.Dsc,
		ChargeID: chargeID,
		Status:   resp.Status,
		Code:     first.Key,
		Response: raw,
	}
}

// interpretRollback maps a rollback response. A PaymentNotFoundError means the charge
// was never paid, which counts as rolled back.
func interpretRollback(raw json.RawMessage, chargeID string) (*RollbackResult, error) {
	resp, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}

	if resp.Status == statusSuccess {
		return &RollbackResult{RolledBack: true, Response: raw}, nil
	}

	msgs, err := resp.messages(chargeID, raw)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, unexpected("The gateway returned an error without messages.", chargeID, resp, raw)
	}
	first := msgs[0]
	if first.Key == keyPaymentNotFound {
		return &RollbackResult{RolledBack: true, Response: raw}, nil
	}

	return nil, &Error{
		Kind:     KindRollbackFailed,
		Message:  "The gateway was not able to roll back the payment: " + first.Dsc,
		ChargeID: chargeID,
		Status:   resp.Status,
		Code:     first.Key,
		Response: raw,
	}
}
