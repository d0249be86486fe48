package vpos

import (
	"context"
	"encoding/json"
	"errors"

	"bancard-connector/internal/logger"
	"bancard-connector/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WebhookPayload is the body the gateway posts to the merchant after a payment
// attempt. It is untrusted until verified.
type WebhookPayload struct {
	Operation *WebhookOperation `json:"operation"`

	raw json.RawMessage
}

// WebhookOperation carries the payment result. Numeric ids may arrive as JSON numbers
// or strings; both decode to their decimal text.
type WebhookOperation struct {
	Token                       string `json:"token"`
	ShopProcessID               string `json:"shop_process_id"`
	Response                    string `json:"response"`
	ResponseDetails             string `json:"response_details"`
	Amount                      string `json:"amount"`
	Currency                    string `json:"currency"`
	AuthorizationNumber         string `json:"authorization_number"`
	TicketNumber                string `json:"ticket_number"`
	ResponseCode                string `json:"response_code"`
	ResponseDescription         string `json:"response_description"`
	ExtendedResponseDescription string `json:"extended_response_description"`
}

func (o *WebhookOperation) UnmarshalJSON(data []byte) error {
	var wire struct {
		Token                       string     `json:"token"`
		ShopProcessID               flexString `json:"shop_process_id"`
		Response                    string     `json:"response"`
		ResponseDetails             string     `json:"response_details"`
		Amount                      flexString `json:"amount"`
		Currency                    string     `json:"currency"`
		AuthorizationNumber         flexString `json:"authorization_number"`
		TicketNumber                flexString `json:"ticket_number"`
		ResponseCode                flexString `json:"response_code"`
		ResponseDescription         string     `json:"response_description"`
		ExtendedResponseDescription string     `json:"extended_response_description"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*o = WebhookOperation{
		Token:                       wire.Token,
		ShopProcessID:               string(wire.ShopProcessID),
		Response:                    wire.Response,
		ResponseDetails:             wire.ResponseDetails,
		Amount:                      string(wire.Amount),
		Currency:                    wire.Currency,
		AuthorizationNumber:         string(wire.AuthorizationNumber),
		TicketNumber:                string(wire.TicketNumber),
		ResponseCode:                string(wire.ResponseCode),
		ResponseDescription:         wire.ResponseDescription,
		ExtendedResponseDescription: wire.ExtendedResponseDescription,
	}
	return nil
}

// Raw returns the bytes the payload was parsed from, or its JSON encoding when it was
// built in code.
func (p *WebhookPayload) Raw() json.RawMessage {
	if p == nil {
		return nil
	}
	if p.raw != nil {
		return p.raw
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return b
}

func invalidWebhookData(raw json.RawMessage, cause error) *Error {
	return &Error{
		Kind:     KindInvalidWebhookData,
		Message:  "Invalid webhook data.",
		Response: raw,
		Err:      cause,
	}
}

// ParseWebhook decodes a webhook body. Any structural problem is reported as
// ErrInvalidWebhookData.
func ParseWebhook(raw []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidWebhookData(raw, err)
	}
	if p.Operation == nil || p.Operation.ShopProcessID == "" {
		return nil, invalidWebhookData(raw, nil)
	}
	p.raw = append(json.RawMessage(nil), raw...)
	return &p, nil
}

// ChargeIDFromWebhook extracts the marketplace charge id without verifying anything.
// Use it only to look up the caller's own charge record, never to authorize.
func ChargeIDFromWebhook(raw []byte) (string, error) {
	p, err := ParseWebhook(raw)
	if err != nil {
		return "", err
	}
	return p.Operation.ShopProcessID, nil
}

// VerifyWebhook parses raw and verifies it against the charge the caller expects.
// See VerifyWebhookPayload for the outcomes.
func (c *Connector) VerifyWebhook(ctx context.Context, raw []byte, chargeID string, amount decimal.Decimal, currency string) (*Confirmation, error) {
	id, err := validateChargeRef(chargeID, amount, currency)
	if err != nil {
		return nil, err
	}
	p, err := ParseWebhook(raw)
	if err != nil {
		c.observeWebhook(ctx, id, err)
		return nil, err
	}
	return c.verify(ctx, p, id, amount, currency)
}

// VerifyWebhookPayload verifies an already decoded webhook. The charge id must match,
// then the token is recomputed from the expected amount and currency:
//   - structural problems and charge id mismatches fail with ErrInvalidWebhookData;
//   - a token mismatch fails with ErrInvalidWebhookToken;
//   - response code "00" returns Paid with the authorization number;
//   - any other code fails with its payment rejection kind (also ErrPaymentRejected).
func (c *Connector) VerifyWebhookPayload(ctx context.Context, p *WebhookPayload, chargeID string, amount decimal.Decimal, currency string) (*Confirmation, error) {
	id, err := validateChargeRef(chargeID, amount, currency)
	if err != nil {
		return nil, err
	}
	return c.verify(ctx, p, id, amount, currency)
}

func (c *Connector) verify(ctx context.Context, p *WebhookPayload, chargeID string, amount decimal.Decimal, currency string) (out *Confirmation, err error) {
	defer func() { c.observeWebhook(ctx, chargeID, err) }()

	raw := p.Raw()
	if p == nil || p.Operation == nil {
		return nil, invalidWebhookData(raw, nil)
	}
	op := p.Operation
	if op.ShopProcessID == "" || op.Token == "" || op.ResponseCode == "" {
		return nil, invalidWebhookData(raw, nil)
	}

	if canonical, err := ValidateChargeID(op.ShopProcessID); err != nil || canonical != chargeID {
		return nil, &Error{
			Kind:     KindInvalidWebhookData,
			Message:  "Invalid webhook data.",
			ChargeID: chargeID,
			Response: raw,
		}
	}

	formatted, err := FormatAmount(currency, amount)
	if err != nil {
		return nil, err
	}
	if !tokensEqual(op.Token, c.signer.WebhookToken(chargeID, formatted, currency)) {
		return nil, &Error{
			Kind:     KindInvalidWebhookToken,
			Message:  "The webhook did not pass the token validation.",
			ChargeID: chargeID,
			Response: raw,
		}
	}

	if op.ResponseCode != CodeApproved {
		kind, msg := rejectionForCode(op.ResponseCode)
		return nil, &Error{
			Kind:     kind,
			Message:  msg,
			ChargeID: chargeID,
			Code:     op.ResponseCode,
			Response: raw,
		}
	}
	if op.AuthorizationNumber == "" {
		return nil, &Error{
			Kind:     KindInvalidWebhookData,
			Message:  "Invalid webhook data.",
			ChargeID: chargeID,
			Code:     op.ResponseCode,
			Response: raw,
		}
	}

	return &Confirmation{
		State:               Paid,
		AuthorizationNumber: op.AuthorizationNumber,
		TicketNumber:        op.TicketNumber,
		ResponseDescription: op.ResponseDescription,
		Response:            raw,
	}, nil
}

func (c *Connector) observeWebhook(ctx context.Context, chargeID string, err error) {
	metrics.RecordWebhook(outcomeLabel(err))

	log := c.log.With(zap.String("operation", "verify_webhook"), zap.String("charge_id", chargeID))
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		log = log.With(zap.String("request_id", reqID))
	}

	switch {
	case err == nil:
		log.Info("webhook verified")
	case errors.Is(err, ErrInvalidWebhookData), errors.Is(err, ErrInvalidWebhookToken):
		log.Warn("webhook rejected, possible tampering", zap.String("kind", KindOf(err).String()))
	default:
		log.Info("webhook reported a failed payment", zap.String("kind", KindOf(err).String()))
	}
}
