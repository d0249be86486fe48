package vpos

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

// Literal markers mixed into the token digests.
const (
	markerConfirmation = "get_confirmation"
	markerRollback     = "rollback"
	markerConfirm      = "confirm"
)

// Signer derives the per-operation tokens. Every token is the lowercase hex MD5 of
// the private key followed by operation-specific fields; the field order is part of
// the wire contract.
type Signer struct {
	privateKey string
}

// NewSigner returns a Signer for the merchant private key.
func NewSigner(privateKey string) Signer {
	return Signer{privateKey: privateKey}
}

// ChargeToken signs a single-buy creation request.
func (s Signer) ChargeToken(chargeID, formattedAmount, currency string) string {
	return s.digest(chargeID, formattedAmount, currency)
}

// ConfirmationToken signs a status query.
func (s Signer) ConfirmationToken(chargeID string) string {
	return s.digest(chargeID, markerConfirmation)
}

// RollbackToken signs a rollback request.
func (s Signer) RollbackToken(chargeID, formattedAmount string) string {
	return s.digest(chargeID, markerRollback, formattedAmount)
}

// WebhookToken is the token the gateway puts in a payment confirmation callback.
func (s Signer) WebhookToken(chargeID, formattedAmount, currency string) string {
	return s.digest(chargeID, markerConfirm, formattedAmount, currency)
}

func (s Signer) digest(fields ...string) string {
	h := md5.New()
	h.Write([]byte(s.privateKey))
	for _, f := range fields {
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func tokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
