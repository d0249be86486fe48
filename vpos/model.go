package vpos

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ChargeRequest describes one single-buy attempt. MarketplaceChargeID is the caller's
// correlation key and must be unique per attempt at the gateway.
type ChargeRequest struct {
	MarketplaceChargeID string
	Amount              decimal.Decimal
	Currency            string
	Description         string
	ApprovedURL         string
	CancelledURL        string
}

// Validate runs every field check in the order the gateway documents them and
// returns the canonical charge id on success.
func (r ChargeRequest) Validate() (string, error) {
	id, err := ValidateChargeID(r.MarketplaceChargeID)
	if err != nil {
		return "", err
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return "", err
	}
	if err := ValidateDescription(r.Description); err != nil {
		return "", err
	}
	if err := ValidateApprovedURL(r.ApprovedURL); err != nil {
		return "", err
	}
	if err := ValidateCancelledURL(r.CancelledURL); err != nil {
		return "", err
	}
	if err := ValidateCurrency(r.Currency); err != nil {
		return "", err
	}
	return id, nil
}

// ChargeOutcome is a successfully created charge. The payer must be redirected to
// PaymentURL.
type ChargeOutcome struct {
	ProcessID  string
	PaymentURL string
	Response   json.RawMessage
}

// PaymentState is the non-error result of a status query or webhook.
type PaymentState int

const (
	NotYetPaid PaymentState = iota
	Paid
)

func (s PaymentState) String() string {
	if s == Paid {
		return "paid"
	}
	return "not_yet_paid"
}

// Confirmation is the result of a status query or a verified webhook. Rejected
// payments are reported as errors instead.
type Confirmation struct {
	State               PaymentState
	AuthorizationNumber string
	TicketNumber        string
	ResponseDescription string
	Response            json.RawMessage
}

// RollbackResult reports a rollback accepted by the gateway. A charge that was never
// paid counts as rolled back.
type RollbackResult struct {
	RolledBack bool
	Response   json.RawMessage
}

// Wire payloads.

type operationRequest struct {
	PublicKey string `json:"public_key"`
	Operation any    `json:"operation"`
}

type chargeOperation struct {
	Token          string `json:"token"`
	ShopProcessID  string `json:"shop_process_id"`
	Currency       string `json:"currency"`
	Amount         string `json:"amount"`
	AdditionalData string `json:"additional_data"`
	Description    string `json:"description"`
	ReturnURL      string `json:"return_url"`
	CancelURL      string `json:"cancel_url"`
}

type lookupOperation struct {
	Token         string      `json:"token"`
	ShopProcessID json.Number `json:"shop_process_id"`
}

// gatewayResponse is the typed projection of every gateway answer. Fields absent from
// the JSON stay at their zero value.
type gatewayResponse struct {
	Status       string           `json:"status"`
	ProcessID    flexString       `json:"process_id"`
	Messages     json.RawMessage  `json:"messages"`
	Confirmation *confirmation    `json:"confirmation"`
}

type gatewayMessage struct {
	Key   string `json:"key"`
	Level string `json:"level"`
	Dsc   string `json:"dsc"`
}

type confirmation struct {
	Token               string      `json:"token"`
	ShopProcessID       flexString  `json:"shop_process_id"`
	Response            string      `json:"response"`
	ResponseDetails     string      `json:"response_details"`
	Amount              *flexString `json:"amount"`
	Currency            string      `json:"currency"`
	AuthorizationNumber flexString  `json:"authorization_number"`
	TicketNumber        flexString  `json:"ticket_number"`
	ResponseCode        flexString  `json:"response_code"`
	ResponseDescription string      `json:"response_description"`
}

// flexString accepts a JSON string or number; the gateway is not consistent about ids.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
