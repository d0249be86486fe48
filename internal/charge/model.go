package charge

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPaid       Status = "PAID"
	StatusFailed     Status = "FAILED"
	StatusRolledBack Status = "ROLLED_BACK"
)

// Final reports whether no further gateway transition is expected.
func (s Status) Final() bool {
	return s == StatusPaid || s == StatusRolledBack
}

// Charge is the merchant-side record of one single-buy attempt. ID doubles as the
// marketplace charge id sent to the gateway.
type Charge struct {
	ID                  int64
	ProcessID           string
	Amount              decimal.Decimal
	Currency            string
	Description         string
	Status              Status
	AuthorizationNumber string
	FailureReason       string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CreateInput struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description"`
	ApprovedURL  string          `json:"approved_url"`
	CancelledURL string          `json:"cancelled_url"`
}

type ChargeResponse struct {
	ID                  int64  `json:"id"`
	ProcessID           string `json:"process_id,omitempty"`
	PaymentURL          string `json:"payment_url,omitempty"`
	Amount              string `json:"amount"`
	Currency            string `json:"currency"`
	Description         string `json:"description,omitempty"`
	Status              Status `json:"status"`
	AuthorizationNumber string `json:"authorization_number,omitempty"`
	FailureReason       string `json:"failure_reason,omitempty"`
}

func toResponse(c *Charge, paymentURL string) ChargeResponse {
	return ChargeResponse{
		ID:                  c.ID,
		ProcessID:           c.ProcessID,
		PaymentURL:          paymentURL,
		Amount:              c.Amount.String(),
		Currency:            c.Currency,
		Description:         c.Description,
		Status:              c.Status,
		AuthorizationNumber: c.AuthorizationNumber,
		FailureReason:       c.FailureReason,
	}
}
