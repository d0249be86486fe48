package charge

import (
	"context"
	"errors"
	"strconv"

	"bancard-connector/internal/logger"
	"bancard-connector/vpos"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateway is the part of *vpos.Connector the service needs.
type Gateway interface {
	CreateCharge(ctx context.Context, req vpos.ChargeRequest) (*vpos.ChargeOutcome, error)
	GetChargeStatus(ctx context.Context, chargeID string, amount decimal.Decimal, currency string) (*vpos.Confirmation, error)
	RollbackCharge(ctx context.Context, chargeID string, amount decimal.Decimal, currency string) (*vpos.RollbackResult, error)
	VerifyWebhook(ctx context.Context, raw []byte, chargeID string, amount decimal.Decimal, currency string) (*vpos.Confirmation, error)
	PaymentURL(processID string) string
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Charge, string, error)
	Get(ctx context.Context, id int64) (*Charge, error)
	RefreshStatus(ctx context.Context, id int64) (*Charge, error)
	Rollback(ctx context.Context, id int64) (*Charge, error)
	ConfirmFromWebhook(ctx context.Context, raw []byte) (*Charge, error)
	PaymentURL(c *Charge) string
}

type service struct {
	repo    Repository
	gateway Gateway
}

func NewService(repo Repository, gateway Gateway) Service {
	return &service{repo: repo, gateway: gateway}
}

func chargeID(c *Charge) string {
	return vpos.ChargeIDFromInt(c.ID)
}

func (s *service) PaymentURL(c *Charge) string {
	if c == nil || c.ProcessID == "" {
		return ""
	}
	return s.gateway.PaymentURL(c.ProcessID)
}

// Create stores a pending charge, registers it at the gateway under the stored id and
// returns the payer redirect URL.
func (s *service) Create(ctx context.Context, in CreateInput) (*Charge, string, error) {
	if in.Currency == "" {
		in.Currency = vpos.CurrencyPYG
	}

	// Reject bad input before a row is spent on it.
	if err := validateInput(in); err != nil {
		return nil, "", err
	}

	c := &Charge{
		Amount:      in.Amount,
		Currency:    in.Currency,
		Description: in.Description,
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, "", err
	}

	ctx = logger.WithChargeID(ctx, chargeID(c))
	log := logger.FromCtx(ctx)

	out, err := s.gateway.CreateCharge(ctx, vpos.ChargeRequest{
		MarketplaceChargeID: chargeID(c),
		Amount:              in.Amount,
		Currency:            in.Currency,
		Description:         in.Description,
		ApprovedURL:         in.ApprovedURL,
		CancelledURL:        in.CancelledURL,
	})
	if err != nil {
		if vpos.KindOf(err) != 0 {
			s.markFailed(ctx, c, err.Error())
		}
		return c, "", err
	}

	if err := s.repo.SetProcessID(ctx, c.ID, out.ProcessID); err != nil {
		log.Error("failed to store process id", zap.String("process_id", out.ProcessID), zap.Error(err))
		return c, "", err
	}
	c.ProcessID = out.ProcessID

	log.Info("charge created", zap.String("process_id", out.ProcessID))
	return c, out.PaymentURL, nil
}

func validateInput(in CreateInput) error {
	if err := vpos.ValidateAmount(in.Amount); err != nil {
		return err
	}
	if err := vpos.ValidateDescription(in.Description); err != nil {
		return err
	}
	if err := vpos.ValidateApprovedURL(in.ApprovedURL); err != nil {
		return err
	}
	if err := vpos.ValidateCancelledURL(in.CancelledURL); err != nil {
		return err
	}
	if err := vpos.ValidateCurrency(in.Currency); err != nil {
		return err
	}
	// The stored amount is re-signed on status, rollback and webhook calls.
	return vpos.ValidateAmountPrecision(in.Currency, in.Amount)
}

func (s *service) Get(ctx context.Context, id int64) (*Charge, error) {
	return s.repo.GetByChargeID(ctx, id)
}

// RefreshStatus asks the gateway for the payment state of a pending charge and stores
// the result. Settled charges are returned as they are.
func (s *service) RefreshStatus(ctx context.Context, id int64) (*Charge, error) {
	c, err := s.repo.GetByChargeID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.Final() {
		return c, nil
	}

	ctx = logger.WithChargeID(ctx, chargeID(c))

	conf, err := s.gateway.GetChargeStatus(ctx, chargeID(c), c.Amount, c.Currency)
	if err != nil {
		if errors.Is(err, vpos.ErrPaymentRejected) {
			s.markFailed(ctx, c, err.Error())
			return c, nil
		}
		return nil, err
	}

	if conf.State == vpos.Paid {
		if err := s.markPaid(ctx, c, conf.AuthorizationNumber); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Rollback cancels the charge at the gateway. Rolling back twice is a no-op.
func (s *service) Rollback(ctx context.Context, id int64) (*Charge, error) {
	c, err := s.repo.GetByChargeID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusRolledBack {
		return c, nil
	}

	ctx = logger.WithChargeID(ctx, chargeID(c))

	res, err := s.gateway.RollbackCharge(ctx, chargeID(c), c.Amount, c.Currency)
	if err != nil {
		return nil, err
	}
	if !res.RolledBack {
		return c, nil
	}

	if err := s.repo.UpdateStatus(ctx, c.ID, StatusRolledBack, c.AuthorizationNumber, ""); err != nil {
		return nil, err
	}
	c.Status = StatusRolledBack
	logger.FromCtx(ctx).Info("charge rolled back")
	return c, nil
}

// ConfirmFromWebhook verifies a gateway callback against the stored charge. Payment
// rejections are recorded on the charge and are not errors; tampered or unknown
// payloads are.
func (s *service) ConfirmFromWebhook(ctx context.Context, raw []byte) (*Charge, error) {
	idText, err := vpos.ChargeIDFromWebhook(raw)
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return nil, &vpos.Error{Kind: vpos.KindInvalidWebhookData, Message: "Invalid webhook data.", Response: raw, Err: err}
	}

	c, err := s.repo.GetByChargeID(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithChargeID(ctx, chargeID(c))
	log := logger.FromCtx(ctx)

	conf, verifyErr := s.gateway.VerifyWebhook(ctx, raw, chargeID(c), c.Amount, c.Currency)

	outcome := "ok"
	if verifyErr != nil {
		outcome = vpos.KindOf(verifyErr).String()
	}
	if err := s.repo.SaveWebhook(ctx, c.ID, raw, outcome); err != nil {
		log.Error("failed to save webhook", zap.Error(err))
	}

	switch {
	case verifyErr == nil && c.Status == StatusRolledBack:
		log.Warn("approved webhook for a rolled back charge, status kept",
			zap.String("authorization_number", conf.AuthorizationNumber))
	case verifyErr == nil:
		if err := s.markPaid(ctx, c, conf.AuthorizationNumber); err != nil {
			return nil, err
		}
	case errors.Is(verifyErr, vpos.ErrPaymentRejected):
		if !c.Status.Final() {
			s.markFailed(ctx, c, verifyErr.Error())
		}
	default:
		return nil, verifyErr
	}
	return c, nil
}

func (s *service) markPaid(ctx context.Context, c *Charge, authorizationNumber string) error {
	if err := s.repo.UpdateStatus(ctx, c.ID, StatusPaid, authorizationNumber, ""); err != nil {
		logger.FromCtx(ctx).Error("failed to mark charge paid", zap.Error(err))
		return err
	}
	c.Status = StatusPaid
	c.AuthorizationNumber = authorizationNumber
	c.FailureReason = ""
	logger.FromCtx(ctx).Info("charge paid", zap.String("authorization_number", authorizationNumber))
	return nil
}

func (s *service) markFailed(ctx context.Context, c *Charge, reason string) {
	if err := s.repo.UpdateStatus(ctx, c.ID, StatusFailed, "", reason); err != nil {
		logger.FromCtx(ctx).Error("failed to mark charge failed", zap.Error(err))
		return
	}
	c.Status = StatusFailed
	c.FailureReason = reason
	logger.FromCtx(ctx).Info("charge failed", zap.String("reason", reason))
}
