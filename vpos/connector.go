package vpos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bancard-connector/internal/logger"
	"bancard-connector/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Operation names used in logs and metrics.
const (
	opCreateCharge   = "create_charge"
	opGetStatus      = "get_charge_status"
	opRollbackCharge = "rollback_charge"
)

// Config holds the merchant credentials issued by the gateway.
type Config struct {
	Environment Environment
	PublicKey   string
	PrivateKey  string
}

// Connector talks to the single-buy webservice. It is immutable and safe for
// concurrent use.
type Connector struct {
	env       Environment
	publicKey string
	signer    Signer
	urls      endpoints
	client    GatewayClient
	log       *zap.Logger
}

type options struct {
	client     GatewayClient
	httpClient *http.Client
	log        *zap.Logger
	baseURL    string
}

// Option customises a Connector built by New.
type Option func(*options)

// WithGatewayClient replaces the HTTP transport entirely.
func WithGatewayClient(c GatewayClient) Option {
	return func(o *options) { o.client = c }
}

// WithHTTPClient sets the http.Client used by the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger the connector and its default transport write to.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithBaseURL overrides the environment's gateway base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// New validates cfg and builds a connector. Missing keys or an unknown environment
// fail with ErrConfiguration.
func New(cfg Config, opts ...Option) (*Connector, error) {
	env, ok := ParseEnvironment(string(cfg.Environment))
	if !ok {
		return nil, newError(KindConfiguration, "The environment must be either sandbox or production.")
	}
	if strings.TrimSpace(cfg.PublicKey) == "" || strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, newError(KindConfiguration, "The public_key and private_key are required.")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.L()
	}
	log := o.log.With(zap.String("component", "vpos"), zap.String("environment", string(env)))
	if o.client == nil {
		o.client = NewHTTPClient(o.httpClient, log)
	}
	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = env.BaseURL()
	}

	return &Connector{
		env:       env,
		publicKey: cfg.PublicKey,
		signer:    NewSigner(cfg.PrivateKey),
		urls:      endpointsFor(baseURL),
		client:    o.client,
		log:       log,
	}, nil
}

// Environment reports the gateway deployment the connector talks to.
func (c *Connector) Environment() Environment {
	return c.env
}

// PaymentURL builds the page the payer must be redirected to for a process id.
func (c *Connector) PaymentURL(processID string) string {
	return c.urls.paymentPage + processID
}

// CreateCharge validates the request, asks the gateway for a process id and returns
// the payer redirect URL. Reusing a charge id fails with ErrDuplicateChargeID.
func (c *Connector) CreateCharge(ctx context.Context, req ChargeRequest) (out *ChargeOutcome, err error) {
	timer := metrics.StartTimer()
	defer func() { c.observe(ctx, opCreateCharge, req.MarketplaceChargeID, timer, err) }()

	chargeID, err := req.Validate()
	if err != nil {
		return nil, err
	}
	amount, err := FormatAmount(req.Currency, req.Amount)
	if err != nil {
		return nil, err
	}

	body := operationRequest{
		PublicKey: c.publicKey,
		Operation: chargeOperation{
			Token:         c.signer.ChargeToken(chargeID, amount, req.Currency),
			ShopProcessID: chargeID,
			Currency:      req.Currency,
			Amount:        amount,
			Description:   req.Description,
			ReturnURL:     req.ApprovedURL,
			CancelURL:     req.CancelledURL,
		},
	}

	raw, err := c.client.PostJSON(ctx, c.urls.charge, body)
	if err != nil {
		return nil, err
	}
	return interpretCharge(raw, chargeID, c.urls.paymentPage)
}

// GetChargeStatus queries the confirmation webservice. It returns Paid with the
// authorization number, NotYetPaid, or a payment rejection error. A paid charge whose
// amount or currency differ from the expected ones fails with ErrInconsistentCharge.
func (c *Connector) GetChargeStatus(ctx context.Context, chargeID string, amount decimal.Decimal, currency string) (out *Confirmation, err error) {
	timer := metrics.StartTimer()
	defer func() { c.observe(ctx, opGetStatus, chargeID, timer, err) }()

	id, err := validateChargeRef(chargeID, amount, currency)
	if err != nil {
		return nil, err
	}

	body := operationRequest{
		PublicKey: c.publicKey,
		Operation: lookupOperation{
			Token:         c.signer.ConfirmationToken(id),
			ShopProcessID: json.Number(id),
		},
	}

	raw, err := c.client.PostJSON(ctx, c.urls.confirmations, body)
	if err != nil {
		return nil, err
	}
	return interpretConfirmation(raw, id, currency, amount)
}

// RollbackCharge cancels a charge that has not been confirmed. Rolling back a charge
// the gateway never saw paid succeeds.
func (c *Connector) RollbackCharge(ctx context.Context, chargeID string, amount decimal.Decimal, currency string) (out *RollbackResult, err error) {
	timer := metrics.StartTimer()
	defer func() { c.observe(ctx, opRollbackCharge, chargeID, timer, err) }()

	id, err := validateChargeRef(chargeID, amount, currency)
	if err != nil {
		return nil, err
	}
	formatted, err := FormatAmount(currency, amount)
	if err != nil {
		return nil, err
	}

	body := operationRequest{
		PublicKey: c.publicKey,
		Operation: lookupOperation{
			Token:         c.signer.RollbackToken(id, formatted),
			ShopProcessID: json.Number(id),
		},
	}

	raw, err := c.client.PostJSON(ctx, c.urls.rollback, body)
	if err != nil {
		return nil, err
	}
	return interpretRollback(raw, id)
}

func (c *Connector) observe(ctx context.Context, op, chargeID string, timer *metrics.Timer, err error) {
	outcome := outcomeLabel(err)
	timer.ObserveGateway(op, outcome)

	log := c.log.With(
		zap.String("operation", op),
		zap.String("charge_id", chargeID),
		zap.Duration("duration", timer.Duration()),
	)
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		log = log.With(zap.String("request_id", reqID))
	}

	var vErr *Error
	switch {
	case err == nil:
		log.Info("gateway operation completed")
	case errors.As(err, &vErr):
		log.Warn("gateway operation failed",
			zap.String("kind", vErr.Kind.String()),
			zap.String("status", vErr.Status),
			zap.String("code", vErr.Code),
			zap.ByteString("response", RedactTokens(vErr.Response)),
		)
		log.Debug("gateway raw response", zap.ByteString("response", vErr.Response))
	default:
		log.Error("gateway transport failed", zap.Error(err))
	}
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := KindOf(err); kind != 0 {
		return kind.String()
	}
	return "transport"
}
