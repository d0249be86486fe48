package charge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type Repository interface {
	Migrate(ctx context.Context) error
	Create(ctx context.Context, c *Charge) error
	GetByChargeID(ctx context.Context, id int64) (*Charge, error)
	SetProcessID(ctx context.Context, id int64, processID string) error
	UpdateStatus(ctx context.Context, id int64, status Status, authorizationNumber, reason string) error
	SaveWebhook(ctx context.Context, chargeID int64, payload json.RawMessage, outcome string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS charges (
	id                   BIGSERIAL PRIMARY KEY,
	process_id           TEXT NOT NULL DEFAULT '',
	amount               NUMERIC(18,2) NOT NULL,
	currency             CHAR(3) NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL,
	authorization_number TEXT NOT NULL DEFAULT '',
	failure_reason       TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS charge_webhooks (
	id          BIGSERIAL PRIMARY KEY,
	charge_id   BIGINT NOT NULL,
	outcome     TEXT NOT NULL,
	payload     JSONB NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (r *repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate charges: %w", err)
	}
	return nil
}

func (r *repository) Create(ctx context.Context, c *Charge) error {
	const q = `
	INSERT INTO charges (amount, currency, description, status)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at;
	`

	err := r.db.QueryRowContext(ctx, q, c.Amount, c.Currency, c.Description, c.Status).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedCreateCharge, err)
	}
	return nil
}

func (r *repository) GetByChargeID(ctx context.Context, id int64) (*Charge, error) {
	const q = `
	SELECT id, process_id, amount, currency, description, status,
		authorization_number, failure_reason, created_at, updated_at
	FROM charges WHERE id = $1;
	`

	var c Charge
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.ProcessID, &c.Amount, &c.Currency, &c.Description, &c.Status,
		&c.AuthorizationNumber, &c.FailureReason, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChargeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFailedGetCharge, err)
	}
	return &c, nil
}

func (r *repository) SetProcessID(ctx context.Context, id int64, processID string) error {
	const q = `UPDATE charges SET process_id = $1, updated_at = now() WHERE id = $2`
	return r.exec(ctx, q, processID, id)
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status, authorizationNumber, reason string) error {
	const q = `UPDATE charges SET status = $1, authorization_number = $2, failure_reason = $3, updated_at = now() WHERE id = $4`
	return r.exec(ctx, q, status, authorizationNumber, reason, id)
}

func (r *repository) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedUpdateCharge, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedUpdateCharge, err)
	}
	if n == 0 {
		return ErrChargeNotFound
	}
	return nil
}

// SaveWebhook keeps an audit copy of every webhook body, verified or not.
func (r *repository) SaveWebhook(ctx context.Context, chargeID int64, payload json.RawMessage, outcome string) error {
	const q = `INSERT INTO charge_webhooks (charge_id, outcome, payload) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, q, chargeID, outcome, []byte(payload)); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedSaveWebhook, err)
	}
	return nil
}
