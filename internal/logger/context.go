package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	chargeIDKey  ctxKey = "charge_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithChargeID tags every log line written through FromCtx with the marketplace
// charge id being processed.
func WithChargeID(ctx context.Context, chargeID string) context.Context {
	return context.WithValue(ctx, chargeIDKey, chargeID)
}

func ChargeIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(chargeIDKey).(string)
	return v
}

// FromCtx returns the global logger with request_id and charge_id added when present.
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if chargeID := ChargeIDFrom(ctx); chargeID != "" {
		l = l.With(zap.String("charge_id", chargeID))
	}
	return l
}
