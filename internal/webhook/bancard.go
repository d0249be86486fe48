package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bancard-connector/internal/charge"
	"bancard-connector/internal/logger"
	"bancard-connector/vpos"

	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// Confirmer applies a gateway callback to the stored charge.
type Confirmer interface {
	ConfirmFromWebhook(ctx context.Context, raw []byte) (*charge.Charge, error)
}

type Handler struct {
	charges Confirmer
}

func NewWebhookHandler(charges Confirmer) *Handler {
	return &Handler{charges: charges}
}

type ack struct {
	Status string `json:"status"`
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// BancardWebhookHandler receives the payment confirmation the gateway posts after the
// payer leaves the payment page. A verified callback is acknowledged with
// {"status":"success"}, including rejected payments.
func (h *Handler) BancardWebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	c, err := h.charges.ConfirmFromWebhook(r.Context(), body)
	if err != nil {
		switch {
		case errors.Is(err, vpos.ErrInvalidWebhookData), errors.Is(err, vpos.ErrInvalidWebhookToken):
			log.Warn("rejected webhook, possible tampering",
				zap.String("kind", vpos.KindOf(err).String()),
				zap.String("ip", r.RemoteAddr),
				zap.ByteString("payload", vpos.RedactTokens(body)),
			)
			log.Debug("rejected webhook raw payload", zap.ByteString("payload", body))
			http.Error(w, "invalid webhook", http.StatusUnauthorized)
		case errors.Is(err, charge.ErrChargeNotFound):
			log.Warn("webhook for unknown charge", zap.ByteString("payload", vpos.RedactTokens(body)))
			http.Error(w, "charge not found", http.StatusNotFound)
		case errors.Is(err, vpos.ErrInvalidParameter):
			log.Error("stored charge cannot be verified", zap.Error(err))
			http.Error(w, "charge cannot be verified", http.StatusUnprocessableEntity)
		default:
			log.Error("failed to process webhook", zap.Error(err))
			http.Error(w, "failed to process webhook", http.StatusInternalServerError)
		}
		return
	}

	log.Info("webhook processed",
		zap.Int64("charge_id", c.ID),
		zap.String("status", string(c.Status)),
	)
	respond(w, http.StatusOK, ack{Status: "success"})
}
