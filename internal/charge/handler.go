package charge

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bancard-connector/internal/logger"
	"bancard-connector/vpos"

	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the charge routes on mux.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("POST /charges", wrap(http.HandlerFunc(h.Create)))
	mux.Handle("GET /charges/{id}", wrap(http.HandlerFunc(h.Get)))
	mux.Handle("GET /charges/{id}/status", wrap(http.HandlerFunc(h.Status)))
	mux.Handle("POST /charges/{id}/rollback", wrap(http.HandlerFunc(h.Rollback)))
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if kind := vpos.KindOf(err); kind != 0 {
		resp.Kind = kind.String()
	}
	if status >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("charge request failed", zap.Error(err))
		if vpos.KindOf(err) == 0 {
			resp.Error = http.StatusText(status)
		}
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrChargeNotFound):
		return http.StatusNotFound
	case errors.Is(err, vpos.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, vpos.ErrDuplicateChargeID), errors.Is(err, vpos.ErrInconsistentCharge):
		return http.StatusConflict
	case errors.Is(err, vpos.ErrChargeRejected), errors.Is(err, vpos.ErrPaymentRejected),
		errors.Is(err, vpos.ErrRollbackFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vpos.ErrTransport), errors.Is(err, vpos.ErrUnexpectedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	c, paymentURL, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(c, paymentURL))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid charge id"})
		return
	}

	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(c, h.svc.PaymentURL(c)))
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid charge id"})
		return
	}

	c, err := h.svc.RefreshStatus(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(c, h.svc.PaymentURL(c)))
}

func (h *Handler) Rollback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid charge id"})
		return
	}

	c, err := h.svc.Rollback(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(c, ""))
}
