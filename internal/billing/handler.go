package billing

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	maxWebhookBody  = 1 << 20
)

type Handler struct {
	service       Service
	webhookSecret string
	respondJSON   api.RespondJSONFunc
	respondError  api.RespondErrorFunc
	now           func() time.Time
}

func NewHandler(service Service, webhookSecret string, respondJSON api.RespondJSONFunc, respondError api.RespondErrorFunc) *Handler {
	return &Handler{
		service:       service,
		webhookSecret: webhookSecret,
		respondJSON:   respondJSON,
		respondError:  respondError,
		now:           time.Now,
	}
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	status, err := h.service.Check(r.Context(), userID, h.now())
	if err != nil {
		logger.Error().Err(err).Str("userID", userID).Msg("Failed to check subscription")
		h.respondError(w, http.StatusInternalServerError, "Failed to check subscription")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Subscription retrieved successfully.", status))
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sig := r.Header.Get(signatureHeader)
	if h.webhookSecret == "" || sig == "" || !VerifyWebhookSignature(raw, sig, h.webhookSecret) {
		logger.Warn().Msg("webhook with invalid signature rejected")
		h.respondError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	applied, err := h.service.ApplyWebhook(r.Context(), raw)
	switch {
	case errors.Is(err, ErrInvalidPayload):
		h.respondError(w, http.StatusBadRequest, "Invalid payload")
	case errors.Is(err, ErrUnknownSubscription):
		h.respondError(w, http.StatusBadRequest, "Unknown subscription")
	case err != nil:
		logger.Error().Err(err).Msg("Failed to apply webhook")
		h.respondError(w, http.StatusInternalServerError, "Failed to apply webhook")
	case !applied:
		h.respondJSON(w, http.StatusOK, api.Success("Event ignored.", nil))
	default:
		h.respondJSON(w, http.StatusOK, api.Success("Subscription updated.", nil))
	}
}
