package assistant

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
)

type Handler struct {
	service      Service
	limiter      *RateLimiter
	respondJSON  api.RespondJSONFunc
	respondError api.RespondErrorFunc
	now          func() time.Time
}

func NewHandler(service Service, limiter *RateLimiter, respondJSON api.RespondJSONFunc, respondError api.RespondErrorFunc) *Handler {
	return &Handler{service: service, limiter: limiter, respondJSON: respondJSON, respondError: respondError, now: time.Now}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !h.limiter.Allow(userID) {
		h.respondError(w, http.StatusTooManyRequests, "Too many requests, please slow down")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.service.Chat(r.Context(), r.PathValue("workspaceID"), req.Messages, h.now())
	var validationErr *ValidationError
	switch {
	case err == nil:
		h.respondJSON(w, http.StatusOK, api.Success("Assistant replied.", reply))
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, ErrNotConfigured):
		h.respondError(w, http.StatusServiceUnavailable, "Assistant is not available")
	default:
		logger.Error().Err(err).Str("userID", userID).Msg("Failed to get assistant reply")
		h.respondError(w, http.StatusBadGateway, "Failed to get assistant reply")
	}
}
