package interfaces

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/finance/application"
)

type MaterializerInterface interface {
	MaterializeDue(ctx context.Context, today time.Time) (*application.MaterializeResult, error)
}

// CronHandler exposes the materializer over HTTP for external schedulers.
// Callers authenticate with "Authorization: Bearer <CRON_SECRET>".
type CronHandler struct {
	materializer MaterializerInterface
	secret       string
	respondJSON  api.RespondJSONFunc
	respondError api.RespondErrorFunc
	now          func() time.Time
}

func NewCronHandler(materializer MaterializerInterface, secret string, respondJSON api.RespondJSONFunc, respondError api.RespondErrorFunc) *CronHandler {
	return &CronHandler{
		materializer: materializer,
		secret:       secret,
		respondJSON:  respondJSON,
		respondError: respondError,
		now:          time.Now,
	}
}

func (h *CronHandler) Materialize(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.respondError(w, http.StatusServiceUnavailable, "Cron trigger is not configured")
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.materializer.MaterializeDue(r.Context(), h.now())
	if err != nil {
		log.Error().Err(err).Msg("Materialization failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to materialize transactions")
		return
	}
	log.Info().Int("recurring_posted", result.RecurringPosted).Int64("incoming_posted", result.IncomingPosted).Msg("Materialized due transactions")
	h.respondJSON(w, http.StatusOK, api.Success("Due transactions materialized.", result))
}
