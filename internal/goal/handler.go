package goal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

var logger = logging.New("goal")

type Handler struct {
	service      Service
	respondJSON  api.RespondJSONFunc
	respondError api.RespondErrorFunc
	now          func() time.Time
}

func NewHandler(service Service, respondJSON api.RespondJSONFunc, respondError api.RespondErrorFunc) *Handler {
	return &Handler{service: service, respondJSON: respondJSON, respondError: respondError, now: time.Now}
}

func (h *Handler) handleError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, ErrGoalNotFound):
		h.respondError(w, http.StatusNotFound, "Goal not found")
	default:
		logger.Error().Err(err).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var g Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	g.WorkspaceID = r.PathValue("workspaceID")
	g.UserID = userID

	progress, err := h.service.CreateGoal(r.Context(), &g, h.now())
	if err != nil {
		h.handleError(w, err, "Failed to create goal")
		return
	}
	h.respondJSON(w, http.StatusCreated, api.Success("Goal successfully created.", progress))
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.ListGoals(r.Context(), r.PathValue("workspaceID"), h.now())
	if err != nil {
		h.handleError(w, err, "Failed to retrieve goals")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Goals retrieved successfully.", goals))
}

func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.GetGoal(r.Context(), r.PathValue("workspaceID"), r.PathValue("goalID"), h.now())
	if err != nil {
		h.handleError(w, err, "Failed to retrieve goal")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Goal retrieved successfully.", progress))
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	g.ID = r.PathValue("goalID")
	g.WorkspaceID = r.PathValue("workspaceID")

	progress, err := h.service.UpdateGoal(r.Context(), &g, h.now())
	if err != nil {
		h.handleError(w, err, "Failed to update goal")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Goal successfully updated.", progress))
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGoal(r.Context(), r.PathValue("workspaceID"), r.PathValue("goalID")); err != nil {
		h.handleError(w, err, "Failed to delete goal")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Goal successfully deleted.", nil))
}

func (h *Handler) Contribute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	progress, err := h.service.Contribute(r.Context(), r.PathValue("workspaceID"), r.PathValue("goalID"), body.Amount, h.now())
	if err != nil {
		h.handleError(w, err, "Failed to add contribution")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Contribution added.", progress))
}
