package budget

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

var logger = logging.New("budget")

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
	case errors.Is(err, ErrBudgetNotFound):
		h.respondError(w, http.StatusNotFound, "Budget not found")
	case errors.Is(err, ErrBudgetExists):
		h.respondError(w, http.StatusConflict, "A budget for this category and period already exists")
	default:
		logger.Error().Err(err).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var b Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.WorkspaceID = r.PathValue("workspaceID")
	b.UserID = userID

	if err := h.service.CreateBudget(r.Context(), &b); err != nil {
		h.handleError(w, err, "Failed to create budget")
		return
	}
	h.respondJSON(w, http.StatusCreated, api.Success("Budget successfully created.", b))
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.service.ListBudgets(r.Context(), r.PathValue("workspaceID"))
	if err != nil {
		h.handleError(w, err, "Failed to retrieve budgets")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Budgets retrieved successfully.", budgets))
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBudget(r.Context(), r.PathValue("workspaceID"), r.PathValue("budgetID"))
	if err != nil {
		h.handleError(w, err, "Failed to retrieve budget")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Budget retrieved successfully.", b))
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var b Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.ID = r.PathValue("budgetID")
	b.WorkspaceID = r.PathValue("workspaceID")

	if err := h.service.UpdateBudget(r.Context(), &b); err != nil {
		h.handleError(w, err, "Failed to update budget")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Budget successfully updated.", b))
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBudget(r.Context(), r.PathValue("workspaceID"), r.PathValue("budgetID")); err != nil {
		h.handleError(w, err, "Failed to delete budget")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Budget successfully deleted.", nil))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.Status(r.Context(), r.PathValue("workspaceID"), h.now())
	if err != nil {
		h.handleError(w, err, "Failed to retrieve budget status")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Budget status retrieved successfully.", statuses))
}
