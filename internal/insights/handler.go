package insights

import (
	"errors"
	"net/http"
	"time"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
)

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
	if errors.Is(err, ErrAlertNotFound) {
		h.respondError(w, http.StatusNotFound, "Alert not found")
		return
	}
	logger.Error().Err(err).Msg(fallback)
	h.respondError(w, http.StatusInternalServerError, fallback)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context(), r.PathValue("workspaceID"), h.now())
	if err != nil {
		h.handleError(w, err, "Failed to build dashboard")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Dashboard retrieved successfully.", dashboard))
}

func (h *Handler) GenerateAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	alerts, err := h.service.GenerateAlerts(r.Context(), r.PathValue("workspaceID"), userID, h.now())
	if err != nil {
		h.handleError(w, err, "Failed to generate alerts")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Alerts generated.", alerts))
}

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	alerts, err := h.service.ListAlerts(r.Context(), r.PathValue("workspaceID"), unreadOnly)
	if err != nil {
		h.handleError(w, err, "Failed to retrieve alerts")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Alerts retrieved successfully.", alerts))
}

func (h *Handler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkAlertRead(r.Context(), r.PathValue("workspaceID"), r.PathValue("alertID")); err != nil {
		h.handleError(w, err, "Failed to update alert")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Alert marked as read.", nil))
}

func (h *Handler) MarkAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.MarkAllAlertsRead(r.Context(), r.PathValue("workspaceID"))
	if err != nil {
		h.handleError(w, err, "Failed to update alerts")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("All alerts marked as read.", map[string]int64{"updated": updated}))
}

func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAlert(r.Context(), r.PathValue("workspaceID"), r.PathValue("alertID")); err != nil {
		h.handleError(w, err, "Failed to delete alert")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Alert deleted.", nil))
}

func (h *Handler) GetTips(w http.ResponseWriter, r *http.Request) {
	tips, err := h.service.Tips(r.Context(), r.PathValue("workspaceID"), h.now())
	if err != nil {
		h.handleError(w, err, "Failed to build tips")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Tips retrieved successfully.", tips))
}
