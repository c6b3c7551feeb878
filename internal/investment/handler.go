package investments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
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

func NewInvestmentHandler(service Service, respondJSON api.RespondJSONFunc, respondError api.RespondErrorFunc) *Handler {
	return &Handler{service: service, respondJSON: respondJSON, respondError: respondError, now: time.Now}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (h *Handler) handleError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, ErrInvestmentNotFound):
		h.respondError(w, http.StatusNotFound, "Investment not found")
	case errors.Is(err, ErrMarketData):
		logger.Warn().Err(err).Msg("ticker check failed")
		h.respondError(w, http.StatusBadGateway, "Could not verify the ticker symbol, try again later")
	default:
		logger.Error().Err(err).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var inv Investment
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	inv.WorkspaceID = r.PathValue("workspaceID")
	inv.UserID = userID

	if err := h.service.CreateInvestment(r.Context(), &inv); err != nil {
		h.handleError(w, err, "Failed to create investment")
		return
	}
	h.respondJSON(w, http.StatusCreated, api.Success("Investment successfully created.", inv))
}

func (h *Handler) GetInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := h.service.GetInvestments(r.Context(), r.PathValue("workspaceID"))
	if err != nil {
		h.handleError(w, err, "Failed to retrieve investments")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("List of investments retrieved successfully.", investments))
}

func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvestment(r.Context(), r.PathValue("workspaceID"), pathID(r, "investmentID"))
	if err != nil {
		h.handleError(w, err, "Failed to retrieve investment")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Investment retrieved successfully.", inv))
}

func (h *Handler) UpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv Investment
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	inv.ID = pathID(r, "investmentID")
	inv.WorkspaceID = r.PathValue("workspaceID")

	if err := h.service.UpdateInvestment(r.Context(), &inv); err != nil {
		h.handleError(w, err, "Failed to update investment")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Investment successfully updated.", inv))
}

func (h *Handler) DeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteInvestment(r.Context(), r.PathValue("workspaceID"), pathID(r, "investmentID")); err != nil {
		h.handleError(w, err, "Failed to delete investment")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Investment deleted successfully.", nil))
}

func (h *Handler) GetInvestmentTypes(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, api.Success("Investment types retrieved successfully.", InvestmentTypes()))
}

func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Portfolio(r.Context(), r.PathValue("workspaceID"))
	if err != nil {
		h.handleError(w, err, "Failed to retrieve portfolio")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Portfolio retrieved successfully.", p))
}

func (h *Handler) GetNetWorthProjection(w http.ResponseWriter, r *http.Request) {
	years := 0
	if s := r.URL.Query().Get("years"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed <= 0 {
			h.respondError(w, http.StatusBadRequest, "Invalid years value")
			return
		}
		years = parsed
	}

	points, err := h.service.NetWorthProjection(r.Context(), r.PathValue("workspaceID"), years, h.now())
	if err != nil {
		h.handleError(w, err, "Failed to project net worth")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Net worth projection retrieved successfully.", points))
}
