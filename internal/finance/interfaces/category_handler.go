package interfaces

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
)

type CategoryServiceInterface interface {
	GetAllPredefinedCategories(categoryType string) []domain.PredefinedCategory
	GetWorkspaceCategories(ctx context.Context, workspaceID string) ([]string, error)
}

type CategoryHandler struct {
	service      CategoryServiceInterface
	respondJSON  api.RespondJSONFunc
	respondError api.RespondErrorFunc
}

func NewCategoryHandler(
	service CategoryServiceInterface,
	respondJSON api.RespondJSONFunc,
	respondError api.RespondErrorFunc,
) *CategoryHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &CategoryHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categoryType := r.URL.Query().Get("type")
	if categoryType != "" && !domain.IsValidTransactionType(categoryType) {
		h.respondError(w, http.StatusBadRequest, "Invalid category type")
		return
	}

	h.respondJSON(w, http.StatusOK, api.Success("Categories retrieved successfully.", h.service.GetAllPredefinedCategories(categoryType)))
}

func (h *CategoryHandler) GetWorkspaceCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GetWorkspaceCategories(r.Context(), r.PathValue("workspaceID"))
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving workspace categories")
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Categories retrieved successfully.", categories))
}
