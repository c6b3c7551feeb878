package education

import (
	"errors"
	"net/http"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
)

type Handler struct {
	service      Service
	respondJSON  api.RespondJSONFunc
	respondError api.RespondErrorFunc
}

func NewHandler(service Service, respondJSON api.RespondJSONFunc, respondError api.RespondErrorFunc) *Handler {
	return &Handler{service: service, respondJSON: respondJSON, respondError: respondError}
}

func (h *Handler) handleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrModuleNotFound):
		h.respondError(w, http.StatusNotFound, "Module not found")
	case errors.Is(err, ErrLessonNotFound):
		h.respondError(w, http.StatusNotFound, "Lesson not found")
	default:
		logger.Error().Err(err).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	modules, err := h.service.ListModules(r.Context(), userID)
	if err != nil {
		h.handleError(w, err, "Failed to retrieve modules")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Modules retrieved successfully.", modules))
}

func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	module, err := h.service.GetModule(r.Context(), r.PathValue("moduleSlug"), userID)
	if err != nil {
		h.handleError(w, err, "Failed to retrieve module")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Module retrieved successfully.", module))
}

func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	lesson, err := h.service.GetLesson(r.Context(), r.PathValue("moduleSlug"), r.PathValue("lessonSlug"), userID)
	if err != nil {
		h.handleError(w, err, "Failed to retrieve lesson")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Lesson retrieved successfully.", lesson))
}

func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.CompleteLesson(r.Context(), r.PathValue("moduleSlug"), r.PathValue("lessonSlug"), userID)
	if err != nil {
		h.handleError(w, err, "Failed to complete lesson")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Lesson marked as completed.", summary))
}
