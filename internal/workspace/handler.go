package workspace

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
)

type Handler struct {
	service      Service
	respondJSON  api.RespondJSONFunc
	respondError api.RespondErrorFunc
}

func NewHandler(service Service, respondJSON api.RespondJSONFunc, respondError api.RespondErrorFunc) *Handler {
	return &Handler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type workspaceRequest struct {
	Name string `json:"name"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type acceptRequest struct {
	InvitationID string `json:"invitation_id"`
	Token        string `json:"token"`
}

func (h *Handler) getUserIDReq(w http.ResponseWriter, r *http.Request) string {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return ""
	}
	return userID
}

// workspaceScope returns the caller and the {workspaceID} path value. A
// malformed id is reported as a missing workspace, as RequireMember does.
func (h *Handler) workspaceScope(w http.ResponseWriter, r *http.Request) (userID, workspaceID string, ok bool) {
	userID = h.getUserIDReq(w, r)
	if userID == "" {
		return "", "", false
	}
	workspaceID = r.PathValue("workspaceID")
	if _, err := uuid.Parse(workspaceID); err != nil {
		h.respondError(w, http.StatusNotFound, "Workspace not found")
		return "", "", false
	}
	return userID, workspaceID, true
}

func (h *Handler) handleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrWorkspaceNotFound):
		h.respondError(w, http.StatusNotFound, "Workspace not found")
	case errors.Is(err, ErrInvitationNotFound):
		h.respondError(w, http.StatusNotFound, "Invitation not found")
	case errors.Is(err, ErrNotMember):
		h.respondError(w, http.StatusNotFound, "Member not found")
	case errors.Is(err, ErrForbidden):
		h.respondError(w, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, ErrOwnerCannotBeRemoved), errors.Is(err, ErrOwnerCannotLeave), errors.Is(err, ErrPersonalWorkspace):
		h.respondError(w, http.StatusForbidden, capitalize(err.Error()))
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrInvitationUsed):
		h.respondError(w, http.StatusConflict, capitalize(err.Error()))
	case errors.Is(err, ErrInvitationExpired):
		h.respondError(w, http.StatusGone, "Invitation has expired")
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidRole), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrInvalidToken):
		h.respondError(w, http.StatusBadRequest, capitalize(err.Error()))
	default:
		logger.Error().Err(err).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(string(s[0])) + s[1:]
}

func (h *Handler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	var req workspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ws, err := h.service.CreateWorkspace(r.Context(), userID, auth.UserEmailFromContext(r.Context()), req.Name)
	if err != nil {
		h.handleError(w, err, "Failed to create workspace")
		return
	}
	h.respondJSON(w, http.StatusCreated, api.Success("Workspace successfully created.", ws))
}

func (h *Handler) GetDefaultWorkspace(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	ws, err := h.service.GetDefaultWorkspace(r.Context(), userID, auth.UserEmailFromContext(r.Context()))
	if err != nil {
		h.handleError(w, err, "Failed to retrieve default workspace")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Workspace retrieved successfully.", ws))
}

func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	workspaces, err := h.service.ListWorkspaces(r.Context(), userID)
	if err != nil {
		h.handleError(w, err, "Failed to retrieve workspaces")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Workspaces retrieved successfully.", workspaces))
}

func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	ws, err := h.service.GetWorkspace(r.Context(), workspaceID, userID)
	if err != nil {
		h.handleError(w, err, "Failed to retrieve workspace")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Workspace retrieved successfully.", ws))
}

func (h *Handler) RenameWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	var req workspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.service.RenameWorkspace(r.Context(), workspaceID, userID, req.Name); err != nil {
		h.handleError(w, err, "Failed to rename workspace")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Workspace successfully renamed.", nil))
}

func (h *Handler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteWorkspace(r.Context(), workspaceID, userID); err != nil {
		h.handleError(w, err, "Failed to delete workspace")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Workspace successfully deleted.", nil))
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	members, err := h.service.ListMembers(r.Context(), workspaceID, userID)
	if err != nil {
		h.handleError(w, err, "Failed to retrieve members")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Members retrieved successfully.", members))
}

func (h *Handler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	err := h.service.ChangeMemberRole(r.Context(), workspaceID, userID, r.PathValue("userID"), req.Role)
	if err != nil {
		h.handleError(w, err, "Failed to change member role")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Member role successfully updated.", nil))
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), workspaceID, userID, r.PathValue("userID")); err != nil {
		h.handleError(w, err, "Failed to remove member")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Member successfully removed.", nil))
}

func (h *Handler) LeaveWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	if err := h.service.LeaveWorkspace(r.Context(), workspaceID, userID); err != nil {
		h.handleError(w, err, "Failed to leave workspace")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("You have left the workspace.", nil))
}

func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Role == "" {
		req.Role = RoleMember
	}
	inv, err := h.service.InviteMember(r.Context(), workspaceID, userID, auth.UserEmailFromContext(r.Context()), req.Email, req.Role)
	if err != nil {
		h.handleError(w, err, "Failed to create invitation")
		return
	}
	h.respondJSON(w, http.StatusCreated, api.Success("Invitation sent.", inv))
}

func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	invitations, err := h.service.ListInvitations(r.Context(), workspaceID, userID)
	if err != nil {
		h.handleError(w, err, "Failed to retrieve invitations")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Invitations retrieved successfully.", invitations))
}

func (h *Handler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	userID, workspaceID, ok := h.workspaceScope(w, r)
	if !ok {
		return
	}
	invitationID := r.PathValue("invitationID")
	if _, err := uuid.Parse(invitationID); err != nil {
		h.respondError(w, http.StatusNotFound, "Invitation not found")
		return
	}
	if err := h.service.RevokeInvitation(r.Context(), workspaceID, userID, invitationID); err != nil {
		h.handleError(w, err, "Failed to revoke invitation")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Invitation revoked.", nil))
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InvitationID == "" || req.Token == "" {
		h.respondError(w, http.StatusBadRequest, "Invitation ID and token are required")
		return
	}
	if _, err := uuid.Parse(req.InvitationID); err != nil {
		h.respondError(w, http.StatusNotFound, "Invitation not found")
		return
	}
	ws, err := h.service.AcceptInvitation(r.Context(), userID, auth.UserEmailFromContext(r.Context()), req.InvitationID, req.Token)
	if err != nil {
		h.handleError(w, err, "Failed to accept invitation")
		return
	}
	h.respondJSON(w, http.StatusOK, api.Success("Invitation accepted.", ws))
}
