package workspace

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/sebuszqo/FamilyFinance/internal/api"
	"github.com/sebuszqo/FamilyFinance/internal/auth"
)

type contextKey string

const roleKey contextKey = "workspaceRole"

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

type MembershipChecker interface {
	MemberRole(ctx context.Context, workspaceID, userID string) (string, error)
}

type Middleware struct {
	checker      MembershipChecker
	respondError api.RespondErrorFunc
}

func NewMiddleware(checker MembershipChecker, respondError api.RespondErrorFunc) *Middleware {
	return &Middleware{checker: checker, respondError: respondError}
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// RequireMember resolves {workspaceID}, checks that the caller belongs to
// it and stores the caller's role in the request context. Viewers are
// limited to read-only requests.
func (m *Middleware) RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			m.respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		workspaceID := r.PathValue("workspaceID")
		if _, err := uuid.Parse(workspaceID); err != nil {
			m.respondError(w, http.StatusNotFound, "Workspace not found")
			return
		}

		role, err := m.checker.MemberRole(r.Context(), workspaceID, userID)
		if err != nil {
			if errors.Is(err, ErrNotMember) {
				m.respondError(w, http.StatusForbidden, "You are not a member of this workspace")
				return
			}
			logger.Error().Err(err).Str("workspace_id", workspaceID).Msg("Membership check failed")
			m.respondError(w, http.StatusInternalServerError, "Failed to verify workspace membership")
			return
		}
		if !isReadOnly(r.Method) && !CanWrite(role) {
			m.respondError(w, http.StatusForbidden, "Viewers cannot modify workspace data")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
	})
}
