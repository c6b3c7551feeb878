package workspace

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	emailService "github.com/sebuszqo/FamilyFinance/internal/email"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"

	invitationTTL   = 7 * 24 * time.Hour
	maxNameLength   = 100
	personalName    = "Personal"
	tokenBcryptCost = 10
)

var (
	ErrWorkspaceNotFound       = errors.New("workspace not found")
	ErrNotMember               = errors.New("user is not a member of this workspace")
	ErrForbidden               = errors.New("insufficient workspace permissions")
	ErrInvalidName             = errors.New("workspace name must be between 1 and 100 characters")
	ErrInvalidRole             = errors.New("invalid role")
	ErrOwnerCannotBeRemoved    = errors.New("the workspace owner cannot be removed")
	ErrOwnerCannotLeave        = errors.New("the workspace owner cannot leave, delete the workspace instead")
	ErrPersonalWorkspace       = errors.New("personal workspaces cannot be deleted")
	ErrPersonalWorkspaceExists = errors.New("personal workspace already exists")
	ErrAlreadyMember           = errors.New("user is already a member of this workspace")
	ErrInvalidEmail            = errors.New("invalid email address")
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvitationExpired       = errors.New("invitation has expired")
	ErrInvitationUsed          = errors.New("invitation has already been accepted")
	ErrInvalidToken            = errors.New("invalid invitation token")
)

var logger = logging.New("workspace")

var roleRank = map[string]int{
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// CanWrite reports whether a role may modify workspace data.
func CanWrite(role string) bool {
	return roleRank[role] >= roleRank[RoleMember]
}

func canManage(role string) bool {
	return roleRank[role] >= roleRank[RoleAdmin]
}

type Service interface {
	CreateWorkspace(ctx context.Context, userID, email, name string) (*Workspace, error)
	GetDefaultWorkspace(ctx context.Context, userID, email string) (*Workspace, error)
	ListWorkspaces(ctx context.Context, userID string) ([]Workspace, error)
	GetWorkspace(ctx context.Context, workspaceID, userID string) (*Workspace, error)
	RenameWorkspace(ctx context.Context, workspaceID, userID, name string) error
	DeleteWorkspace(ctx context.Context, workspaceID, userID string) error

	MemberRole(ctx context.Context, workspaceID, userID string) (string, error)
	ListMembers(ctx context.Context, workspaceID, userID string) ([]Member, error)
	ChangeMemberRole(ctx context.Context, workspaceID, actorID, memberID, role string) error
	RemoveMember(ctx context.Context, workspaceID, actorID, memberID string) error
	LeaveWorkspace(ctx context.Context, workspaceID, userID string) error

	InviteMember(ctx context.Context, workspaceID, actorID, actorEmail, email, role string) (*Invitation, error)
	ListInvitations(ctx context.Context, workspaceID, actorID string) ([]Invitation, error)
	RevokeInvitation(ctx context.Context, workspaceID, actorID, invitationID string) error
	AcceptInvitation(ctx context.Context, userID, userEmail, invitationID, token string) (*Workspace, error)
}

type service struct {
	repo          Repository
	mailer        emailService.EmailSender
	appBaseURL    string
	validateEmail func(string) error
	now           func() time.Time
}

func NewService(repo Repository, mailer emailService.EmailSender, appBaseURL string) Service {
	return &service{
		repo:          repo,
		mailer:        mailer,
		appBaseURL:    strings.TrimRight(appBaseURL, "/"),
		validateEmail: validateEmailAddress,
		now:           time.Now,
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *service) CreateWorkspace(ctx context.Context, userID, email, name string) (*Workspace, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Name: name, OwnerID: userID}
	if err := s.repo.Create(ctx, ws, email); err != nil {
		return nil, err
	}
	logger.Info().Str("workspace_id", ws.ID).Str("user_id", userID).Msg("Workspace created")
	return ws, nil
}

// GetDefaultWorkspace returns the caller's personal workspace, creating it
// on first access.
func (s *service) GetDefaultWorkspace(ctx context.Context, userID, email string) (*Workspace, error) {
	ws, err := s.repo.FindPersonal(ctx, userID)
	if err == nil {
		ws.Role = RoleOwner
		return ws, nil
	}
	if !errors.Is(err, ErrWorkspaceNotFound) {
		return nil, err
	}

	ws = &Workspace{Name: personalName, OwnerID: userID, IsPersonal: true}
	err = s.repo.Create(ctx, ws, email)
	if errors.Is(err, ErrPersonalWorkspaceExists) {
		// Lost a race with a concurrent first request.
		ws, err = s.repo.FindPersonal(ctx, userID)
		if err != nil {
			return nil, err
		}
		ws.Role = RoleOwner
		return ws, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info().Str("workspace_id", ws.ID).Str("user_id", userID).Msg("Personal workspace created")
	return ws, nil
}

func (s *service) ListWorkspaces(ctx context.Context, userID string) ([]Workspace, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *service) MemberRole(ctx context.Context, workspaceID, userID string) (string, error) {
	return s.repo.GetMemberRole(ctx, workspaceID, userID)
}

func (s *service) requireRole(ctx context.Context, workspaceID, userID string, allowed func(string) bool) (string, error) {
	role, err := s.repo.GetMemberRole(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}
	if !allowed(role) {
		return role, ErrForbidden
	}
	return role, nil
}

func (s *service) GetWorkspace(ctx context.Context, workspaceID, userID string) (*Workspace, error) {
	role, err := s.repo.GetMemberRole(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	ws, err := s.repo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	ws.Role = role
	return ws, nil
}

func (s *service) RenameWorkspace(ctx context.Context, workspaceID, userID, name string) error {
	name, err := validateName(name)
	if err != nil {
		return err
	}
	if _, err := s.requireRole(ctx, workspaceID, userID, canManage); err != nil {
		return err
	}
	return s.repo.Rename(ctx, workspaceID, name)
}

func (s *service) DeleteWorkspace(ctx context.Context, workspaceID, userID string) error {
	if _, err := s.requireRole(ctx, workspaceID, userID, func(role string) bool { return role == RoleOwner }); err != nil {
		return err
	}
	ws, err := s.repo.FindByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws.IsPersonal {
		return ErrPersonalWorkspace
	}
	return s.repo.Delete(ctx, workspaceID)
}

func (s *service) ListMembers(ctx context.Context, workspaceID, userID string) ([]Member, error) {
	if _, err := s.repo.GetMemberRole(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, workspaceID)
}

// ChangeMemberRole lets owners and admins change roles of members ranked
// below them. Ownership cannot be granted or taken away here.
func (s *service) ChangeMemberRole(ctx context.Context, workspaceID, actorID, memberID, role string) error {
	if !IsValidRole(role) || role == RoleOwner {
		return ErrInvalidRole
	}
	actorRole, err := s.requireRole(ctx, workspaceID, actorID, canManage)
	if err != nil {
		return err
	}
	memberRole, err := s.repo.GetMemberRole(ctx, workspaceID, memberID)
	if err != nil {
		return err
	}
	if memberRole == RoleOwner {
		return ErrForbidden
	}
	if actorRole != RoleOwner && (roleRank[memberRole] >= roleRank[actorRole] || roleRank[role] >= roleRank[actorRole]) {
		return ErrForbidden
	}
	return s.repo.UpdateMemberRole(ctx, workspaceID, memberID, role)
}

func (s *service) RemoveMember(ctx context.Context, workspaceID, actorID, memberID string) error {
	actorRole, err := s.requireRole(ctx, workspaceID, actorID, canManage)
	if err != nil {
		return err
	}
	memberRole, err := s.repo.GetMemberRole(ctx, workspaceID, memberID)
	if err != nil {
		return err
	}
	if memberRole == RoleOwner {
		return ErrOwnerCannotBeRemoved
	}
	if actorRole != RoleOwner && roleRank[memberRole] >= roleRank[actorRole] {
		return ErrForbidden
	}
	return s.repo.RemoveMember(ctx, workspaceID, memberID)
}

func (s *service) LeaveWorkspace(ctx context.Context, workspaceID, userID string) error {
	role, err := s.repo.GetMemberRole(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if role == RoleOwner {
		return ErrOwnerCannotLeave
	}
	return s.repo.RemoveMember(ctx, workspaceID, userID)
}

func (s *service) InviteMember(ctx context.Context, workspaceID, actorID, actorEmail, email, role string) (*Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if !IsValidRole(role) || role == RoleOwner {
		return nil, ErrInvalidRole
	}
	actorRole, err := s.requireRole(ctx, workspaceID, actorID, canManage)
	if err != nil {
		return nil, err
	}
	if actorRole != RoleOwner && roleRank[role] >= roleRank[actorRole] {
		return nil, ErrForbidden
	}
	ws, err := s.repo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	token, err := generateHashToken()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), tokenBcryptCost)
	if err != nil {
		return nil, err
	}

	inv := &Invitation{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Email:       email,
		Role:        role,
		TokenHash:   string(hash),
		InvitedBy:   actorID,
		ExpiresAt:   s.now().Add(invitationTTL),
	}
	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.mailer.QueueEmail(email, emailService.WorkspaceInvitationData{
		WorkspaceName: ws.Name,
		InviterEmail:  actorEmail,
		Role:          role,
		AcceptURL:     s.acceptURL(inv.ID, token),
		ExpiresAt:     inv.ExpiresAt.Format("January 2, 2006"),
	})
	logger.Info().Str("workspace_id", workspaceID).Str("invitation_id", inv.ID).Msg("Invitation queued")
	return inv, nil
}

func (s *service) acceptURL(invitationID, token string) string {
	q := url.Values{}
	q.Set("invitation_id", invitationID)
	q.Set("token", token)
	return s.appBaseURL + "/invitations/accept?" + q.Encode()
}

func (s *service) ListInvitations(ctx context.Context, workspaceID, actorID string) ([]Invitation, error) {
	if _, err := s.requireRole(ctx, workspaceID, actorID, canManage); err != nil {
		return nil, err
	}
	return s.repo.ListPendingInvitations(ctx, workspaceID, s.now())
}

func (s *service) RevokeInvitation(ctx context.Context, workspaceID, actorID, invitationID string) error {
	if _, err := uuid.Parse(invitationID); err != nil {
		return ErrInvitationNotFound
	}
	if _, err := s.requireRole(ctx, workspaceID, actorID, canManage); err != nil {
		return err
	}
	return s.repo.DeleteInvitation(ctx, workspaceID, invitationID)
}

func (s *service) AcceptInvitation(ctx context.Context, userID, userEmail, invitationID, token string) (*Workspace, error) {
	if _, err := uuid.Parse(invitationID); err != nil {
		return nil, ErrInvitationNotFound
	}
	inv, err := s.repo.FindInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.AcceptedAt != nil {
		return nil, ErrInvitationUsed
	}
	if !s.now().Before(inv.ExpiresAt) {
		return nil, ErrInvitationExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(token)); err != nil {
		return nil, ErrInvalidToken
	}
	if userEmail != "" && !strings.EqualFold(userEmail, inv.Email) {
		return nil, ErrForbidden
	}

	if err := s.repo.AcceptInvitation(ctx, inv, userID, userEmail, s.now()); err != nil {
		return nil, err
	}
	ws, err := s.repo.FindByID(ctx, inv.WorkspaceID)
	if err != nil {
		return nil, err
	}
	ws.Role = inv.Role
	return ws, nil
}
