package workspace

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emailService "github.com/sebuszqo/FamilyFinance/internal/email"
)

type memoryRepo struct {
	mu          sync.Mutex
	seq         int
	workspaces  map[string]*Workspace
	members     map[string]map[string]Member
	invitations map[string]*Invitation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		workspaces:  map[string]*Workspace{},
		members:     map[string]map[string]Member{},
		invitations: map[string]*Invitation{},
	}
}

func (m *memoryRepo) Create(ctx context.Context, ws *Workspace, ownerEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws.IsPersonal {
		for _, existing := range m.workspaces {
			if existing.IsPersonal && existing.OwnerID == ws.OwnerID {
				return ErrPersonalWorkspaceExists
			}
		}
	}
	m.seq++
	ws.ID = "00000000-0000-0000-0000-00000000000" + string(rune('0'+m.seq))
	ws.Role = RoleOwner
	stored := *ws
	m.workspaces[ws.ID] = &stored
	m.members[ws.ID] = map[string]Member{ws.OwnerID: {WorkspaceID: ws.ID, UserID: ws.OwnerID, Email: ownerEmail, Role: RoleOwner}}
	return nil
}

func (m *memoryRepo) FindByID(ctx context.Context, workspaceID string) (*Workspace, error) {
	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	found := *ws
	return &found, nil
}

func (m *memoryRepo) FindPersonal(ctx context.Context, ownerID string) (*Workspace, error) {
	for _, ws := range m.workspaces {
		if ws.IsPersonal && ws.OwnerID == ownerID {
			found := *ws
			return &found, nil
		}
	}
	return nil, ErrWorkspaceNotFound
}

func (m *memoryRepo) ListForUser(ctx context.Context, userID string) ([]Workspace, error) {
	out := []Workspace{}
	for id, members := range m.members {
		if member, ok := members[userID]; ok {
			ws := *m.workspaces[id]
			ws.Role = member.Role
			out = append(out, ws)
		}
	}
	return out, nil
}

func (m *memoryRepo) Rename(ctx context.Context, workspaceID, name string) error {
	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return ErrWorkspaceNotFound
	}
	ws.Name = name
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, workspaceID string) error {
	delete(m.workspaces, workspaceID)
	delete(m.members, workspaceID)
	return nil
}

func (m *memoryRepo) GetMemberRole(ctx context.Context, workspaceID, userID string) (string, error) {
	member, ok := m.members[workspaceID][userID]
	if !ok {
		return "", ErrNotMember
	}
	return member.Role, nil
}

func (m *memoryRepo) ListMembers(ctx context.Context, workspaceID string) ([]Member, error) {
	out := []Member{}
	for _, member := range m.members[workspaceID] {
		out = append(out, member)
	}
	return out, nil
}

func (m *memoryRepo) UpdateMemberRole(ctx context.Context, workspaceID, userID, role string) error {
	member, ok := m.members[workspaceID][userID]
	if !ok {
		return ErrNotMember
	}
	member.Role = role
	m.members[workspaceID][userID] = member
	return nil
}

func (m *memoryRepo) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	if _, ok := m.members[workspaceID][userID]; !ok {
		return ErrNotMember
	}
	delete(m.members[workspaceID], userID)
	return nil
}

func (m *memoryRepo) addMember(workspaceID, userID, role string) {
	m.members[workspaceID][userID] = Member{WorkspaceID: workspaceID, UserID: userID, Role: role}
}

func (m *memoryRepo) CreateInvitation(ctx context.Context, inv *Invitation) error {
	stored := *inv
	m.invitations[inv.ID] = &stored
	return nil
}

func (m *memoryRepo) FindInvitation(ctx context.Context, invitationID string) (*Invitation, error) {
	inv, ok := m.invitations[invitationID]
	if !ok {
		return nil, ErrInvitationNotFound
	}
	found := *inv
	return &found, nil
}

func (m *memoryRepo) ListPendingInvitations(ctx context.Context, workspaceID string, now time.Time) ([]Invitation, error) {
	out := []Invitation{}
	for _, inv := range m.invitations {
		if inv.WorkspaceID == workspaceID && inv.AcceptedAt == nil && inv.ExpiresAt.After(now) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memoryRepo) DeleteInvitation(ctx context.Context, workspaceID, invitationID string) error {
	if _, ok := m.invitations[invitationID]; !ok {
		return ErrInvitationNotFound
	}
	delete(m.invitations, invitationID)
	return nil
}

func (m *memoryRepo) AcceptInvitation(ctx context.Context, inv *Invitation, userID, email string, acceptedAt time.Time) error {
	stored := m.invitations[inv.ID]
	if stored.AcceptedAt != nil {
		return ErrInvitationUsed
	}
	if _, ok := m.members[inv.WorkspaceID][userID]; ok {
		return ErrAlreadyMember
	}
	stored.AcceptedAt = &acceptedAt
	m.members[inv.WorkspaceID][userID] = Member{WorkspaceID: inv.WorkspaceID, UserID: userID, Email: email, Role: inv.Role}
	return nil
}

type fakeMailer struct {
	to   []string
	data []emailService.EmailData
}

func (f *fakeMailer) QueueEmail(to string, data emailService.EmailData) {
	f.to = append(f.to, to)
	f.data = append(f.data, data)
}

func newTestService() (*service, *memoryRepo, *fakeMailer) {
	repo := newMemoryRepo()
	mailer := &fakeMailer{}
	s := NewService(repo, mailer, "https://app.example.com/").(*service)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, repo, mailer
}

func TestGetDefaultWorkspace_CreatedOnceAndReused(t *testing.T) {
	s, repo, _ := newTestService()
	ctx := context.Background()

	first, err := s.GetDefaultWorkspace(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	assert.True(t, first.IsPersonal)
	assert.Equal(t, RoleOwner, first.Role)

	second, err := s.GetDefaultWorkspace(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.workspaces, 1)
}

func TestCreateWorkspace_ValidatesName(t *testing.T) {
	s, _, _ := newTestService()

	_, err := s.CreateWorkspace(context.Background(), "u1", "", "   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = s.CreateWorkspace(context.Background(), "u1", "", strings.Repeat("x", 101))
	assert.ErrorIs(t, err, ErrInvalidName)

	ws, err := s.CreateWorkspace(context.Background(), "u1", "", "  Family  ")
	require.NoError(t, err)
	assert.Equal(t, "Family", ws.Name)
}

func TestDeleteWorkspace_Permissions(t *testing.T) {
	s, repo, _ := newTestService()
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "owner", "", "Family")
	require.NoError(t, err)
	repo.addMember(ws.ID, "admin", RoleAdmin)

	assert.ErrorIs(t, s.DeleteWorkspace(ctx, ws.ID, "admin"), ErrForbidden)
	assert.ErrorIs(t, s.DeleteWorkspace(ctx, ws.ID, "stranger"), ErrNotMember)
	assert.NoError(t, s.DeleteWorkspace(ctx, ws.ID, "owner"))

	personal, err := s.GetDefaultWorkspace(ctx, "owner", "")
	require.NoError(t, err)
	assert.ErrorIs(t, s.DeleteWorkspace(ctx, personal.ID, "owner"), ErrPersonalWorkspace)
}

func TestChangeMemberRole(t *testing.T) {
	s, repo, _ := newTestService()
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "owner", "", "Family")
	require.NoError(t, err)
	repo.addMember(ws.ID, "admin", RoleAdmin)
	repo.addMember(ws.ID, "member", RoleMember)
	repo.addMember(ws.ID, "viewer", RoleViewer)

	assert.ErrorIs(t, s.ChangeMemberRole(ctx, ws.ID, "owner", "member", RoleOwner), ErrInvalidRole)
	assert.ErrorIs(t, s.ChangeMemberRole(ctx, ws.ID, "owner", "member", "superuser"), ErrInvalidRole)
	assert.ErrorIs(t, s.ChangeMemberRole(ctx, ws.ID, "member", "viewer", RoleMember), ErrForbidden)
	assert.ErrorIs(t, s.ChangeMemberRole(ctx, ws.ID, "admin", "owner", RoleViewer), ErrForbidden)
	assert.ErrorIs(t, s.ChangeMemberRole(ctx, ws.ID, "admin", "member", RoleAdmin), ErrForbidden)

	require.NoError(t, s.ChangeMemberRole(ctx, ws.ID, "admin", "viewer", RoleMember))
	role, _ := repo.GetMemberRole(ctx, ws.ID, "viewer")
	assert.Equal(t, RoleMember, role)

	require.NoError(t, s.ChangeMemberRole(ctx, ws.ID, "owner", "member", RoleAdmin))
}

func TestRemoveMemberAndLeave(t *testing.T) {
	s, repo, _ := newTestService()
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "owner", "", "Family")
	require.NoError(t, err)
	repo.addMember(ws.ID, "admin", RoleAdmin)
	repo.addMember(ws.ID, "member", RoleMember)

	assert.ErrorIs(t, s.RemoveMember(ctx, ws.ID, "admin", "owner"), ErrOwnerCannotBeRemoved)
	assert.ErrorIs(t, s.RemoveMember(ctx, ws.ID, "member", "admin"), ErrForbidden)
	assert.NoError(t, s.RemoveMember(ctx, ws.ID, "admin", "member"))

	assert.ErrorIs(t, s.LeaveWorkspace(ctx, ws.ID, "owner"), ErrOwnerCannotLeave)
	assert.NoError(t, s.LeaveWorkspace(ctx, ws.ID, "admin"))
	_, err = repo.GetMemberRole(ctx, ws.ID, "admin")
	assert.ErrorIs(t, err, ErrNotMember)
}

func acceptParams(t *testing.T, mailer *fakeMailer) (string, string) {
	t.Helper()
	require.NotEmpty(t, mailer.data)
	data := mailer.data[len(mailer.data)-1].(emailService.WorkspaceInvitationData)
	u, err := url.Parse(data.AcceptURL)
	require.NoError(t, err)
	assert.Equal(t, "/invitations/accept", u.Path)
	return u.Query().Get("invitation_id"), u.Query().Get("token")
}

func TestInviteAndAccept(t *testing.T) {
	s, repo, mailer := newTestService()
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "owner", "owner@example.com", "Family")
	require.NoError(t, err)

	inv, err := s.InviteMember(ctx, ws.ID, "owner", "owner@example.com", " Friend@Example.com ", RoleMember)
	require.NoError(t, err)
	assert.Equal(t, "friend@example.com", inv.Email)
	assert.Equal(t, []string{"friend@example.com"}, mailer.to)
	assert.Equal(t, s.now().Add(7*24*time.Hour), inv.ExpiresAt)

	invitationID, token := acceptParams(t, mailer)
	assert.Equal(t, inv.ID, invitationID)
	assert.Len(t, token, 64)
	assert.NotEqual(t, token, repo.invitations[inv.ID].TokenHash)

	_, err = s.AcceptInvitation(ctx, "friend", "friend@example.com", invitationID, "wrong-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.AcceptInvitation(ctx, "intruder", "intruder@example.com", invitationID, token)
	assert.ErrorIs(t, err, ErrForbidden)

	joined, err := s.AcceptInvitation(ctx, "friend", "FRIEND@example.com", invitationID, token)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, joined.ID)
	assert.Equal(t, RoleMember, joined.Role)

	_, err = s.AcceptInvitation(ctx, "friend", "friend@example.com", invitationID, token)
	assert.ErrorIs(t, err, ErrInvitationUsed)
}

func TestAcceptInvitation_Expired(t *testing.T) {
	s, _, mailer := newTestService()
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "owner", "", "Family")
	require.NoError(t, err)
	_, err = s.InviteMember(ctx, ws.ID, "owner", "", "late@example.com", RoleViewer)
	require.NoError(t, err)
	invitationID, token := acceptParams(t, mailer)

	s.now = func() time.Time { return time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC) }
	_, err = s.AcceptInvitation(ctx, "late", "late@example.com", invitationID, token)
	assert.ErrorIs(t, err, ErrInvitationExpired)
}

func TestInviteMember_Validation(t *testing.T) {
	s, repo, mailer := newTestService()
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "owner", "", "Family")
	require.NoError(t, err)
	repo.addMember(ws.ID, "admin", RoleAdmin)
	repo.addMember(ws.ID, "viewer", RoleViewer)

	_, err = s.InviteMember(ctx, ws.ID, "owner", "", "not-an-email", RoleMember)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = s.InviteMember(ctx, ws.ID, "owner", "", "a@example.com", RoleOwner)
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = s.InviteMember(ctx, ws.ID, "viewer", "", "a@example.com", RoleViewer)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.InviteMember(ctx, ws.ID, "admin", "", "a@example.com", RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Empty(t, mailer.to)
}

func TestAcceptInvitation_BadID(t *testing.T) {
	s, _, _ := newTestService()
	_, err := s.AcceptInvitation(context.Background(), "u", "", "nope", "token")
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}
