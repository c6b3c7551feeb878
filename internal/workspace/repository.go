package workspace

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type Workspace struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	IsPersonal bool      `json:"is_personal"`
	Role       string    `json:"role,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Member struct {
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type Invitation struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	TokenHash   string     `json:"-"`
	InvitedBy   string     `json:"invited_by"`
	ExpiresAt   time.Time  `json:"expires_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, ws *Workspace, ownerEmail string) error
	FindByID(ctx context.Context, workspaceID string) (*Workspace, error)
	FindPersonal(ctx context.Context, ownerID string) (*Workspace, error)
	ListForUser(ctx context.Context, userID string) ([]Workspace, error)
	Rename(ctx context.Context, workspaceID, name string) error
	Delete(ctx context.Context, workspaceID string) error

	GetMemberRole(ctx context.Context, workspaceID, userID string) (string, error)
	ListMembers(ctx context.Context, workspaceID string) ([]Member, error)
	UpdateMemberRole(ctx context.Context, workspaceID, userID, role string) error
	RemoveMember(ctx context.Context, workspaceID, userID string) error

	CreateInvitation(ctx context.Context, inv *Invitation) error
	FindInvitation(ctx context.Context, invitationID string) (*Invitation, error)
	ListPendingInvitations(ctx context.Context, workspaceID string, now time.Time) ([]Invitation, error)
	DeleteInvitation(ctx context.Context, workspaceID, invitationID string) error
	AcceptInvitation(ctx context.Context, inv *Invitation, userID, email string, acceptedAt time.Time) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error().Err(err).Msg("Error during transaction rollback")
	}
}

// Create inserts the workspace and its owner membership atomically.
func (r *repository) Create(ctx context.Context, ws *Workspace, ownerEmail string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			safeRollback(tx)
			return
		}
		err = tx.Commit()
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO workspaces (name, owner_id, is_personal) VALUES ($1, $2, $3) RETURNING id, created_at`,
		ws.Name, ws.OwnerID, ws.IsPersonal,
	).Scan(&ws.ID, &ws.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPersonalWorkspaceExists
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, email, role) VALUES ($1, $2, $3, $4)`,
		ws.ID, ws.OwnerID, ownerEmail, RoleOwner)
	ws.Role = RoleOwner
	return err
}

func (r *repository) scanWorkspace(row *sql.Row) (*Workspace, error) {
	var ws Workspace
	err := row.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.IsPersonal, &ws.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &ws, nil
}

func (r *repository) FindByID(ctx context.Context, workspaceID string) (*Workspace, error) {
	return r.scanWorkspace(r.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, is_personal, created_at FROM workspaces WHERE id = $1`, workspaceID))
}

func (r *repository) FindPersonal(ctx context.Context, ownerID string) (*Workspace, error) {
	return r.scanWorkspace(r.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, is_personal, created_at FROM workspaces WHERE owner_id = $1 AND is_personal`, ownerID))
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]Workspace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.id, w.name, w.owner_id, w.is_personal, w.created_at, m.role
        FROM workspaces w
        JOIN workspace_members m ON m.workspace_id = w.id
        WHERE m.user_id = $1
        ORDER BY w.is_personal DESC, w.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workspaces := []Workspace{}
	for rows.Next() {
		var ws Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.IsPersonal, &ws.CreatedAt, &ws.Role); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func expectAffected(result sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func (r *repository) Rename(ctx context.Context, workspaceID, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE workspaces SET name = $1, updated_at = NOW() WHERE id = $2`, name, workspaceID)
	return expectAffected(result, err, ErrWorkspaceNotFound)
}

func (r *repository) Delete(ctx context.Context, workspaceID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, workspaceID)
	return expectAffected(result, err, ErrWorkspaceNotFound)
}

func (r *repository) GetMemberRole(ctx context.Context, workspaceID, userID string) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotMember
	}
	return role, err
}

func (r *repository) ListMembers(ctx context.Context, workspaceID string) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT workspace_id, user_id, email, role, joined_at FROM workspace_members
        WHERE workspace_id = $1 ORDER BY joined_at`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Email, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *repository) UpdateMemberRole(ctx context.Context, workspaceID, userID, role string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workspace_members SET role = $1 WHERE workspace_id = $2 AND user_id = $3`, role, workspaceID, userID)
	return expectAffected(result, err, ErrNotMember)
}

func (r *repository) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID)
	return expectAffected(result, err, ErrNotMember)
}

func (r *repository) CreateInvitation(ctx context.Context, inv *Invitation) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO workspace_invitations (id, workspace_id, email, role, token_hash, invited_by, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		inv.ID, inv.WorkspaceID, inv.Email, inv.Role, inv.TokenHash, inv.InvitedBy, inv.ExpiresAt,
	).Scan(&inv.CreatedAt)
}

const invitationColumns = `id, workspace_id, email, role, token_hash, invited_by, expires_at, accepted_at, created_at`

func scanInvitation(s interface{ Scan(...interface{}) error }) (Invitation, error) {
	var inv Invitation
	err := s.Scan(&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.TokenHash, &inv.InvitedBy,
		&inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	return inv, err
}

func (r *repository) FindInvitation(ctx context.Context, invitationID string) (*Invitation, error) {
	inv, err := scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM workspace_invitations WHERE id = $1`, invitationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListPendingInvitations(ctx context.Context, workspaceID string, now time.Time) ([]Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM workspace_invitations
        WHERE workspace_id = $1 AND accepted_at IS NULL AND expires_at > $2
        ORDER BY created_at DESC`, workspaceID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := []Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *repository) DeleteInvitation(ctx context.Context, workspaceID, invitationID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workspace_invitations WHERE id = $1 AND workspace_id = $2`, invitationID, workspaceID)
	return expectAffected(result, err, ErrInvitationNotFound)
}

// AcceptInvitation marks the invitation used and adds the member in one
// transaction. A second accept of the same invitation fails.
func (r *repository) AcceptInvitation(ctx context.Context, inv *Invitation, userID, email string, acceptedAt time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			safeRollback(tx)
			return
		}
		err = tx.Commit()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE workspace_invitations SET accepted_at = $1 WHERE id = $2 AND accepted_at IS NULL`,
		acceptedAt, inv.ID)
	if err = expectAffected(result, err, ErrInvitationUsed); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, email, role) VALUES ($1, $2, $3, $4)`,
		inv.WorkspaceID, userID, email, inv.Role)
	if isUniqueViolation(err) {
		return ErrAlreadyMember
	}
	return err
}
