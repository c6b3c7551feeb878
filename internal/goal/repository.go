package goal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

const goalColumns = `id, workspace_id, user_id, name, category, target_amount, current_amount, deadline, created_at`

type Repository interface {
	Create(ctx context.Context, g *Goal) error
	FindByID(ctx context.Context, workspaceID, goalID string) (*Goal, error)
	List(ctx context.Context, workspaceID string) ([]Goal, error)
	Update(ctx context.Context, g *Goal) error
	Delete(ctx context.Context, workspaceID, goalID string) error
	AddContribution(ctx context.Context, workspaceID, goalID string, amount decimal.Decimal) (*Goal, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGoal(s rowScanner) (*Goal, error) {
	var g Goal
	err := s.Scan(&g.ID, &g.WorkspaceID, &g.UserID, &g.Name, &g.Category, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) Create(ctx context.Context, g *Goal) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO financial_goals (id, workspace_id, user_id, name, category, target_amount, current_amount, deadline)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		g.ID, g.WorkspaceID, g.UserID, g.Name, g.Category, g.TargetAmount, g.CurrentAmount, g.Deadline,
	).Scan(&g.CreatedAt)
}

func (r *repository) FindByID(ctx context.Context, workspaceID, goalID string) (*Goal, error) {
	return scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM financial_goals WHERE id = $1 AND workspace_id = $2`, goalID, workspaceID))
}

func (r *repository) List(ctx context.Context, workspaceID string) ([]Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM financial_goals WHERE workspace_id = $1
        ORDER BY deadline NULLS LAST, created_at`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (r *repository) Update(ctx context.Context, g *Goal) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE financial_goals
        SET name = $1, category = $2, target_amount = $3, current_amount = $4, deadline = $5, updated_at = NOW()
        WHERE id = $6 AND workspace_id = $7`,
		g.Name, g.Category, g.TargetAmount, g.CurrentAmount, g.Deadline, g.ID, g.WorkspaceID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, workspaceID, goalID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM financial_goals WHERE id = $1 AND workspace_id = $2`, goalID, workspaceID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// AddContribution increments current_amount in a single statement so
// concurrent contributions are not lost.
func (r *repository) AddContribution(ctx context.Context, workspaceID, goalID string, amount decimal.Decimal) (*Goal, error) {
	return scanGoal(r.db.QueryRowContext(ctx,
		`UPDATE financial_goals SET current_amount = current_amount + $1, updated_at = NOW()
        WHERE id = $2 AND workspace_id = $3
        RETURNING `+goalColumns,
		amount, goalID, workspaceID))
}
