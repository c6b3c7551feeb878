package budget

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, b *Budget) error
	FindByID(ctx context.Context, workspaceID, budgetID string) (*Budget, error)
	List(ctx context.Context, workspaceID string) ([]Budget, error)
	Update(ctx context.Context, b *Budget) error
	Delete(ctx context.Context, workspaceID, budgetID string) error
	SpentByCategory(ctx context.Context, workspaceID string, start, end time.Time) (map[string]decimal.Decimal, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repository) Create(ctx context.Context, b *Budget) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (id, workspace_id, user_id, category, limit_amount, period)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		b.ID, b.WorkspaceID, b.UserID, b.Category, b.Limit, b.Period,
	).Scan(&b.CreatedAt)
	if isUniqueViolation(err) {
		return ErrBudgetExists
	}
	return err
}

func (r *repository) FindByID(ctx context.Context, workspaceID, budgetID string) (*Budget, error) {
	var b Budget
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, user_id, category, limit_amount, period, created_at
        FROM budgets WHERE id = $1 AND workspace_id = $2`, budgetID, workspaceID,
	).Scan(&b.ID, &b.WorkspaceID, &b.UserID, &b.Category, &b.Limit, &b.Period, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) List(ctx context.Context, workspaceID string) ([]Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, user_id, category, limit_amount, period, created_at
        FROM budgets WHERE workspace_id = $1 ORDER BY category, period`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := []Budget{}
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.UserID, &b.Category, &b.Limit, &b.Period, &b.CreatedAt); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *repository) Update(ctx context.Context, b *Budget) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category = $1, limit_amount = $2, period = $3, updated_at = NOW()
        WHERE id = $4 AND workspace_id = $5`,
		b.Category, b.Limit, b.Period, b.ID, b.WorkspaceID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBudgetExists
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, workspaceID, budgetID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1 AND workspace_id = $2`, budgetID, workspaceID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

// SpentByCategory sums completed expenses within [start, end], keyed by
// CategoryKey.
func (r *repository) SpentByCategory(ctx context.Context, workspaceID string, start, end time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT LOWER(BTRIM(category)), COALESCE(SUM(amount), 0)
        FROM transactions
        WHERE workspace_id = $1 AND type = 'expense' AND status = 'completed' AND date BETWEEN $2 AND $3
        GROUP BY LOWER(BTRIM(category))`, workspaceID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spent := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category string
		var total decimal.Decimal
		if err := rows.Scan(&category, &total); err != nil {
			return nil, err
		}
		spent[category] = total
	}
	return spent, rows.Err()
}
