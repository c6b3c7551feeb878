package insights

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrAlertNotFound = errors.New("alert not found")

type Repository interface {
	MonthTotals(ctx context.Context, workspaceID string, start, end time.Time) (MonthTotals, error)
	CategorySpending(ctx context.Context, workspaceID string, start, end time.Time) (map[string]decimal.Decimal, error)
	InsertAlert(ctx context.Context, a *Alert) error
	UnreadAlertExists(ctx context.Context, workspaceID, alertType, title string, since time.Time) (bool, error)
	ListAlerts(ctx context.Context, workspaceID string, unreadOnly bool) ([]Alert, error)
	MarkRead(ctx context.Context, workspaceID, alertID string) error
	MarkAllRead(ctx context.Context, workspaceID string) (int64, error)
	DeleteAlert(ctx context.Context, workspaceID, alertID string) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) MonthTotals(ctx context.Context, workspaceID string, start, end time.Time) (MonthTotals, error) {
	var income, expenses decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
                COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
        FROM transactions
        WHERE workspace_id = $1 AND status = 'completed' AND date BETWEEN $2 AND $3`,
		workspaceID, start, end).Scan(&income, &expenses)
	if err != nil {
		return MonthTotals{}, err
	}
	return NewMonthTotals(income, expenses), nil
}

func (r *repository) CategorySpending(ctx context.Context, workspaceID string, start, end time.Time) (map[string]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, SUM(amount)
        FROM transactions
        WHERE workspace_id = $1 AND type = 'expense' AND status = 'completed' AND date BETWEEN $2 AND $3
        GROUP BY category`,
		workspaceID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spending := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category string
		var amount decimal.Decimal
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, err
		}
		spending[category] = amount
	}
	return spending, rows.Err()
}

func (r *repository) InsertAlert(ctx context.Context, a *Alert) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO financial_alerts (id, workspace_id, user_id, type, severity, title, message)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		a.ID, a.WorkspaceID, a.UserID, a.Type, a.Severity, a.Title, a.Message).Scan(&a.CreatedAt)
}

func (r *repository) UnreadAlertExists(ctx context.Context, workspaceID, alertType, title string, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
            SELECT 1 FROM financial_alerts
            WHERE workspace_id = $1 AND type = $2 AND title = $3 AND NOT is_read AND created_at >= $4)`,
		workspaceID, alertType, title, since).Scan(&exists)
	return exists, err
}

func (r *repository) ListAlerts(ctx context.Context, workspaceID string, unreadOnly bool) ([]Alert, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, workspace_id, user_id, type, severity, title, message, is_read, created_at
        FROM financial_alerts
        WHERE workspace_id = $1 AND (NOT $2 OR NOT is_read)
        ORDER BY created_at DESC`,
		workspaceID, unreadOnly)
	if err != nil {
		return nil, err
	}
	alerts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Alert, error) {
		var a Alert
		err := row.Scan(&a.ID, &a.WorkspaceID, &a.UserID, &a.Type, &a.Severity, &a.Title, &a.Message, &a.IsRead, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	return alerts, nil
}

func (r *repository) MarkRead(ctx context.Context, workspaceID, alertID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE financial_alerts SET is_read = TRUE WHERE id = $1 AND workspace_id = $2`, alertID, workspaceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context, workspaceID string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE financial_alerts SET is_read = TRUE WHERE workspace_id = $1 AND NOT is_read`, workspaceID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) DeleteAlert(ctx context.Context, workspaceID, alertID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM financial_alerts WHERE id = $1 AND workspace_id = $2`, alertID, workspaceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}
