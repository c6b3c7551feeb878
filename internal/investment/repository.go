package investments

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

const investmentColumns = `id, workspace_id, user_id, name, type, symbol, quantity, amount_invested,
	current_value, expected_return_rate, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, inv *Investment) error
	FindByID(ctx context.Context, workspaceID, investmentID string) (*Investment, error)
	FindByWorkspace(ctx context.Context, workspaceID string) ([]Investment, error)
	Update(ctx context.Context, inv *Investment) (int64, error)
	Delete(ctx context.Context, workspaceID, investmentID string) (int64, error)
	FindWithSymbol(ctx context.Context) ([]Investment, error)
	UpdateCurrentValue(ctx context.Context, investmentID string, value decimal.Decimal) error
}

type investmentRepository struct {
	db *sql.DB
}

func NewInvestmentRepository(db *sql.DB) Repository {
	return &investmentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvestment(s rowScanner, inv *Investment) error {
	return s.Scan(&inv.ID, &inv.WorkspaceID, &inv.UserID, &inv.Name, &inv.Type, &inv.Symbol, &inv.Quantity,
		&inv.AmountInvested, &inv.CurrentValue, &inv.ExpectedReturnRate, &inv.CreatedAt, &inv.UpdatedAt)
}

func (r *investmentRepository) query(ctx context.Context, query string, args ...interface{}) ([]Investment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investments := []Investment{}
	for rows.Next() {
		var inv Investment
		if err := scanInvestment(rows, &inv); err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

func (r *investmentRepository) Create(ctx context.Context, inv *Investment) error {
	query := `INSERT INTO investments (id, workspace_id, user_id, name, type, symbol, quantity, amount_invested,
                current_value, expected_return_rate)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
              RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, inv.ID, inv.WorkspaceID, inv.UserID, inv.Name, inv.Type, inv.Symbol,
		inv.Quantity, inv.AmountInvested, inv.CurrentValue, inv.ExpectedReturnRate,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
}

func (r *investmentRepository) FindByID(ctx context.Context, workspaceID, investmentID string) (*Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1 AND workspace_id = $2`

	var inv Investment
	err := scanInvestment(r.db.QueryRowContext(ctx, query, investmentID, workspaceID), &inv)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *investmentRepository) FindByWorkspace(ctx context.Context, workspaceID string) ([]Investment, error) {
	return r.query(ctx, `SELECT `+investmentColumns+` FROM investments WHERE workspace_id = $1 ORDER BY created_at`, workspaceID)
}

func (r *investmentRepository) Update(ctx context.Context, inv *Investment) (int64, error) {
	query := `
        UPDATE investments
        SET name = $1, type = $2, symbol = $3, quantity = $4, amount_invested = $5,
            current_value = $6, expected_return_rate = $7, updated_at = NOW()
        WHERE id = $8 AND workspace_id = $9
    `
	result, err := r.db.ExecContext(ctx, query, inv.Name, inv.Type, inv.Symbol, inv.Quantity, inv.AmountInvested,
		inv.CurrentValue, inv.ExpectedReturnRate, inv.ID, inv.WorkspaceID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *investmentRepository) Delete(ctx context.Context, workspaceID, investmentID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM investments WHERE id = $1 AND workspace_id = $2`, investmentID, workspaceID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// FindWithSymbol returns every priced holding across all workspaces.
func (r *investmentRepository) FindWithSymbol(ctx context.Context) ([]Investment, error) {
	return r.query(ctx, `SELECT `+investmentColumns+` FROM investments WHERE symbol <> '' AND quantity > 0`)
}

func (r *investmentRepository) UpdateCurrentValue(ctx context.Context, investmentID string, value decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE investments SET current_value = $1, updated_at = NOW() WHERE id = $2`, value, investmentID)
	return err
}
