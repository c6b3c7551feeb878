package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FamilyFinance/internal/finance/errors"
)

const transactionColumns = `id, workspace_id, user_id, amount, type, category, description, date, status,
	is_recurring, recurrence_pattern, recurrence_end_date, last_materialized_on, recurring_template_id, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullablePattern(t domain.Transaction) interface{} {
	if !t.IsRecurring || t.RecurrencePattern == "" {
		return nil
	}
	return string(domain.ParsePattern(t.RecurrencePattern))
}

// insertTransaction stores t unless a row with the same id, or an occurrence
// of the same template on the same date, already exists. It reports whether
// a row was written.
func insertTransaction(ctx context.Context, e execer, t domain.Transaction) (bool, error) {
	result, err := e.ExecContext(ctx,
		`INSERT INTO transactions
        (id, workspace_id, user_id, amount, type, category, description, date, status,
         is_recurring, recurrence_pattern, recurrence_end_date, recurring_template_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT DO NOTHING`,
		t.ID, t.WorkspaceID, t.UserID, t.Amount, t.Type, t.Category, t.Description, t.Date, t.Status,
		t.IsRecurring, nullablePattern(t), t.RecurrenceEndDate, t.RecurringTemplateID,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func insertUserTransaction(ctx context.Context, e execer, t domain.Transaction) error {
	inserted, err := insertTransaction(ctx, e, t)
	if err != nil {
		return err
	}
	if !inserted {
		return financeErrors.ErrDuplicateTransaction
	}
	return nil
}

func scanTransaction(s rowScanner) (domain.Transaction, error) {
	var t domain.Transaction
	var pattern sql.NullString
	err := s.Scan(&t.ID, &t.WorkspaceID, &t.UserID, &t.Amount, &t.Type, &t.Category, &t.Description, &t.Date, &t.Status,
		&t.IsRecurring, &pattern, &t.RecurrenceEndDate, &t.LastMaterializedOn, &t.RecurringTemplateID, &t.CreatedAt)
	t.RecurrencePattern = pattern.String
	return t, err
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) Save(ctx context.Context, transaction domain.Transaction) error {
	return insertUserTransaction(ctx, r.db, transaction)
}

func (r *TransactionRepository) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *TransactionRepository) SaveWithTransaction(ctx context.Context, transaction domain.Transaction, tx *sql.Tx) error {
	return insertUserTransaction(ctx, tx, transaction)
}

// SaveOccurrence posts one materialized occurrence. It returns false when the
// occurrence was already posted by an earlier or concurrent run.
func (r *TransactionRepository) SaveOccurrence(ctx context.Context, tx *sql.Tx, occurrence domain.Transaction) (bool, error) {
	return insertTransaction(ctx, tx, occurrence)
}

func (r *TransactionRepository) FindByID(ctx context.Context, workspaceID, transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND workspace_id = $2`,
		transactionID, workspaceID)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, financeErrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) Update(ctx context.Context, t domain.Transaction) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE transactions
        SET amount = $1, type = $2, category = $3, description = $4, date = $5, status = $6,
            is_recurring = $7, recurrence_pattern = $8, recurrence_end_date = $9, updated_at = NOW()
        WHERE id = $10 AND workspace_id = $11`,
		t.Amount, t.Type, t.Category, t.Description, t.Date, t.Status,
		t.IsRecurring, nullablePattern(t), t.RecurrenceEndDate, t.ID, t.WorkspaceID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return financeErrors.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, workspaceID, transactionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND workspace_id = $2`, transactionID, workspaceID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return financeErrors.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) GetTransactionsByType(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
        WHERE workspace_id = $1 AND date BETWEEN $2 AND $3`
	args := []interface{}{f.WorkspaceID, f.StartDate, f.EndDate}
	if f.Type != "" {
		query += ` AND type = $4`
		args = append(args, f.Type)
	}
	query += ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += ` LIMIT ` + strconv.Itoa(f.Limit) + ` OFFSET ` + strconv.Itoa((page-1)*f.Limit)
	}
	return r.queryTransactions(ctx, query, args...)
}

func (r *TransactionRepository) GetTransactionsInDateRange(ctx context.Context, workspaceID string, startDate, endDate time.Time) ([]domain.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
        WHERE workspace_id = $1 AND status = 'completed' AND date BETWEEN $2 AND $3
        ORDER BY date`,
		workspaceID, startDate, endDate)
}

func (r *TransactionRepository) GetTransactionSummaryByCategory(ctx context.Context, workspaceID string, startDate, endDate time.Time, transactionType string) ([]domain.TransactionByCategorySummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COALESCE(SUM(amount), 0), COUNT(*)
        FROM transactions
        WHERE workspace_id = $1 AND type = $2 AND status = 'completed' AND date BETWEEN $3 AND $4
        GROUP BY category
        ORDER BY SUM(amount) DESC`,
		workspaceID, transactionType, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summary []domain.TransactionByCategorySummary
	for rows.Next() {
		var s domain.TransactionByCategorySummary
		if err := rows.Scan(&s.Category, &s.TotalAmount, &s.Count); err != nil {
			return nil, err
		}
		summary = append(summary, s)
	}
	return summary, rows.Err()
}

// GetScheduled returns recurring templates and pending incoming
// transactions. An empty workspaceID returns them for every workspace.
func (r *TransactionRepository) GetScheduled(ctx context.Context, workspaceID string) ([]domain.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
        WHERE ($1 = '' OR workspace_id::text = $1) AND (is_recurring OR status = 'pending')
        ORDER BY date`,
		workspaceID)
}

func (r *TransactionRepository) GetBalance(ctx context.Context, workspaceID string, asOf time.Time) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0)
        FROM transactions
        WHERE workspace_id = $1 AND status = 'completed' AND date <= $2`,
		workspaceID, asOf).Scan(&balance)
	return balance, err
}

// MarkMaterialized moves the template's watermark forward.
func (r *TransactionRepository) MarkMaterialized(ctx context.Context, tx *sql.Tx, templateID string, through time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE transactions SET last_materialized_on = $1, updated_at = NOW() WHERE id = $2`,
		through, templateID)
	return err
}

// CompleteIncoming flips pending transactions dated up to today to
// completed and reports how many were posted.
func (r *TransactionRepository) CompleteIncoming(ctx context.Context, today time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET status = 'completed', updated_at = NOW()
        WHERE status = 'pending' AND date <= $1`,
		today)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
