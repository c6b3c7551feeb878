package application

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sebuszqo/FamilyFinance/internal/dates"
	"github.com/sebuszqo/FamilyFinance/internal/finance/domain"
)

type MaterializerRepository interface {
	GetScheduled(ctx context.Context, workspaceID string) ([]domain.Transaction, error)
	BeginTransaction(ctx context.Context) (*sql.Tx, error)
	SaveOccurrence(ctx context.Context, tx *sql.Tx, occurrence domain.Transaction) (bool, error)
	MarkMaterialized(ctx context.Context, tx *sql.Tx, templateID string, through time.Time) error
	CompleteIncoming(ctx context.Context, today time.Time) (int64, error)
}

type MaterializeResult struct {
	RecurringPosted int   `json:"recurring_posted"`
	IncomingPosted  int64 `json:"incoming_posted"`
}

// Materializer posts recurring occurrences and incoming transactions once
// their date has arrived.
type Materializer struct {
	repo MaterializerRepository
}

func NewMaterializer(repo MaterializerRepository) *Materializer {
	return &Materializer{repo: repo}
}

func (m *Materializer) MaterializeDue(ctx context.Context, today time.Time) (*MaterializeResult, error) {
	today = dates.Day(today)

	scheduled, err := m.repo.GetScheduled(ctx, "")
	if err != nil {
		return nil, err
	}

	result := &MaterializeResult{}
	for _, template := range scheduled {
		if !template.IsRecurring {
			continue
		}
		posted, err := m.materializeTemplate(ctx, template, today)
		if err != nil {
			log.Error().Err(err).Str("template_id", template.ID).Msg("Failed to materialize recurring transaction")
			continue
		}
		result.RecurringPosted += posted
	}

	result.IncomingPosted, err = m.repo.CompleteIncoming(ctx, today)
	if err != nil {
		return result, fmt.Errorf("complete incoming transactions: %w", err)
	}
	return result, nil
}

func (m *Materializer) materializeTemplate(ctx context.Context, template domain.Transaction, today time.Time) (posted int, err error) {
	after := dates.Day(template.Date.Time)
	if template.LastMaterializedOn != nil && template.LastMaterializedOn.After(after) {
		after = template.LastMaterializedOn.Time
	}

	due := template.Schedule().DueBetween(after, today)
	if len(due) == 0 {
		return 0, nil
	}

	// A capped batch resumes from its last date on the next run.
	through := today
	if len(due) == domain.MaxOccurrenceIterations {
		through = due[len(due)-1]
	}

	tx, err := m.repo.BeginTransaction(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx)
			panic(p)
		} else if err != nil {
			safeRollback(tx)
		} else {
			err = tx.Commit()
		}
	}()

	templateID := template.ID
	for _, d := range due {
		occurrence := domain.Transaction{
			ID:                  uuid.NewString(),
			WorkspaceID:         template.WorkspaceID,
			UserID:              template.UserID,
			Amount:              template.Amount,
			Type:                template.Type,
			Category:            template.Category,
			Description:         template.Description,
			Date:                dates.Of(d),
			Status:              domain.StatusCompleted,
			RecurringTemplateID: &templateID,
		}
		inserted, saveErr := m.repo.SaveOccurrence(ctx, tx, occurrence)
		if saveErr != nil {
			return 0, saveErr
		}
		if inserted {
			posted++
		}
	}
	if err = m.repo.MarkMaterialized(ctx, tx, template.ID, through); err != nil {
		return 0, err
	}
	return posted, nil
}
