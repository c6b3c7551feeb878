package billing

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetMissingIsFree(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM subscriptions")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"provider_subscription_id", "status", "plan", "current_period_end", "updated_at"}))

	sub, err := NewStore(db).Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, sub.Status)
	assert.Equal(t, PlanFree, sub.Plan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetAndUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewStore(db)

	end := now.Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM subscriptions")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"provider_subscription_id", "status", "plan", "current_period_end", "updated_at"}).
			AddRow("sub_1", "active", "plan_family", end, now))

	sub, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.ProviderSubscriptionID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, sub.IsActive(now))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subscriptions")).
		WithArgs("u1", "sub_1", "cancelled", "plan_family", end).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sub.Status = "cancelled"
	require.NoError(t, s.Upsert(context.Background(), sub))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindUserByProviderID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM subscriptions")).
		WithArgs("sub_x").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err = NewStore(db).FindUserByProviderID(context.Background(), "sub_x")
	assert.ErrorIs(t, err, ErrUnknownSubscription)
}
