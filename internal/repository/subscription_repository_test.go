package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"wellness-service/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestExpireStaleSubscriptions(t *testing.T) {
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// The guard must exclude only EXPIRED rows: a PENDING subscription whose
	// countersigned contract aged past the cutoff expires like an ACTIVE one.
	t.Run("expires every non-expired aged subscription", func(t *testing.T) {
		gdb, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE company_subscriptions SET status = \$1\s+WHERE status <> \$2`).
			WithArgs(models.SubscriptionExpired, models.SubscriptionExpired, cutoff).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := NewSubscriptionRepository(gdb).ExpireStaleSubscriptions(context.Background(), cutoff)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		gdb, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE company_subscriptions`).
			WillReturnError(errors.New("connection reset"))

		err := NewSubscriptionRepository(gdb).ExpireStaleSubscriptions(context.Background(), cutoff)
		require.Error(t, err)
	})
}
