package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leadscout/backend/internal/domain/billing"
	"github.com/leadscout/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// UsageCounterModelSQLite is a SQLite-compatible version of UsageCounterModel for testing
type UsageCounterModelSQLite struct {
	ID          string    `gorm:"primaryKey"`
	UserID      string    `gorm:"not null;index;uniqueIndex:idx_usage_counters_user_period,priority:1"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_usage_counters_user_period,priority:2"`
	PeriodEnd   time.Time `gorm:"not null"`
	Consumed    int64     `gorm:"not null;default:0"`
	Version     int       `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (UsageCounterModelSQLite) TableName() string {
	return "usage_counters"
}

func setupUsageCounterTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&UsageCounterModelSQLite{})
	require.NoError(t, err)

	return db
}

const testPeriodLength = 30 * 24 * time.Hour

func TestUsageCounterRepository_Save(t *testing.T) {
	db := setupUsageCounterTestDB(t)
	repo := NewUsageCounterRepository(db)
	ctx := context.Background()

	t.Run("saves new counter", func(t *testing.T) {
		userID := uuid.New()
		counter, err := billing.NewUsageCounter(userID, time.Now(), testPeriodLength)
		require.NoError(t, err)
		counter.TryDebit(3, 50)

		err = repo.Save(ctx, counter)
		require.NoError(t, err)

		found, err := repo.FindCurrent(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, counter.ID, found.ID)
		assert.Equal(t, userID, found.UserID)
		assert.Equal(t, int64(3), found.Consumed)
	})

	t.Run("updates an existing counter in place", func(t *testing.T) {
		userID := uuid.New()
		counter, err := billing.NewUsageCounter(userID, time.Now(), testPeriodLength)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, counter))

		counter.TryDebit(7, 50)
		require.NoError(t, repo.Save(ctx, counter))

		found, err := repo.FindCurrent(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, counter.ID, found.ID)
		assert.Equal(t, int64(7), found.Consumed)
	})
}

func TestUsageCounterRepository_FindCurrent(t *testing.T) {
	db := setupUsageCounterTestDB(t)
	repo := NewUsageCounterRepository(db)
	ctx := context.Background()

	t.Run("returns the newest period", func(t *testing.T) {
		userID := uuid.New()

		old, err := billing.NewUsageCounter(userID, time.Now().Add(-60*24*time.Hour), testPeriodLength)
		require.NoError(t, err)
		old.TryDebit(9, 50)
		require.NoError(t, repo.Save(ctx, old))

		current, err := billing.NewUsageCounter(userID, time.Now(), testPeriodLength)
		require.NoError(t, err)
		current.TryDebit(1, 50)
		require.NoError(t, repo.Save(ctx, current))

		found, err := repo.FindCurrent(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, current.ID, found.ID)
		assert.Equal(t, int64(1), found.Consumed)
	})

	t.Run("returns not found for unknown user", func(t *testing.T) {
		_, err := repo.FindCurrent(ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestUsageCounterRepository_FindByPeriod(t *testing.T) {
	db := setupUsageCounterTestDB(t)
	repo := NewUsageCounterRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	start := time.Now().Add(-40 * 24 * time.Hour).Truncate(time.Second)
	counter, err := billing.NewUsageCounter(userID, start, testPeriodLength)
	require.NoError(t, err)
	counter.TryDebit(5, 50)
	require.NoError(t, repo.Save(ctx, counter))

	t.Run("finds retained counter by period start", func(t *testing.T) {
		found, err := repo.FindByPeriod(ctx, userID, start)
		require.NoError(t, err)
		assert.Equal(t, int64(5), found.Consumed)
	})

	t.Run("returns not found for an unknown period", func(t *testing.T) {
		_, err := repo.FindByPeriod(ctx, userID, start.Add(time.Hour))
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestUsageCounterRepository_FindHistory(t *testing.T) {
	db := setupUsageCounterTestDB(t)
	repo := NewUsageCounterRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	for i := 3; i >= 1; i-- {
		counter, err := billing.NewUsageCounter(userID, time.Now().Add(-time.Duration(i)*31*24*time.Hour), testPeriodLength)
		require.NoError(t, err)
		counter.TryDebit(int64(i), 50)
		require.NoError(t, repo.Save(ctx, counter))
	}

	t.Run("returns newest first", func(t *testing.T) {
		history, err := repo.FindHistory(ctx, userID, 10)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.True(t, history[0].PeriodStart.After(history[1].PeriodStart))
		assert.True(t, history[1].PeriodStart.After(history[2].PeriodStart))
	})

	t.Run("respects the limit", func(t *testing.T) {
		history, err := repo.FindHistory(ctx, userID, 2)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("empty history for unknown user", func(t *testing.T) {
		history, err := repo.FindHistory(ctx, uuid.New(), 10)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}
