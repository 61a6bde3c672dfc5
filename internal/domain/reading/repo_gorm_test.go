package reading

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormRepo(t *testing.T) Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return NewRepoGorm(db)
}

func TestRepoGorm_CreateAndGet(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()
	ref := int64(1730165400000)

	rd := &Reading{ClientRef: &ref, Systolic: 120, Diastolic: 80, Pulse: 70, Date: "2025-10-29", Time: "08:00:00"}
	require.NoError(t, repo.Create(ctx, rd))
	assert.NotZero(t, rd.ID)
	assert.False(t, rd.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, rd.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-29", got.Date)
	assert.Equal(t, "08:00:00", got.Time)
	require.NotNil(t, got.ClientRef)
	assert.Equal(t, ref, *got.ClientRef)

	byRef, err := repo.GetByClientRef(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, rd.ID, byRef.ID)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByClientRef(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepoGorm_UniqueConstraints(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()
	ref := int64(7)

	require.NoError(t, repo.Create(ctx, &Reading{ClientRef: &ref, Systolic: 120, Diastolic: 80, Pulse: 70, Date: "2025-10-29", Time: "08:00:00"}))

	err := repo.Create(ctx, &Reading{Systolic: 130, Diastolic: 85, Pulse: 70, Date: "2025-10-29", Time: "08:00:00"})
	assert.ErrorIs(t, err, ErrDuplicateTimestamp)

	err = repo.Create(ctx, &Reading{ClientRef: &ref, Systolic: 130, Diastolic: 85, Pulse: 70, Date: "2025-10-29", Time: "09:00:00"})
	assert.ErrorIs(t, err, errDuplicateClientRef)

	// Readings without a client reference never collide on it.
	require.NoError(t, repo.Create(ctx, &Reading{Systolic: 130, Diastolic: 85, Pulse: 70, Date: "2025-10-29", Time: "10:00:00"}))
	require.NoError(t, repo.Create(ctx, &Reading{Systolic: 130, Diastolic: 85, Pulse: 70, Date: "2025-10-29", Time: "11:00:00"}))
}

func TestRepoGorm_UpdateAndDelete(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()

	rd := &Reading{Systolic: 120, Diastolic: 80, Pulse: 70, Date: "2025-10-29", Time: "08:00:00"}
	require.NoError(t, repo.Create(ctx, rd))

	rd.Systolic, rd.Date, rd.Time = 142, "2025-10-28", "19:30:00"
	require.NoError(t, repo.Update(ctx, rd))

	got, err := repo.GetByID(ctx, rd.ID)
	require.NoError(t, err)
	assert.Equal(t, 142, got.Systolic)
	assert.Equal(t, "2025-10-28", got.Date)

	assert.ErrorIs(t, repo.Update(ctx, &Reading{ID: 999, Systolic: 120, Diastolic: 80, Pulse: 70, Date: "2025-10-01", Time: "08:00:00"}), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, rd.ID))
	assert.ErrorIs(t, repo.Delete(ctx, rd.ID), ErrNotFound)
}

func TestRepoGorm_ListAndExistsAt(t *testing.T) {
	repo := newGormRepo(t)
	ctx := context.Background()

	seeded := []*Reading{
		{Systolic: 118, Diastolic: 76, Pulse: 64, Date: "2025-10-01", Time: "08:00:00"},
		{Systolic: 135, Diastolic: 85, Pulse: 72, Date: "2025-10-15", Time: "08:00:00"},
		{Systolic: 182, Diastolic: 95, Pulse: 105, Date: "2025-10-15", Time: "21:30:00"},
		{Systolic: 125, Diastolic: 75, Pulse: 58, Date: "2025-10-28", Time: "07:00:00"},
	}
	for _, rd := range seeded {
		require.NoError(t, repo.Create(ctx, rd))
	}

	items, total, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, items, 4)
	assert.Equal(t, "2025-10-28", items[0].Date)
	assert.Equal(t, "2025-10-01", items[3].Date)

	items, total, err = repo.List(ctx, Filter{From: "2025-10-15", To: "2025-10-28"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "21:30:00", items[1].Time)
	assert.Equal(t, "08:00:00", items[2].Time)

	items, total, err = repo.List(ctx, Filter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, items, 2)
	assert.Equal(t, "2025-10-15", items[0].Date)
	assert.Equal(t, "08:00:00", items[0].Time)

	taken, err := repo.ExistsAt(ctx, "2025-10-15", "21:30:00", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ExistsAt(ctx, "2025-10-15", "21:30:00", seeded[2].ID)
	require.NoError(t, err)
	assert.False(t, taken, "a reading does not collide with itself")

	taken, err = repo.ExistsAt(ctx, "2025-10-16", "21:30:00", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestService_WithGormRepo(t *testing.T) {
	svc := NewService(newGormRepo(t), newTestNormalizer(), zerolog.Nop())
	ctx := context.Background()

	rd, created, err := svc.Create(ctx, Input{Systolic: 128, Diastolic: 82, Pulse: 66, Date: "28/10/2025", Time: "08:10"})
	require.NoError(t, err)
	assert.True(t, created)

	_, _, err = svc.Create(ctx, Input{Systolic: 130, Diastolic: 82, Pulse: 66, Date: "2025-10-28", Time: "08:10:00"})
	assert.ErrorIs(t, err, ErrDuplicateTimestamp)

	table, err := svc.Table(ctx, Filter{From: "2025-10-28", To: "2025-10-28"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, rd.ID, table.Rows[0].ID)
	assert.Equal(t, "Tuesday", table.Rows[0].Weekday)
}
