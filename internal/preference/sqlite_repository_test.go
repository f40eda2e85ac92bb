package preference_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aqmonitor/aqmonitor/internal/preference"
)

func newSQLiteRepo(t *testing.T) *preference.SQLiteRepository {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "prefs.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo, err := preference.NewSQLiteRepository(db)
	require.NoError(t, err)
	return repo
}

func TestSQLiteRepository_CRUD(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	email := "a@x.com"

	p := &preference.Preference{
		Location:       "London",
		Email:          &email,
		AlertThreshold: 0,
		PM25Threshold:  35.4,
		EmailEnabled:   false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "London", got.Location)
	assert.Equal(t, 0, got.AlertThreshold)
	assert.Equal(t, now, got.CreatedAt)
	require.NotNil(t, got.Email)
	assert.Equal(t, email, *got.Email)

	got.EmailEnabled = true
	got.Email = nil
	got.UpdatedAt = now.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, again.EmailEnabled)
	assert.Nil(t, again.Email)
	assert.Equal(t, now, again.CreatedAt)
	assert.Equal(t, now.Add(time.Hour), again.UpdatedAt)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, preference.ErrPreferenceNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), preference.ErrPreferenceNotFound)
	assert.ErrorIs(t, repo.Update(ctx, again), preference.ErrPreferenceNotFound)
}

func TestSQLiteRepository_ListAndLocations(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	for _, loc := range []string{"Paris", "London", "Paris"} {
		require.NoError(t, repo.Create(ctx, &preference.Preference{Location: loc}))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID)

	locations, err := repo.DistinctLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"London", "Paris"}, locations)
}
