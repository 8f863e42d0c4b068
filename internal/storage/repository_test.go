package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbudget/internal/core"
)

func newTestRepository(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "tbudget.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func sqliteCategories(t *testing.T, repo *SQLiteRepository) ([]int, []string) {
	t.Helper()
	var (
		ordinals []int
		cats     []string
	)
	for row, err := range repo.Scan(context.Background()) {
		require.NoError(t, err)
		ordinals = append(ordinals, row.Ordinal)
		cats = append(cats, row.Fields[core.FieldCategory])
	}
	return ordinals, cats
}

func TestSQLiteRepositoryMigrates(t *testing.T) {
	_, path := newTestRepository(t)

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, RunMigrations(path))
}

func TestSQLiteRepositoryPositionalContract(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	for _, c := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Append(ctx, newRecord(t, c, "1", "")))
	}

	ords, cats := sqliteCategories(t, repo)
	assert.Equal(t, []int{1, 2, 3}, ords)
	assert.Equal(t, []string{"A", "B", "C"}, cats)

	ok, err := repo.Delete(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ords, cats = sqliteCategories(t, repo)
	assert.Equal(t, []int{1, 2}, ords)
	assert.Equal(t, []string{"A", "C"}, cats)

	ok, err = repo.Edit(ctx, 2, core.FieldCategory, "Z")
	require.NoError(t, err)
	require.True(t, ok)
	_, cats = sqliteCategories(t, repo)
	assert.Equal(t, []string{"A", "Z"}, cats)

	for _, ordinal := range []int{0, 3} {
		ok, err = repo.Edit(ctx, ordinal, core.FieldNote, "x")
		require.NoError(t, err)
		assert.False(t, ok, "edit ordinal %d", ordinal)

		ok, err = repo.Delete(ctx, ordinal)
		require.NoError(t, err)
		assert.False(t, ok, "delete ordinal %d", ordinal)
	}

	require.NoError(t, repo.Purge(ctx))
	ords, _ = sqliteCategories(t, repo)
	assert.Empty(t, ords)
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	want := newRecord(t, "food", "12.50", "Lunch")
	require.NoError(t, repo.Append(ctx, want))

	for row, err := range repo.Scan(ctx) {
		require.NoError(t, err)
		got, err := row.Record()
		require.NoError(t, err)
		assert.True(t, want.Timestamp.Equal(got.Timestamp))
		assert.Equal(t, "12.50", got.Amount.String())
		assert.Equal(t, "Lunch", got.Note)
	}
}
