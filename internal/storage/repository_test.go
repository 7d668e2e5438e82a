package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthlyexpenses/internal/folder"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteFolderReadWrite(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	f, err := repo.Pick(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:home", f.Location())

	_, err = f.ReadFile(ctx, "2024-03.csv")
	assert.ErrorIs(t, err, folder.ErrNotFound)
	assert.ErrorIs(t, f.WriteFile(ctx, "2024-03.csv", "x", false), folder.ErrNotFound)

	require.NoError(t, f.WriteFile(ctx, "2024-03.csv", "first", true))
	require.NoError(t, f.WriteFile(ctx, "2024-03.csv", "second", true))
	require.NoError(t, f.WriteFile(ctx, "2024-03.csv", "third", false))

	text, err := f.ReadFile(ctx, "2024-03.csv")
	require.NoError(t, err)
	assert.Equal(t, "third", text)
}

func TestSQLiteFoldersAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a, err := repo.Pick(ctx, "a")
	require.NoError(t, err)
	b, err := repo.Pick(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, a.WriteFile(ctx, "2024-01.csv", "a-data", true))
	require.NoError(t, a.WriteFile(ctx, "2023-12.csv", "a-data", true))

	_, err = b.ReadFile(ctx, "2024-01.csv")
	assert.ErrorIs(t, err, folder.ErrNotFound)

	names, err := a.(folder.Lister).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-12.csv", "2024-01.csv"}, names)
}

func TestSQLitePickEmpty(t *testing.T) {
	_, err := newTestRepo(t).Pick(context.Background(), "")
	assert.ErrorIs(t, err, folder.ErrCancelled)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	require.NoError(t, RunMigrations(path))
}

func TestSQLiteFolderList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	f, err := repo.Pick(ctx, "home")
	require.NoError(t, err)
	require.NoError(t, f.WriteFile(ctx, "2024-05.csv", "x", true))

	lister, ok := f.(folder.Lister)
	require.True(t, ok)
	names, err := lister.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05.csv"}, names)
}

func TestSQLiteFolderStat(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	f, err := repo.Pick(ctx, "home")
	require.NoError(t, err)
	statter, ok := f.(folder.Statter)
	require.True(t, ok)

	_, err = statter.Stat(ctx, "2024-05.csv")
	assert.ErrorIs(t, err, folder.ErrNotFound)

	require.NoError(t, f.WriteFile(ctx, "2024-05.csv", "same", true))
	first, err := statter.Stat(ctx, "2024-05.csv")
	require.NoError(t, err)

	// Same length content still gets a new stamp.
	require.NoError(t, f.WriteFile(ctx, "2024-05.csv", "diff", false))
	second, err := statter.Stat(ctx, "2024-05.csv")
	require.NoError(t, err)
	assert.False(t, first.Equal(second))
	assert.Equal(t, int64(4), second.Size)
}
