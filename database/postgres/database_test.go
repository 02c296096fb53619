package postgres_test

import (
	"context"
	"testing"

	"github.com/sagarc03/rangeserve"
	"github.com/sagarc03/rangeserve/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) rangeserve.MetaDataRepo {
	t.Helper()

	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tableName := "metadata_" + getRandomString(t)
	db, err := postgres.Connect(ctx, getDSN(pool), rangeserve.Tables{MetaData: tableName})
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() {
		_ = db.Close()
		_ = dropTable(ctx, pool, tableName)
	})

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}

func TestConnect(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), rangeserve.Tables{MetaData: "metadata"})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Ping(ctx), "ping should succeed after connect")
}

func TestDatabase_Validate(t *testing.T) {
	pool := getSharedTestDatabase(t)
	dsn := getDSN(pool)
	ctx := context.Background()

	t.Run("success - valid schema after migrate", func(t *testing.T) {
		tableName := "validate_test_" + getRandomString(t)
		db, err := postgres.Connect(ctx, dsn, rangeserve.Tables{MetaData: tableName})
		require.NoError(t, err)
		defer func() {
			_ = db.Close()
			_ = dropTable(ctx, pool, tableName)
		}()

		require.NoError(t, db.Migrate(ctx))
		require.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
		assert.NoError(t, db.Validate(ctx))
	})

	t.Run("error - table does not exist", func(t *testing.T) {
		db, err := postgres.Connect(ctx, dsn, rangeserve.Tables{MetaData: "nonexistent_table"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assert.ErrorContains(t, db.Validate(ctx), "does not exist")
	})

	t.Run("error - missing columns", func(t *testing.T) {
		tableName := "incomplete_" + getRandomString(t)

		_, err := pool.Exec(ctx, `CREATE TABLE `+tableName+` (id UUID PRIMARY KEY, path TEXT NOT NULL)`)
		require.NoError(t, err)
		defer func() { _ = dropTable(ctx, pool, tableName) }()

		db, err := postgres.Connect(ctx, dsn, rangeserve.Tables{MetaData: tableName})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assert.ErrorContains(t, db.Validate(ctx), "missing columns")
	})

	t.Run("error - wrong column type", func(t *testing.T) {
		tableName := "wrongtype_" + getRandomString(t)

		_, err := pool.Exec(ctx, `
			CREATE TABLE `+tableName+` (
				id UUID PRIMARY KEY,
				path TEXT NOT NULL,
				content_type TEXT NOT NULL,
				etag TEXT NOT NULL,
				file_size_bytes TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`)
		require.NoError(t, err)
		defer func() { _ = dropTable(ctx, pool, tableName) }()

		db, err := postgres.Connect(ctx, dsn, rangeserve.Tables{MetaData: tableName})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		assert.ErrorContains(t, db.Validate(ctx), "file_size_bytes")
	})
}

func TestDatabase_Close(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, getDSN(pool), rangeserve.Tables{MetaData: "close_test"})
	require.NoError(t, err)

	assert.NoError(t, db.Close(), "close should succeed")
	assert.Error(t, db.Ping(ctx), "ping should fail after close")
}

func TestRepo_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	entry := rangeserve.ObjectEntry{Path: "movies/trailer.mp4", Size: 2048, ETag: "v1", ContentType: "video/mp4"}

	first, inserted, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "movies/trailer.mp4", first.Path)
	assert.Equal(t, int64(2048), first.FileSizeBytes)

	entry.ETag = "v2"
	entry.Size = 4096
	second, inserted, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Etag)
	assert.Equal(t, int64(4096), second.FileSizeBytes)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestRepo_Get(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, rangeserve.ErrNotFound)
	})

	t.Run("found", func(t *testing.T) {
		created, _, err := repo.Upsert(ctx, rangeserve.ObjectEntry{
			Path: "docs/a.txt", Size: 5, ETag: "e", ContentType: "text/plain",
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, "docs/a.txt")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "text/plain", got.ContentType)
		assert.Equal(t, int64(5), got.FileSizeBytes)
	})
}
