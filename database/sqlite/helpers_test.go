package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/rangeserve"
	"github.com/sagarc03/rangeserve/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a migrated repo with a unique table name on a fresh
// in-memory database.
func setupTestRepo(t *testing.T) rangeserve.MetaDataRepo {
	t.Helper()

	ctx := context.Background()
	tables := rangeserve.Tables{MetaData: fmt.Sprintf("metadata_%s", getRandomString(t))}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}
