package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/database/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

func tempDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "access.db")
}

// setupTestRepo creates a migrated repo with a unique table name.
func setupTestRepo(t *testing.T) webroot.AccessRepo {
	t.Helper()
	ctx := context.Background()

	tables := webroot.Tables{AccessLog: "access_" + getRandomString(t)}

	db, err := sqlite.Connect(ctx, tempDSN(t), tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}

func newExchange(resource string, status webroot.StatusCode, createdAt time.Time) webroot.Exchange {
	return webroot.Exchange{
		ID:         uuid.New(),
		SessionID:  uuid.New(),
		RemoteAddr: "127.0.0.1:40000",
		Resource:   resource,
		Status:     status,
		BytesSent:  42,
		Duration:   3 * time.Millisecond,
		CreatedAt:  createdAt,
	}
}
