package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dashboard"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewStore(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Migrate(ctx))
	// Migrations are idempotent.
	require.NoError(t, store.Migrate(ctx))
	return store
}

func record(t *testing.T, generatedAt time.Time) SnapshotRecord {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"generatedAt": generatedAt, "figures": map[string]any{}})
	require.NoError(t, err)
	return SnapshotRecord{
		ID:          uuid.New(),
		GeneratedAt: generatedAt,
		Version:     "11",
		UserGroup:   "PaidOnly",
		Payload:     payload,
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.LatestSnapshot(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	base := time.Date(2019, 6, 3, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		rec := record(t, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.SaveSnapshot(ctx, rec))
		ids = append(ids, rec.ID)
	}

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[3], latest.ID)
	assert.True(t, latest.GeneratedAt.Equal(base.Add(3*time.Hour)))
	assert.JSONEq(t, `{"generatedAt":"2019-06-03T15:00:00Z","figures":{}}`, string(latest.Payload))

	metas, err := store.ListSnapshots(ctx, 2)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, ids[3], metas[0].ID)
	assert.Equal(t, ids[2], metas[1].ID)
	assert.Positive(t, metas[0].SizeBytes)

	deleted, err := store.PruneSnapshots(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	metas, err = store.ListSnapshots(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, metas, 2)
}
