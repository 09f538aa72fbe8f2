package auditstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "audit.db")},
	}
	store, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordStartedThenFinished(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordStarted(ctx, TransactionRecord{
		ID:                  "1:2:1",
		SourceEntityID:      1,
		DestinationEntityID: 2,
		SourceFilePath:      "/src/f.bin",
		DestinationFilePath: "/dst/f.bin",
		TransmissionMode:    "acknowledged",
	}))

	rec, ok, err := store.Get(ctx, "1:2:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), rec.SourceEntityID)
	assert.Nil(t, rec.CompletedAt)

	require.NoError(t, store.RecordFinished(ctx, "1:2:1", "NoError", "DeliveryComplete"))

	rec, ok, err = store.Get(ctx, "1:2:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "NoError", rec.ConditionCode)
	assert.Equal(t, "DeliveryComplete", rec.DeliveryCode)
	assert.NotNil(t, rec.CompletedAt)
}

func TestStore_GetMissingReturnsFalse(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	_, ok, err := store.Get(context.Background(), "9:9:9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ListOrdersNewestFirst(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordStarted(ctx, TransactionRecord{ID: "1:2:1", SourceEntityID: 1, DestinationEntityID: 2}))
	require.NoError(t, store.RecordStarted(ctx, TransactionRecord{ID: "1:2:2", SourceEntityID: 1, DestinationEntityID: 2}))

	recs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "1:2:2", recs[0].ID)
}

func TestConfig_ValidateRejectsMissingPostgresFields(t *testing.T) {
	t.Parallel()
	cfg := &Config{Type: DatabaseTypePostgres}
	cfg.ApplyDefaults()
	assert.Error(t, cfg.Validate())
}

func TestConfig_ApplyDefaultsFillsSQLitePath(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, DatabaseTypeSQLite, cfg.Type)
	assert.NotEmpty(t, cfg.SQLite.Path)
}
