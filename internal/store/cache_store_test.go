package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore_SQLite(t *testing.T) {
	cs, err := NewCacheStore(scoreCacheTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = cs.Close() }()

	_, _, _, err = cs.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	now := time.Now().Unix()
	require.NoError(t, cs.Set("random|a.jsonl", []byte(`[0.1,0.2]`), 1, now-60))
	require.NoError(t, cs.Set("random|a.jsonl", []byte(`[0.3]`), 2, now)) // replaces
	require.NoError(t, cs.Set("pattern|a.jsonl", []byte(`[1]`), 1, now-120))

	value, version, ts, err := cs.Get("random|a.jsonl")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[0.3]`), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, now, ts)

	status, err := cs.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, now, status.LastEntryTime.Unix())
	assert.Equal(t, now-120, status.OldestEntryTime.Unix())
	assert.Positive(t, status.TableSizeBytes)
}

func TestCacheStore_NoneBackend(t *testing.T) {
	cs, err := NewCacheStore(scoreCacheTable, schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, cs.Set("k", []byte("v"), 1, 0))
	_, _, _, err = cs.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	status, err := cs.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, cs.Close())
}

func TestCacheStore_InvalidTableName(t *testing.T) {
	_, err := NewCacheStore("scores; DROP TABLE x", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
}
