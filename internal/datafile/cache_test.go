package datafile

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/huangsam/annoq/internal/store"
	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// countingScorer returns fixed scores and counts its calls.
type countingScorer struct {
	calls  int
	scores []float64
}

func (c *countingScorer) Name() string { return "counting" }

func (c *countingScorer) Score(context.Context, string) ([]float64, error) {
	c.calls++
	return c.scores, nil
}

func TestCachingScorer(t *testing.T) {
	cache, err := store.NewCacheStore("scores", schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	path := writeFile(t, "data.jsonl", companiesData)
	inner := &countingScorer{scores: []float64{0.1, 0.9}}
	s := &CachingScorer{Scorer: inner, Cache: cache}
	ctx := context.Background()

	first, err := s.Score(ctx, path)
	require.NoError(t, err)
	second, err := s.Score(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second call is served from cache")

	// Touching the file invalidates the entry
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	_, err = s.Score(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachingScorer_StaleEntry(t *testing.T) {
	path := writeFile(t, "data.jsonl", companiesData)
	inner := &countingScorer{scores: []float64{0.5}}

	cache := &store.MockCacheStore{}
	old := time.Now().Add(-30 * 24 * time.Hour).Unix()
	cache.On("Get", mock.Anything).Return([]byte(`[0.2]`), currentCacheVersion, old, nil)
	cache.On("Set", mock.Anything, []byte(`[0.5]`), currentCacheVersion, mock.Anything).Return(nil)

	scores, err := (&CachingScorer{Scorer: inner, Cache: cache}).Score(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, scores)
	cache.AssertExpectations(t)
}

func TestCachingScorer_NoCache(t *testing.T) {
	inner := &countingScorer{scores: []float64{0.3}}
	scores, err := (&CachingScorer{Scorer: inner}).Score(context.Background(), "unused.jsonl")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3}, scores)

	cache := &store.MockCacheStore{}
	cache.On("Get", mock.Anything).Return(nil, 0, int64(0), sql.ErrNoRows).Maybe()
	_, err = (&CachingScorer{Scorer: inner, Cache: cache}).Score(context.Background(), "missing.jsonl")
	assert.Error(t, err, "missing files cannot be keyed")
}
