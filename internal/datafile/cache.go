package datafile

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/annoq/internal/contract"
)

// currentCacheVersion defines the version of the cached score layout
const currentCacheVersion = 1

// cacheMaxAge is how long cached scores stay valid.
const cacheMaxAge = 7 * 24 * time.Hour

// fingerprinter is implemented by scorers whose output depends on more than the file.
type fingerprinter interface {
	Fingerprint() string
}

// CachingScorer memoizes another scorer in the score cache.
// Entries are keyed by model, file path, modification time and size, so an
// edited data file is scored again.
type CachingScorer struct {
	Scorer contract.Scorer
	Cache  contract.CacheStore
}

var _ contract.Scorer = &CachingScorer{} // Compile-time check

// Name implements contract.Scorer.
func (s *CachingScorer) Name() string {
	return s.Scorer.Name()
}

// Score implements contract.Scorer.
func (s *CachingScorer) Score(ctx context.Context, file string) ([]float64, error) {
	if s.Cache == nil {
		// Fallback to direct computation
		return s.Scorer.Score(ctx, file)
	}

	key, err := s.cacheKey(file)
	if err != nil {
		return nil, err
	}

	// Check for cache hit
	if scores := s.checkCacheHit(key); scores != nil {
		return scores, nil
	}

	// Cache miss: compute and store
	return s.computeAndStore(ctx, file, key)
}

// checkCacheHit attempts to retrieve and validate cached scores
func (s *CachingScorer) checkCacheHit(key string) []float64 {
	data, version, ts, err := s.Cache.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheMaxAge {
		return nil
	}
	var scores []float64
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil
	}
	return scores
}

// computeAndStore computes the scores and stores them in cache
func (s *CachingScorer) computeAndStore(ctx context.Context, file, key string) ([]float64, error) {
	scores, err := s.Scorer.Score(ctx, file)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(scores); err == nil {
		if err := s.Cache.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn(fmt.Sprintf("failed to cache %s scores for %s", s.Scorer.Name(), file), err)
		}
	}
	return scores, nil
}

// cacheKey creates a unique key from the model and the file's current state
func (s *CachingScorer) cacheKey(file string) (string, error) {
	info, err := os.Stat(file)
	if err != nil {
		return "", fmt.Errorf("stat data file: %w", err)
	}
	fingerprint := ""
	if f, ok := s.Scorer.(fingerprinter); ok {
		fingerprint = f.Fingerprint()
	}
	key := fmt.Sprintf("%s:%s:%s:%d:%d", s.Scorer.Name(), fingerprint, file, info.ModTime().UnixNano(), info.Size())
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}
