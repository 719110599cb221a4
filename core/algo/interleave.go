package algo

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
	"gonum.org/v1/gonum/stat/distuv"
)

// SortByScore returns a copy of the candidates ordered by score descending.
// Equal scores keep their original order.
func SortByScore(candidates []schema.Candidate) []schema.Candidate {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b schema.Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return sorted
}

// Interleave merges ranked sources into one stream whose prefixes track the
// requested proportions. Each step draws a source from a categorical
// distribution over the current weights and takes that source's next best
// candidate. Exhausted sources drop out and the remaining weights are
// renormalized. Duplicate identities are emitted once, first occurrence wins.
//
// The result is deterministic for a given src state.
func Interleave(sources []schema.WeightedSource, src rand.Source) ([]schema.Candidate, error) {
	ranked := make([][]schema.Candidate, len(sources))
	weights := make([]float64, len(sources))
	total, active := 0, 0

	for i, s := range sources {
		if s.Proportion < 0 || math.IsNaN(s.Proportion) || math.IsInf(s.Proportion, 0) {
			return nil, fmt.Errorf("source %q has proportion %v: %w", s.Name, s.Proportion, contract.ErrInvalidProportion)
		}
		ranked[i] = SortByScore(s.Candidates)
		if s.Proportion > 0 && len(ranked[i]) > 0 {
			weights[i] = s.Proportion
			total += len(ranked[i])
			active++
		}
	}

	if active == 0 {
		return []schema.Candidate{}, nil
	}

	// Categorical normalizes internally, so raw proportions are enough.
	dist := distuv.NewCategorical(weights, src)
	next := make([]int, len(sources))
	seen := make(map[schema.CandidateID]struct{}, total)
	merged := make([]schema.Candidate, 0, total)

	for active > 0 {
		idx := int(dist.Rand())
		if next[idx] >= len(ranked[idx]) {
			continue // residual weight left by float rounding
		}
		c := ranked[idx][next[idx]]
		next[idx]++

		if _, dup := seen[c.ID()]; !dup {
			seen[c.ID()] = struct{}{}
			if c.Source == "" {
				c.Source = sources[idx].Name
			}
			merged = append(merged, c)
		}

		if next[idx] == len(ranked[idx]) {
			active--
			if active > 0 {
				dist.Reweight(idx, 0)
			}
		}
	}

	return merged, nil
}

// NewSeededSource returns the random source used for a reproducible run.
func NewSeededSource(seed int64) rand.Source {
	return rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
}
