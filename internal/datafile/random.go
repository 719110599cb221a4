package datafile

import (
	"context"
	"hash/fnv"
	"math/rand/v2"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomScorer gives every line a uniform score in [0, 1).
// The scores of a file depend only on Seed and the file name.
type RandomScorer struct {
	Seed     int64
	Payloads contract.PayloadSource
}

var _ contract.Scorer = &RandomScorer{} // Compile-time check

// Name implements contract.Scorer.
func (s *RandomScorer) Name() string {
	return schema.RandomModel
}

// Score implements contract.Scorer.
func (s *RandomScorer) Score(ctx context.Context, file string) ([]float64, error) {
	payloads, err := s.Payloads.Payloads(ctx, file)
	if err != nil {
		return nil, err
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(file))
	dist := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(uint64(s.Seed), h.Sum64())}

	scores := make([]float64, len(payloads))
	for i := range scores {
		scores[i] = dist.Rand()
	}
	return scores, nil
}
