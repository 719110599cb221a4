package datafile

import (
	"context"
	"testing"

	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"acme", "inc", "sells", "b2b", "saas"}, Tokenize("ACME, Inc. sells B2B-SaaS!"))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestLoadPatterns(t *testing.T) {
	path := writeFile(t, "patterns.jsonl", `{"label": "b2b", "pattern": "enterprise customers"}
{"label": "b2c", "pattern": "bakery"}
{"pattern": "SaaS"}
{"label": "b2b", "pattern": "!!!"}
`)

	patterns, err := LoadPatterns(path, "b2b")
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	assert.Equal(t, "enterprise customers", patterns[0].Pattern)
	assert.Equal(t, "SaaS", patterns[1].Pattern)
}

func TestPatternScorer_Explain(t *testing.T) {
	s := NewPatternScorer([]Pattern{{Pattern: "enterprise customers"}, {Pattern: "customers"}}, nil)

	info := s.Explain("Acme sells to Enterprise customers")
	assert.Equal(t, []string{"acme", "sells", "to", "enterprise", "customers"}, info.Tokens)
	assert.Equal(t, []schema.PatternMatch{
		{Start: 3, End: 5, Text: "enterprise customers", Pattern: "enterprise customers"},
		{Start: 4, End: 5, Text: "customers", Pattern: "customers"},
	}, info.Matches)
	assert.InDelta(t, 0.4, info.Score, 1e-9, "overlapping tokens count once")

	none := s.Explain("Local bakery")
	assert.Empty(t, none.Matches)
	assert.Zero(t, none.Score)

	empty := s.Explain("")
	assert.Zero(t, empty.Score)
}

func TestPatternScorer_Score(t *testing.T) {
	path := writeFile(t, "companies.jsonl", companiesData)
	s := NewPatternScorer([]Pattern{{Pattern: "enterprise customers"}}, JSONLSource{})
	assert.Equal(t, schema.PatternModel, s.Name())

	scores, err := s.Score(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, scores, 4)
	assert.InDelta(t, 0.4, scores[0], 1e-9)
	assert.Zero(t, scores[1])
	assert.Zero(t, scores[2])
	assert.InDelta(t, 0.8, scores[3], 1e-9)
}

func TestPatternScorer_Fingerprint(t *testing.T) {
	a := NewPatternScorer([]Pattern{{Pattern: "x y"}, {Pattern: "z"}}, nil)
	b := NewPatternScorer([]Pattern{{Pattern: "Z"}, {Pattern: "X, Y"}}, nil)
	c := NewPatternScorer([]Pattern{{Pattern: "x"}}, nil)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "order and case do not matter")
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
