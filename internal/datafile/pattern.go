package datafile

import (
	"context"
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// Pattern is one line of a pattern file:
//
//	{"label": "b2b", "pattern": "enterprise customers"}
//
// The pattern is a phrase matched token by token, ignoring case.
type Pattern struct {
	Label   string `json:"label"`
	Pattern string `json:"pattern"`

	tokens []string
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// LoadPatterns reads a pattern file and keeps the patterns for the label.
// Patterns without a label apply to every label.
func LoadPatterns(path, label string) ([]Pattern, error) {
	all, err := readJSONL[Pattern](path)
	if err != nil {
		return nil, err
	}
	var kept []Pattern
	for _, p := range all {
		if p.Label != "" && p.Label != label {
			continue
		}
		if p.tokens = Tokenize(p.Pattern); len(p.tokens) == 0 {
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

// PatternScorer scores a line by the share of its tokens covered by pattern matches.
type PatternScorer struct {
	Patterns []Pattern
	Payloads contract.PayloadSource
}

var (
	_ contract.Scorer           = &PatternScorer{} // Compile-time check
	_ contract.PatternExplainer = &PatternScorer{} // Compile-time check
)

// NewPatternScorer builds a scorer from already loaded patterns.
func NewPatternScorer(patterns []Pattern, payloads contract.PayloadSource) *PatternScorer {
	ps := &PatternScorer{Payloads: payloads}
	for _, p := range patterns {
		if len(p.tokens) == 0 {
			p.tokens = Tokenize(p.Pattern)
		}
		if len(p.tokens) > 0 {
			ps.Patterns = append(ps.Patterns, p)
		}
	}
	return ps
}

// Name implements contract.Scorer.
func (s *PatternScorer) Name() string {
	return schema.PatternModel
}

// Fingerprint identifies the pattern set, so cached scores change with it.
func (s *PatternScorer) Fingerprint() string {
	keys := make([]string, len(s.Patterns))
	for i, p := range s.Patterns {
		keys[i] = p.Label + "\x00" + strings.Join(p.tokens, " ")
	}
	slices.Sort(keys)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(strings.Join(keys, "\n"))))
}

// Score implements contract.Scorer.
func (s *PatternScorer) Score(ctx context.Context, file string) ([]float64, error) {
	payloads, err := s.Payloads.Payloads(ctx, file)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(payloads))
	for i, p := range payloads {
		scores[i] = s.Explain(p.Text).Score
	}
	return scores, nil
}

// Explain implements contract.PatternExplainer.
// Matches are reported in token order. Overlapping matches are all reported,
// but a token covered twice counts once toward the score.
func (s *PatternScorer) Explain(text string) *schema.PatternInfo {
	tokens := Tokenize(text)
	info := &schema.PatternInfo{Tokens: tokens, Matches: []schema.PatternMatch{}}
	if len(tokens) == 0 {
		return info
	}

	covered := make([]bool, len(tokens))
	for start := range tokens {
		for _, p := range s.Patterns {
			end := start + len(p.tokens)
			if end > len(tokens) || !slices.Equal(tokens[start:end], p.tokens) {
				continue
			}
			info.Matches = append(info.Matches, schema.PatternMatch{
				Start:   start,
				End:     end,
				Text:    strings.Join(tokens[start:end], " "),
				Pattern: p.Pattern,
			})
			for i := start; i < end; i++ {
				covered[i] = true
			}
		}
	}

	hits := 0
	for _, c := range covered {
		if c {
			hits++
		}
	}
	info.Score = float64(hits) / float64(len(tokens))
	return info
}
