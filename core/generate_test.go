package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/annoq/internal/store"
	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fixedScorer returns canned scores per file.
type fixedScorer struct {
	name   string
	scores map[string][]float64
}

func (s fixedScorer) Name() string { return s.name }

func (s fixedScorer) Score(_ context.Context, file string) ([]float64, error) {
	scores, ok := s.scores[file]
	if !ok {
		return nil, errors.New("unscored file")
	}
	return scores, nil
}

func companiesTask() schema.Task {
	return schema.Task{
		ID:         "companies",
		EntityType: "Company",
		Labels:     []string{"b2b"},
		Annotators: []schema.AnnotatorID{"u1", "u2"},
		DataFiles:  []string{"companies.jsonl"},
	}
}

func descendingSource() []SourceSpec {
	return []SourceSpec{{
		Scorer:     fixedScorer{name: "fixed", scores: map[string][]float64{"companies.jsonl": {0.9, 0.8, 0.7}}},
		Proportion: 1,
	}}
}

func entities(requests []schema.AnnotationRequest) []string {
	out := make([]string, len(requests))
	for i, r := range requests {
		out[i] = r.Entity
	}
	return out
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("persists once and tracks the run", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("BeginGeneration", mock.Anything, mock.MatchedBy(func(run schema.GenerationRunRecord) bool {
			return run.TaskID == "companies" && run.Seed == 7 && run.ConfigParams != nil
		})).Return(nil).Once()
		ts.On("AlreadyAnnotated", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Twice()
		ts.On("SaveRequests", mock.Anything, mock.AnythingOfType("string"), "companies", mock.Anything).Return(nil).Once()
		ts.On("EndGeneration", mock.Anything, mock.AnythingOfType("string"), mock.Anything, 3).Return(nil).Once()

		opts := GenerateOptions{Task: companiesTask(), MaxPerAnnotator: 2, MaxPerDP: 1, Seed: 7}
		deps := GenerateDeps{
			Payloads:  NewPayloadCache(newFakePayloads(companyPayloads())),
			Blacklist: ts,
			Requests:  ts,
			Runs:      ts,
		}
		result, err := Generate(ctx, opts, descendingSource(), deps)
		require.NoError(t, err)

		assert.NotEmpty(t, result.RunID)
		assert.True(t, result.Persisted)
		assert.Equal(t, 3, result.TotalCandidates)
		assert.Equal(t, []string{"companies.jsonl:0", "companies.jsonl:2"}, entities(result.Requests["u1"]))
		assert.Equal(t, []string{"companies.jsonl:1"}, entities(result.Requests["u2"]))
		assert.Equal(t, "b2b", result.Requests["u1"][0].Label)
		assert.Equal(t, "fixed", result.Requests["u1"][0].Source)
		ts.AssertExpectations(t)
	})

	t.Run("dry run never touches the store", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("AlreadyAnnotated", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

		opts := GenerateOptions{Task: companiesTask(), MaxPerAnnotator: 100, MaxPerDP: 100, DryRun: true}
		deps := GenerateDeps{
			Payloads:  NewPayloadCache(newFakePayloads(companyPayloads())),
			Blacklist: ts,
			Requests:  ts,
			Runs:      ts,
		}
		result, err := Generate(ctx, opts, descendingSource(), deps)
		require.NoError(t, err)
		assert.False(t, result.Persisted)
		assert.Len(t, result.Requests["u1"], 3)
		ts.AssertNotCalled(t, "SaveRequests", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		ts.AssertNotCalled(t, "BeginGeneration", mock.Anything, mock.Anything)
	})

	t.Run("blacklist skips judged items", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("AlreadyAnnotated", mock.Anything, mock.Anything, schema.AnnotatorID("u1")).
			Return([]schema.CandidateID{{File: "companies.jsonl", Line: 0}}, nil)
		ts.On("AlreadyAnnotated", mock.Anything, mock.Anything, schema.AnnotatorID("u2")).Return(nil, nil)

		opts := GenerateOptions{Task: companiesTask(), MaxPerAnnotator: 100, MaxPerDP: 100, DryRun: true}
		deps := GenerateDeps{Payloads: NewPayloadCache(newFakePayloads(companyPayloads())), Blacklist: ts}
		result, err := Generate(ctx, opts, descendingSource(), deps)
		require.NoError(t, err)
		assert.Equal(t, []string{"companies.jsonl:1", "companies.jsonl:2"}, entities(result.Requests["u1"]))
		assert.Len(t, result.Requests["u2"], 3)
	})

	t.Run("explicit annotators override the task", func(t *testing.T) {
		opts := GenerateOptions{
			Task:            companiesTask(),
			Annotators:      []schema.AnnotatorID{"carol"},
			MaxPerAnnotator: 1,
			MaxPerDP:        1,
			DryRun:          true,
		}
		deps := GenerateDeps{Payloads: NewPayloadCache(newFakePayloads(companyPayloads()))}
		result, err := Generate(ctx, opts, descendingSource(), deps)
		require.NoError(t, err)
		assert.Len(t, result.Requests, 1)
		assert.Equal(t, []string{"companies.jsonl:0"}, entities(result.Requests["carol"]))
	})

	t.Run("save failure is returned", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("SaveRequests", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

		opts := GenerateOptions{Task: companiesTask(), MaxPerAnnotator: 1, MaxPerDP: 1}
		deps := GenerateDeps{Payloads: NewPayloadCache(newFakePayloads(companyPayloads())), Requests: ts}
		result, err := Generate(ctx, opts, descendingSource(), deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.False(t, result.Persisted)
	})

	t.Run("tracking failure is only a warning", func(t *testing.T) {
		ts := &store.MockTaskStore{}
		ts.On("BeginGeneration", mock.Anything, mock.Anything).Return(errors.New("no runs table"))
		ts.On("SaveRequests", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		opts := GenerateOptions{Task: companiesTask(), MaxPerAnnotator: 1, MaxPerDP: 1}
		deps := GenerateDeps{Payloads: NewPayloadCache(newFakePayloads(companyPayloads())), Requests: ts, Runs: ts}
		result, err := Generate(ctx, opts, descendingSource(), deps)
		require.NoError(t, err)
		assert.True(t, result.Persisted)
		ts.AssertNotCalled(t, "EndGeneration", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("scorer failure", func(t *testing.T) {
		task := companiesTask()
		task.DataFiles = append(task.DataFiles, "unknown.jsonl")
		opts := GenerateOptions{Task: task, MaxPerAnnotator: 1, MaxPerDP: 1, DryRun: true}
		deps := GenerateDeps{Payloads: NewPayloadCache(newFakePayloads(companyPayloads()))}
		_, err := Generate(ctx, opts, descendingSource(), deps)
		assert.ErrorContains(t, err, "unscored file")
	})

	t.Run("same seed same result", func(t *testing.T) {
		sources := []SourceSpec{
			{Scorer: fixedScorer{name: "a", scores: map[string][]float64{"companies.jsonl": {0.1, 0.5, 0.9}}}, Proportion: 1},
			{Scorer: fixedScorer{name: "b", scores: map[string][]float64{"companies.jsonl": {0.9, 0.5, 0.1}}}, Proportion: 3},
		}
		run := func() map[schema.AnnotatorID][]schema.AnnotationRequest {
			opts := GenerateOptions{Task: companiesTask(), MaxPerAnnotator: 2, MaxPerDP: 1, Seed: 42, DryRun: true}
			deps := GenerateDeps{Payloads: NewPayloadCache(newFakePayloads(companyPayloads()))}
			result, err := Generate(ctx, opts, sources, deps)
			require.NoError(t, err)
			return result.Requests
		}
		assert.Equal(t, run(), run())
	})
}
