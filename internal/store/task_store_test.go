package store

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMemoryStore opens a migrated in-memory SQLite task store.
func newMemoryStore(t *testing.T) *TaskStoreImpl {
	t.Helper()
	ts, err := NewTaskStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ts.Close() })
	return ts
}

func companiesTask() schema.Task {
	return schema.Task{
		ID:         "companies",
		EntityType: "Company",
		Labels:     []string{"b2b"},
		Annotators: []schema.AnnotatorID{"alice", "bob"},
	}
}

func request(file string, line int) schema.AnnotationRequest {
	id := schema.CandidateID{File: file, Line: line}
	return schema.AnnotationRequest{
		Entity:     id.Key(),
		EntityType: "Company",
		Label:      "b2b",
		File:       file,
		Line:       line,
		Score:      0.5,
		Source:     schema.RandomModel,
		Data:       schema.Payload{Text: "row " + id.Key()},
	}
}

func annotation(task, annotator, entity string, value schema.AnnotationValue) schema.AnnotationRecord {
	return schema.AnnotationRecord{
		TaskID:    task,
		Entity:    schema.EntityRef{Type: "Company", Name: entity},
		Label:     "b2b",
		Annotator: schema.AnnotatorID(annotator),
		Value:     value,
	}
}

func TestTaskStore_NoneBackend(t *testing.T) {
	ts, err := NewTaskStore(schema.NoneBackend, "")
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, ts.BeginGeneration(ctx, schema.GenerationRunRecord{RunID: "r"}))
	assert.NoError(t, ts.EndGeneration(ctx, "r", time.Now(), 1))
	assert.NoError(t, ts.SaveRequests(ctx, "r", "t", map[schema.AnnotatorID][]schema.AnnotationRequest{"u": {request("f", 0)}}))
	assert.NoError(t, ts.MarkRequestComplete(ctx, 1))

	ids, err := ts.AlreadyAnnotated(ctx, companiesTask(), "alice")
	assert.NoError(t, err)
	assert.Empty(t, ids)

	n, err := ts.ImportAnnotations(ctx, []schema.AnnotationRecord{annotation("t", "u", "x", schema.Positive)})
	assert.NoError(t, err)
	assert.Zero(t, n)

	status, err := ts.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, ts.Close())
}

func TestTaskStore_GenerationRuns(t *testing.T) {
	ts := newMemoryStore(t)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ts.BeginGeneration(ctx, schema.GenerationRunRecord{
		RunID: "run-1", TaskID: "companies", StartTime: start, Seed: 42, MaxPerAnnotator: 10, MaxPerDP: 2,
	}))
	require.NoError(t, ts.EndGeneration(ctx, "run-1", start.Add(1500*time.Millisecond), 6))

	runs, err := ts.GetAllGenerationRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "companies", run.TaskID)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, int32(6), run.TotalRequests)
	assert.True(t, run.StartTime.Equal(start))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	assert.Nil(t, run.ConfigParams)

	assert.Error(t, ts.EndGeneration(ctx, "missing", time.Now(), 0))

	status, err := ts.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, "run-1", status.LastRunID)
	assert.Equal(t, int64(1), status.TableSizes[generationRunsTable])
}

func TestTaskStore_SaveRequestsReplacesPerAnnotator(t *testing.T) {
	ts := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, ts.SaveRequests(ctx, "run-1", "companies", map[schema.AnnotatorID][]schema.AnnotationRequest{
		"alice": {request("a.jsonl", 0), request("a.jsonl", 1)},
		"bob":   {request("a.jsonl", 2)},
	}))

	// A second run for alice only leaves bob untouched
	require.NoError(t, ts.SaveRequests(ctx, "run-2", "companies", map[schema.AnnotatorID][]schema.AnnotationRequest{
		"alice": {request("a.jsonl", 5)},
	}))

	alice, err := ts.ListRequests(ctx, "companies", "alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "run-2", alice[0].RunID)
	assert.Equal(t, "a.jsonl:5", alice[0].Request.Entity)
	assert.Equal(t, "row a.jsonl:5", alice[0].Request.Data.Text)
	assert.Equal(t, schema.PendingStatus, alice[0].Status)

	bob, err := ts.ListRequests(ctx, "companies", "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, "run-1", bob[0].RunID)

	// An empty list clears the annotator
	require.NoError(t, ts.SaveRequests(ctx, "run-3", "companies", map[schema.AnnotatorID][]schema.AnnotationRequest{"bob": nil}))
	bob, err = ts.ListRequests(ctx, "companies", "bob")
	require.NoError(t, err)
	assert.Empty(t, bob)

	// Other tasks are not affected
	require.NoError(t, ts.SaveRequests(ctx, "run-4", "people", map[schema.AnnotatorID][]schema.AnnotationRequest{"alice": {request("p.jsonl", 0)}}))
	all, err := ts.ListRequests(ctx, "companies", "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTaskStore_RequestOrderAndCompletion(t *testing.T) {
	ts := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, ts.SaveRequests(ctx, "run-1", "companies", map[schema.AnnotatorID][]schema.AnnotationRequest{
		"alice": {request("a.jsonl", 3), request("a.jsonl", 1), request("a.jsonl", 2)},
		"bob":   {request("a.jsonl", 3)},
	}))

	alice, err := ts.ListRequests(ctx, "companies", "alice")
	require.NoError(t, err)
	require.Len(t, alice, 3)
	for i, want := range []int{3, 1, 2} {
		assert.Equal(t, i, alice[i].Order)
		assert.Equal(t, want, alice[i].Request.Line)
	}

	stats, err := ts.RequestStatistics(ctx, "companies")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalOutstanding)
	assert.Equal(t, map[schema.AnnotatorID]int{"alice": 3, "bob": 1}, stats.PerUser)

	require.NoError(t, ts.MarkRequestComplete(ctx, alice[0].ID))
	err = ts.MarkRequestComplete(ctx, 9999)
	assert.ErrorIs(t, err, contract.ErrLookup)

	stats, err = ts.RequestStatistics(ctx, "companies")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOutstanding)
	assert.Equal(t, 2, stats.PerUser["alice"])
}

func TestTaskStore_ImportAnnotationsCompletesRequests(t *testing.T) {
	ts := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, ts.SaveRequests(ctx, "run-1", "companies", map[schema.AnnotatorID][]schema.AnnotationRequest{
		"alice": {request("a.jsonl", 0), request("a.jsonl", 1)},
	}))

	n, err := ts.ImportAnnotations(ctx, []schema.AnnotationRecord{
		annotation("companies", "alice", "a.jsonl:0", schema.Positive),
		annotation("companies", "bob", "a.jsonl:0", schema.Negative),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := ts.RequestStatistics(ctx, "companies")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOutstanding)

	records, err := ts.FetchAnnotations(ctx, "b2b")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, schema.AnnotatorID("alice"), records[0].Annotator)
	assert.Equal(t, schema.Negative, records[1].Value)
	assert.False(t, records[0].CreatedAt.IsZero())

	other, err := ts.FetchAnnotations(ctx, "other-label")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTaskStore_ImportAnnotationsRejectsInvalid(t *testing.T) {
	ts := newMemoryStore(t)
	ctx := context.Background()

	bad := annotation("companies", "alice", "x", schema.AnnotationValue(3))
	_, err := ts.ImportAnnotations(ctx, []schema.AnnotationRecord{annotation("companies", "alice", "y", schema.Positive), bad})
	require.Error(t, err)

	_, err = ts.ImportAnnotations(ctx, []schema.AnnotationRecord{annotation("companies", "", "y", schema.Positive)})
	require.Error(t, err)

	// Nothing from a rejected batch is stored
	records, err := ts.GetAllAnnotations(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTaskStore_AlreadyAnnotated(t *testing.T) {
	ts := newMemoryStore(t)
	ctx := context.Background()

	people := annotation("people", "alice", "a.jsonl:9", schema.Positive)
	people.Entity.Type = "Person"
	otherLabel := annotation("companies", "alice", "a.jsonl:8", schema.Positive)
	otherLabel.Label = "saas"

	_, err := ts.ImportAnnotations(ctx, []schema.AnnotationRecord{
		annotation("companies", "alice", "a.jsonl:1", schema.Positive),
		annotation("companies", "alice", "a.jsonl:1", schema.Negative), // re-judged
		annotation("companies", "alice", "a.jsonl:4", schema.Unknown),
		annotation("companies", "alice", "Acme Corp", schema.Positive), // not a candidate key
		annotation("companies", "bob", "a.jsonl:2", schema.Positive),
		people,
		otherLabel,
	})
	require.NoError(t, err)

	ids, err := ts.AlreadyAnnotated(ctx, companiesTask(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []schema.CandidateID{{File: "a.jsonl", Line: 1}, {File: "a.jsonl", Line: 4}}, ids)

	none, err := ts.AlreadyAnnotated(ctx, companiesTask(), "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestTaskStore_DistinctEntities checks the counts statistics are built from
// when annotations come back through the store.
func TestTaskStore_DistinctEntities(t *testing.T) {
	ts := newMemoryStore(t)
	ctx := context.Background()

	_, err := ts.ImportAnnotations(ctx, []schema.AnnotationRecord{
		annotation("companies", "alice", "A", schema.Positive),
		annotation("companies", "bob", "A", schema.Negative),
		annotation("companies", "alice", "B", schema.Positive),
		annotation("companies", "bob", "C", schema.Negative),
		annotation("companies", "bob", "D", schema.Unknown),
	})
	require.NoError(t, err)

	records, err := ts.FetchAnnotations(ctx, "b2b")
	require.NoError(t, err)
	assert.Len(t, records, 5)

	distinct := make(map[schema.EntityRef]struct{})
	for _, r := range records {
		if r.Value != schema.Unknown {
			distinct[r.Entity] = struct{}{}
		}
	}
	assert.Len(t, distinct, 3)
}
