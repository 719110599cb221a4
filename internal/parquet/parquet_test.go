package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/annoq/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readBack reads every row of a Parquet file written by this package.
func readBack[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Should be able to open output file")
	defer file.Close()

	reader := parquet.NewGenericReader[T](file)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"generation runs", new(GenerationRun), []string{"run_id", "task_id", "start_time", "end_time", "run_duration_ms", "seed", "total_requests", "config_params"}},
		{"requests", new(Request), []string{"request_id", "run_id", "annotator", "request_order", "status", "entity", "label", "score", "text"}},
		{"annotations", new(Annotation), []string{"annotation_id", "entity_type", "entity", "label", "annotator", "value", "created_at"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "Column %s should exist in schema", col)
			}
		})
	}
}

func TestWriteGenerationRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	duration := int32(90000)
	params := `{"max_per_dp":2}`
	records := []schema.GenerationRunRecord{
		{RunID: "run-1", TaskID: "companies", StartTime: start, EndTime: &end, RunDurationMs: &duration, Seed: 42, MaxPerAnnotator: 100, MaxPerDP: 2, TotalRequests: 12, ConfigParams: &params},
		{RunID: "run-2", TaskID: "companies", StartTime: end, Seed: 7}, // still running
	}

	require.NoError(t, WriteGenerationRunsParquet(ConvertGenerationRunRecords(records), outputPath))

	rows := readBack[GenerationRun](t, outputPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "run-1", rows[0].RunID)
	assert.Equal(t, int64(42), rows[0].Seed)
	assert.Equal(t, int32(12), rows[0].TotalRequests)
	require.NotNil(t, rows[0].EndTime)
	assert.WithinDuration(t, end, *rows[0].EndTime, time.Millisecond)
	require.NotNil(t, rows[0].ConfigParams)
	assert.Equal(t, params, *rows[0].ConfigParams)

	assert.Nil(t, rows[1].EndTime, "EndTime should be nil")
	assert.Nil(t, rows[1].RunDurationMs, "RunDurationMs should be nil")
	assert.Nil(t, rows[1].ConfigParams, "ConfigParams should be nil")
}

func TestWriteRequestsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "requests.parquet")

	records := []schema.StoredRequest{{
		ID: 3, RunID: "run-1", TaskID: "companies", Annotator: "alice", Order: 1,
		Status: schema.PendingStatus, CreatedAt: time.Now().UTC(),
		Request: schema.AnnotationRequest{
			Entity: "data/companies.jsonl:4", EntityType: "Company", Label: "b2b",
			File: "data/companies.jsonl", Line: 4, Score: 0.75, Source: schema.PatternModel,
			Data: schema.Payload{Text: "Acme sells to enterprises"},
		},
	}}

	require.NoError(t, WriteRequestsParquet(ConvertStoredRequests(records), outputPath))

	rows := readBack[Request](t, outputPath)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].RequestID)
	assert.Equal(t, "alice", rows[0].Annotator)
	assert.Equal(t, int32(1), rows[0].Order)
	assert.Equal(t, "pending", rows[0].Status)
	assert.Equal(t, "data/companies.jsonl:4", rows[0].Entity)
	assert.Equal(t, "Acme sells to enterprises", rows[0].Text)
	assert.InDelta(t, 0.75, rows[0].Score, 1e-9)
}

func TestWriteAnnotationsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "annotations.parquet")

	records := []schema.AnnotationRecord{
		{ID: 1, TaskID: "companies", Entity: schema.EntityRef{Type: "Company", Name: "A"}, Label: "b2b", Annotator: "alice", Value: schema.Positive},
		{ID: 2, TaskID: "companies", Entity: schema.EntityRef{Type: "Company", Name: "A"}, Label: "b2b", Annotator: "bob", Value: schema.Negative},
	}

	require.NoError(t, WriteAnnotationsParquet(ConvertAnnotationRecords(records), outputPath))

	rows := readBack[Annotation](t, outputPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "Company", rows[0].EntityType)
	assert.Equal(t, int32(1), rows[0].Value)
	assert.Equal(t, int32(-1), rows[1].Value)
	assert.Equal(t, "bob", rows[1].Annotator)
}

func TestWriteParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")

	require.NoError(t, WriteAnnotationsParquet([]Annotation{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteParquet_InvalidPath(t *testing.T) {
	err := WriteGenerationRunsParquet(nil, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}
