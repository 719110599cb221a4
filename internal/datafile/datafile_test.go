package datafile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/annoq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile writes content to a file in a fresh temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const companiesData = `{"text": "Acme sells to enterprise customers", "meta": {"id": 1}}
{"text": "Local bakery with fresh bread"}

{"text": "Enterprise customers and enterprise customers"}
`

func TestJSONLSource(t *testing.T) {
	path := writeFile(t, "companies.jsonl", companiesData)

	payloads, err := JSONLSource{}.Payloads(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, payloads, 4)
	assert.Equal(t, "Acme sells to enterprise customers", payloads[0].Text)
	assert.Equal(t, float64(1), payloads[0].Meta["id"])
	assert.Equal(t, schema.Payload{}, payloads[2], "blank line keeps its slot")
	assert.Equal(t, "Enterprise customers and enterprise customers", payloads[3].Text)
}

func TestJSONLSource_Errors(t *testing.T) {
	_, err := JSONLSource{}.Payloads(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)

	bad := writeFile(t, "bad.jsonl", "{\"text\": \"ok\"}\nnot json\n")
	_, err = JSONLSource{}.Payloads(context.Background(), bad)
	assert.ErrorContains(t, err, "line 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = JSONLSource{}.Payloads(ctx, writeFile(t, "ok.jsonl", companiesData))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadAnnotations(t *testing.T) {
	task := schema.Task{ID: "companies", EntityType: "Company", Labels: []string{"b2b"}}
	path := writeFile(t, "annotations.jsonl", `{"entity": "a.jsonl:0", "annotator": "alice", "value": 1}
{"task_id": "other", "entity_type": "Person", "entity": "X", "label": "vip", "annotator": "bob", "value": -1}
`)

	records, err := ReadAnnotations(path, task)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, schema.AnnotationRecord{
		TaskID: "companies", Entity: schema.EntityRef{Type: "Company", Name: "a.jsonl:0"},
		Label: "b2b", Annotator: "alice", Value: schema.Positive,
	}, records[0])
	assert.Equal(t, "other", records[1].TaskID)
	assert.Equal(t, "Person", records[1].Entity.Type)
	assert.Equal(t, schema.Negative, records[1].Value)

	_, err = ReadAnnotations(writeFile(t, "novalue.jsonl", `{"entity": "x", "annotator": "a"}`), task)
	assert.ErrorContains(t, err, "value is required")

	_, err = ReadAnnotations(writeFile(t, "badvalue.jsonl", `{"entity": "x", "annotator": "a", "value": 2}`), task)
	assert.Error(t, err)
}

func TestRandomScorer(t *testing.T) {
	path := writeFile(t, "companies.jsonl", companiesData)
	ctx := context.Background()

	s := &RandomScorer{Seed: 7, Payloads: JSONLSource{}}
	assert.Equal(t, schema.RandomModel, s.Name())

	first, err := s.Score(ctx, path)
	require.NoError(t, err)
	require.Len(t, first, 4)
	for _, v := range first {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	again, err := s.Score(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, first, again, "same seed and file give the same scores")

	other, err := (&RandomScorer{Seed: 8, Payloads: JSONLSource{}}).Score(ctx, path)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}
