// Package datafile reads task data files and scores their lines.
package datafile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// maxLineBytes bounds one JSONL line.
const maxLineBytes = 4 * 1024 * 1024

// JSONLSource reads data files with one JSON object per line:
//
//	{"text": "...", "meta": {...}}
//
// Line numbers are zero-based physical lines. A blank line is kept as an empty
// payload so that later lines keep their numbers.
type JSONLSource struct{}

var _ contract.PayloadSource = JSONLSource{} // Compile-time check

// Payloads implements contract.PayloadSource.
func (JSONLSource) Payloads(ctx context.Context, file string) ([]schema.Payload, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var payloads []schema.Payload
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for line := 0; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		var p schema.Payload
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", file, line, err)
			}
		}
		payloads = append(payloads, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan data file %s: %w", file, err)
	}
	return payloads, nil
}

// readJSONL decodes every non-blank line of a file into T.
func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

// annotationLine is one line of an annotation import file.
type annotationLine struct {
	TaskID     string `json:"task_id"`
	EntityType string `json:"entity_type"`
	Entity     string `json:"entity"`
	Label      string `json:"label"`
	Annotator  string `json:"annotator"`
	Value      *int   `json:"value"`
}

// ReadAnnotations loads completed judgments from a JSONL file, one record per line:
//
//	{"task_id": "companies", "entity_type": "Company", "entity": "data.jsonl:3", "label": "b2b", "annotator": "alice", "value": 1}
//
// A missing task_id or entity_type is taken from the task.
func ReadAnnotations(path string, task schema.Task) ([]schema.AnnotationRecord, error) {
	lines, err := readJSONL[annotationLine](path)
	if err != nil {
		return nil, err
	}

	records := make([]schema.AnnotationRecord, 0, len(lines))
	for i, l := range lines {
		if l.Value == nil {
			return nil, fmt.Errorf("%s record %d: value is required", path, i+1)
		}
		value, err := schema.ParseAnnotationValue(*l.Value)
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", path, i+1, err)
		}
		r := schema.AnnotationRecord{
			TaskID:    l.TaskID,
			Entity:    schema.EntityRef{Type: l.EntityType, Name: l.Entity},
			Label:     l.Label,
			Annotator: schema.AnnotatorID(l.Annotator),
			Value:     value,
		}
		if r.TaskID == "" {
			r.TaskID = task.ID
		}
		if r.Entity.Type == "" {
			r.Entity.Type = task.EntityType
		}
		if r.Label == "" {
			r.Label = task.DefaultLabel()
		}
		records = append(records, r)
	}
	return records, nil
}
