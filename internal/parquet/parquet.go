// Package parquet provides data structures and functions for exporting annoq
// task store data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/annoq/schema"
	"github.com/parquet-go/parquet-go"
)

// GenerationRun represents a single request generation run with metadata.
// This struct maps to the annoq_generation_runs database table.
type GenerationRun struct {
	// RunID is the unique identifier for this generation run
	RunID string `parquet:"run_id,snappy"`

	// TaskID is the configured task the run generated requests for
	TaskID string `parquet:"task_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// Seed is the random seed the run used, so it can be replayed
	Seed int64 `parquet:"seed,snappy"`

	MaxPerAnnotator int32 `parquet:"max_per_annotator,snappy"`
	MaxPerDP        int32 `parquet:"max_per_dp,snappy"`

	// TotalRequests is the number of requests the run persisted
	TotalRequests int32 `parquet:"total_requests,snappy"`

	// ConfigParams contains the JSON-encoded run parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Request represents one stored annotation request.
// This struct maps to the annoq_annotation_requests database table.
type Request struct {
	RequestID  int64     `parquet:"request_id,snappy"`
	RunID      string    `parquet:"run_id,snappy"`
	TaskID     string    `parquet:"task_id,snappy"`
	Annotator  string    `parquet:"annotator,snappy"`
	Order      int32     `parquet:"request_order,snappy"`
	Status     string    `parquet:"status,snappy"`
	CreatedAt  time.Time `parquet:"created_at,snappy"`
	Entity     string    `parquet:"entity,snappy"`
	EntityType string    `parquet:"entity_type,snappy"`
	Label      string    `parquet:"label,snappy"`
	Score      float64   `parquet:"score,snappy"`
	Source     string    `parquet:"source,snappy"`

	// Text is the payload shown to the annotator
	Text string `parquet:"text,snappy"`
}

// Annotation represents one completed judgment.
// This struct maps to the annoq_annotations database table.
type Annotation struct {
	AnnotationID int64     `parquet:"annotation_id,snappy"`
	TaskID       string    `parquet:"task_id,snappy"`
	EntityType   string    `parquet:"entity_type,snappy"`
	Entity       string    `parquet:"entity,snappy"`
	Label        string    `parquet:"label,snappy"`
	Annotator    string    `parquet:"annotator,snappy"`
	Value        int32     `parquet:"value,snappy"` // -1, 0 or 1
	CreatedAt    time.Time `parquet:"created_at,snappy"`
}

// writeParquet writes rows of any struct type to a Parquet file.
// The schema is derived from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteGenerationRunsParquet writes a slice of GenerationRun structs to a Parquet file.
func WriteGenerationRunsParquet(data []GenerationRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRequestsParquet writes a slice of Request structs to a Parquet file.
func WriteRequestsParquet(data []Request, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteAnnotationsParquet writes a slice of Annotation structs to a Parquet file.
func WriteAnnotationsParquet(data []Annotation, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertGenerationRunRecords converts schema.GenerationRunRecord to GenerationRun for Parquet export.
func ConvertGenerationRunRecords(records []schema.GenerationRunRecord) []GenerationRun {
	result := make([]GenerationRun, len(records))
	for i, record := range records {
		result[i] = GenerationRun{
			RunID:           record.RunID,
			TaskID:          record.TaskID,
			StartTime:       record.StartTime,
			EndTime:         record.EndTime,
			RunDurationMs:   record.RunDurationMs,
			Seed:            record.Seed,
			MaxPerAnnotator: record.MaxPerAnnotator,
			MaxPerDP:        record.MaxPerDP,
			TotalRequests:   record.TotalRequests,
			ConfigParams:    record.ConfigParams,
		}
	}
	return result
}

// ConvertStoredRequests flattens schema.StoredRequest into Request rows.
func ConvertStoredRequests(records []schema.StoredRequest) []Request {
	result := make([]Request, len(records))
	for i, record := range records {
		result[i] = Request{
			RequestID:  record.ID,
			RunID:      record.RunID,
			TaskID:     record.TaskID,
			Annotator:  string(record.Annotator),
			Order:      int32(record.Order),
			Status:     string(record.Status),
			CreatedAt:  record.CreatedAt,
			Entity:     record.Request.Entity,
			EntityType: record.Request.EntityType,
			Label:      record.Request.Label,
			Score:      record.Request.Score,
			Source:     record.Request.Source,
			Text:       record.Request.Data.Text,
		}
	}
	return result
}

// ConvertAnnotationRecords converts schema.AnnotationRecord to Annotation for Parquet export.
func ConvertAnnotationRecords(records []schema.AnnotationRecord) []Annotation {
	result := make([]Annotation, len(records))
	for i, record := range records {
		result[i] = Annotation{
			AnnotationID: record.ID,
			TaskID:       record.TaskID,
			EntityType:   record.Entity.Type,
			Entity:       record.Entity.Name,
			Label:        record.Label,
			Annotator:    string(record.Annotator),
			Value:        int32(record.Value),
			CreatedAt:    record.CreatedAt,
		}
	}
	return result
}
