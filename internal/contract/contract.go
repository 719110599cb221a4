// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/annoq/schema"
)

// Scorer assigns one relevance score per line of a data file.
// Higher scores mean the line is a better candidate for annotation.
type Scorer interface {
	// Name identifies the model behind the scores (e.g. "random", "pattern").
	Name() string

	// Score returns a score for every line of the file, in line order.
	Score(ctx context.Context, file string) ([]float64, error)
}

// PayloadSource resolves data file lines to their raw content.
type PayloadSource interface {
	// Payloads returns every line of the file, in line order.
	Payloads(ctx context.Context, file string) ([]schema.Payload, error)
}

// PatternExplainer explains which patterns matched a payload.
type PatternExplainer interface {
	Explain(text string) *schema.PatternInfo
}

// BlacklistSource reports what an annotator has already judged for a task.
type BlacklistSource interface {
	AlreadyAnnotated(ctx context.Context, task schema.Task, annotator schema.AnnotatorID) ([]schema.CandidateID, error)
}

// RequestStore persists and queries annotation requests.
type RequestStore interface {
	// SaveRequests replaces each annotator's requests under the task in one transaction.
	SaveRequests(ctx context.Context, runID, taskID string, requests map[schema.AnnotatorID][]schema.AnnotationRequest) error

	// ListRequests returns the task's requests in order. An empty annotator lists everyone.
	ListRequests(ctx context.Context, taskID string, annotator schema.AnnotatorID) ([]schema.StoredRequest, error)

	// MarkRequestComplete flags one request as done.
	MarkRequestComplete(ctx context.Context, requestID int64) error

	// RequestStatistics counts the pending requests of a task.
	RequestStatistics(ctx context.Context, taskID string) (schema.RequestStatistics, error)
}

// AnnotationSource reads completed judgments.
type AnnotationSource interface {
	FetchAnnotations(ctx context.Context, label string) ([]schema.AnnotationRecord, error)
}

// AnnotationSink records completed judgments.
type AnnotationSink interface {
	// ImportAnnotations stores the records and completes matching pending requests.
	// It returns the number of records stored.
	ImportAnnotations(ctx context.Context, records []schema.AnnotationRecord) (int, error)
}

// RunTracker records generation runs.
type RunTracker interface {
	// BeginGeneration creates the run row.
	BeginGeneration(ctx context.Context, run schema.GenerationRunRecord) error

	// EndGeneration closes the run with its completion data.
	EndGeneration(ctx context.Context, runID string, endTime time.Time, totalRequests int) error
}

// TaskStore is the full persistence surface for tasks.
type TaskStore interface {
	BlacklistSource
	RequestStore
	AnnotationSource
	AnnotationSink
	RunTracker

	// GetAllGenerationRuns, GetAllRequests and GetAllAnnotations return every row for export
	GetAllGenerationRuns(ctx context.Context) ([]schema.GenerationRunRecord, error)
	GetAllRequests(ctx context.Context) ([]schema.StoredRequest, error)
	GetAllAnnotations(ctx context.Context) ([]schema.AnnotationRecord, error)

	// GetStatus returns status information about the task store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// StoreManager defines the interface for managing stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetTaskStore() TaskStore
	GetScoreCache() CacheStore
}
