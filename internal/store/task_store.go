package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// Table names for the task store.
const (
	generationRunsTable     = "annoq_generation_runs"
	annotationRequestsTable = "annoq_annotation_requests"
	annotationsTable        = "annoq_annotations"
)

// storeTables lists every task store table in dependency order.
var storeTables = []string{generationRunsTable, annotationRequestsTable, annotationsTable}

// TaskStoreImpl implements the TaskStore interface over a SQL backend.
type TaskStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.TaskStore = &TaskStoreImpl{} // Compile-time check

// NewTaskStore creates a TaskStore with the specified backend and brings its
// schema to the latest migration.
func NewTaskStore(backend schema.DatabaseBackend, connStr string) (*TaskStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled persistence
		return &TaskStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetStoreDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("task store: %w", err)
	}

	if err := migrateUp(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create task store tables: %w", err)
	}

	return &TaskStoreImpl{db: db, backend: backend}, nil
}

// disabled reports whether the store is a no-op.
func (ts *TaskStoreImpl) disabled() bool {
	return ts.backend == schema.NoneBackend || ts.db == nil
}

// table returns the quoted table name.
func (ts *TaskStoreImpl) table(name string) string {
	return quoteTableName(name, ts.backend)
}

// q formats a query with quoted table names and rebinds its placeholders.
func (ts *TaskStoreImpl) q(format string, tables ...string) string {
	args := make([]any, len(tables))
	for i, t := range tables {
		args[i] = ts.table(t)
	}
	return bindVars(fmt.Sprintf(format, args...), ts.backend)
}

// BeginGeneration creates a new generation run row.
func (ts *TaskStoreImpl) BeginGeneration(ctx context.Context, run schema.GenerationRunRecord) error {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil
	}

	query := ts.q(`INSERT INTO %s (run_id, task_id, start_time, seed, max_per_annotator, max_per_dp, total_requests, config_params)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, generationRunsTable)
	_, err := ts.db.ExecContext(ctx, query,
		run.RunID, run.TaskID, formatTime(run.StartTime, ts.backend), run.Seed,
		run.MaxPerAnnotator, run.MaxPerDP, run.TotalRequests, run.ConfigParams)
	if err != nil {
		return fmt.Errorf("failed to insert generation run: %w", err)
	}
	return nil
}

// EndGeneration updates the generation run with completion data.
func (ts *TaskStoreImpl) EndGeneration(ctx context.Context, runID string, endTime time.Time, totalRequests int) error {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil
	}

	// First, get the start_time to calculate duration
	var start dbTime
	row := ts.db.QueryRowContext(ctx, ts.q(`SELECT start_time FROM %s WHERE run_id = ?`, generationRunsTable), runID)
	if err := row.Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %s: %w", runID, err)
	}

	durationMs := endTime.Sub(start.Time).Milliseconds()

	query := ts.q(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_requests = ? WHERE run_id = ?`, generationRunsTable)
	if _, err := ts.db.ExecContext(ctx, query, formatTime(endTime, ts.backend), durationMs, totalRequests, runID); err != nil {
		return fmt.Errorf("failed to update generation run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (ts *TaskStoreImpl) Close() error {
	if ts.db != nil {
		return ts.db.Close()
	}
	return nil
}

// GetStatus returns status information about the task store.
func (ts *TaskStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(ts.backend),
		Connected:  ts.db != nil,
		TableSizes: make(map[string]int64),
	}

	if ts.disabled() {
		return status, nil
	}

	// Get total runs
	if err := ts.db.QueryRow(ts.q("SELECT COUNT(*) FROM %s", generationRunsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		// Get last run info
		var last, oldest dbTime
		row := ts.db.QueryRow(ts.q("SELECT run_id, start_time FROM %s ORDER BY start_time DESC LIMIT 1", generationRunsTable))
		if err := row.Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = last.Time

		// Get oldest run time
		row = ts.db.QueryRow(ts.q("SELECT start_time FROM %s ORDER BY start_time ASC LIMIT 1", generationRunsTable))
		if err := row.Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest.Time
	}

	// Get pending requests
	row := ts.db.QueryRow(ts.q("SELECT COUNT(*) FROM %s WHERE status = ?", annotationRequestsTable), string(schema.PendingStatus))
	if err := row.Scan(&status.PendingRequests); err != nil {
		return status, fmt.Errorf("failed to get pending requests: %w", err)
	}

	// Get table sizes
	for _, table := range storeTables {
		var count int64
		if err := ts.db.QueryRow(ts.q("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllGenerationRuns retrieves all generation runs from the store.
func (ts *TaskStoreImpl) GetAllGenerationRuns(ctx context.Context) ([]schema.GenerationRunRecord, error) {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil, nil
	}

	query := ts.q(`SELECT run_id, task_id, start_time, end_time, run_duration_ms, seed,
		max_per_annotator, max_per_dp, total_requests, config_params
		FROM %s ORDER BY start_time, run_id`, generationRunsTable)
	rows, err := ts.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.GenerationRunRecord
	for rows.Next() {
		var record schema.GenerationRunRecord
		var start, end dbTime
		if err := rows.Scan(&record.RunID, &record.TaskID, &start, &end, &record.RunDurationMs, &record.Seed,
			&record.MaxPerAnnotator, &record.MaxPerDP, &record.TotalRequests, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan generation run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.Ptr()
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation runs: %w", err)
	}
	return results, nil
}
