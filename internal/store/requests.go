package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// requestColumns is the column list shared by request queries.
const requestColumns = `request_id, run_id, task_id, annotator, request_order, status, created_at, payload`

// SaveRequests replaces each annotator's requests under the task.
// All annotators are written in one transaction, so a failure leaves the
// previous requests in place. An annotator with an empty list is cleared.
func (ts *TaskStoreImpl) SaveRequests(ctx context.Context, runID, taskID string, requests map[schema.AnnotatorID][]schema.AnnotationRequest) error {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil
	}

	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := ts.q(`DELETE FROM %s WHERE task_id = ? AND annotator = ?`, annotationRequestsTable)
	insertQuery := ts.q(`INSERT INTO %s (run_id, task_id, annotator, entity, entity_type, label, request_order, status, score, source, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, annotationRequestsTable)

	insert, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare request insert: %w", err)
	}
	defer func() { _ = insert.Close() }()

	now := formatTime(time.Now(), ts.backend)
	for _, annotator := range slices.Sorted(maps.Keys(requests)) {
		if _, err := tx.ExecContext(ctx, deleteQuery, taskID, string(annotator)); err != nil {
			return fmt.Errorf("failed to clear requests of %s: %w", annotator, err)
		}
		for order, req := range requests[annotator] {
			payload, err := json.Marshal(req)
			if err != nil {
				return fmt.Errorf("failed to marshal request %s: %w", req.Entity, err)
			}
			if _, err := insert.ExecContext(ctx, runID, taskID, string(annotator), req.Entity, req.EntityType, req.Label,
				order, string(schema.PendingStatus), req.Score, req.Source, string(payload), now); err != nil {
				return fmt.Errorf("failed to insert request %s for %s: %w", req.Entity, annotator, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit requests: %w", err)
	}
	return nil
}

// scanRequests reads StoredRequest rows selected with requestColumns.
func scanRequests(rows *sql.Rows) ([]schema.StoredRequest, error) {
	var results []schema.StoredRequest
	for rows.Next() {
		var sr schema.StoredRequest
		var annotator, status, payload string
		var created dbTime
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.TaskID, &annotator, &sr.Order, &status, &created, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &sr.Request); err != nil {
			return nil, fmt.Errorf("failed to decode request %d: %w", sr.ID, err)
		}
		sr.Annotator = schema.AnnotatorID(annotator)
		sr.Status = schema.RequestStatus(status)
		sr.CreatedAt = created.Time
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	return results, nil
}

// ListRequests returns the task's requests ordered by annotator then position.
// An empty annotator lists the requests of everyone.
func (ts *TaskStoreImpl) ListRequests(ctx context.Context, taskID string, annotator schema.AnnotatorID) ([]schema.StoredRequest, error) {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil, nil
	}

	query := `SELECT ` + requestColumns + ` FROM %s WHERE task_id = ?`
	args := []any{taskID}
	if annotator != "" {
		query += ` AND annotator = ?`
		args = append(args, string(annotator))
	}
	query += ` ORDER BY annotator, request_order`

	rows, err := ts.db.QueryContext(ctx, ts.q(query, annotationRequestsTable), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRequests(rows)
}

// GetAllRequests retrieves every stored request.
func (ts *TaskStoreImpl) GetAllRequests(ctx context.Context) ([]schema.StoredRequest, error) {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil, nil
	}

	query := ts.q(`SELECT `+requestColumns+` FROM %s ORDER BY task_id, annotator, request_order`, annotationRequestsTable)
	rows, err := ts.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRequests(rows)
}

// MarkRequestComplete flags one request as done.
func (ts *TaskStoreImpl) MarkRequestComplete(ctx context.Context, requestID int64) error {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil
	}

	query := ts.q(`UPDATE %s SET status = ? WHERE request_id = ?`, annotationRequestsTable)
	res, err := ts.db.ExecContext(ctx, query, string(schema.CompleteStatus), requestID)
	if err != nil {
		return fmt.Errorf("failed to complete request %d: %w", requestID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete request %d: %w", requestID, err)
	}
	if n == 0 {
		return fmt.Errorf("request %d: %w", requestID, contract.ErrLookup)
	}
	return nil
}

// RequestStatistics counts the pending requests of a task, in total and per annotator.
func (ts *TaskStoreImpl) RequestStatistics(ctx context.Context, taskID string) (schema.RequestStatistics, error) {
	stats := schema.RequestStatistics{PerUser: make(map[schema.AnnotatorID]int)}

	// Skip for NoneBackend
	if ts.disabled() {
		return stats, nil
	}

	query := ts.q(`SELECT annotator, COUNT(*) FROM %s WHERE task_id = ? AND status = ? GROUP BY annotator`, annotationRequestsTable)
	rows, err := ts.db.QueryContext(ctx, query, taskID, string(schema.PendingStatus))
	if err != nil {
		return stats, fmt.Errorf("failed to query request statistics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var annotator string
		var count int
		if err := rows.Scan(&annotator, &count); err != nil {
			return stats, fmt.Errorf("failed to scan request statistics: %w", err)
		}
		stats.PerUser[schema.AnnotatorID(annotator)] = count
		stats.TotalOutstanding += count
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("error iterating request statistics: %w", err)
	}
	return stats, nil
}
