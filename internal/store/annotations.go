package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/huangsam/annoq/schema"
)

// annotationColumns is the column list shared by annotation queries.
const annotationColumns = `annotation_id, task_id, entity_type, entity, label, annotator, value, created_at`

// AlreadyAnnotated returns the candidates the annotator has judged under any of
// the task's labels. Entities that are not candidate keys were annotated
// outside this tool and cannot collide with a candidate, so they are skipped.
func (ts *TaskStoreImpl) AlreadyAnnotated(ctx context.Context, task schema.Task, annotator schema.AnnotatorID) ([]schema.CandidateID, error) {
	// Skip for NoneBackend
	if ts.disabled() || len(task.Labels) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT DISTINCT entity FROM %%s WHERE annotator = ? AND entity_type = ? AND label IN (%s) ORDER BY entity`,
		placeholderList(len(task.Labels)))
	args := []any{string(annotator), task.EntityType}
	for _, label := range task.Labels {
		args = append(args, label)
	}

	rows, err := ts.db.QueryContext(ctx, ts.q(query, annotationsTable), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotated entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []schema.CandidateID
	for rows.Next() {
		var entity string
		if err := rows.Scan(&entity); err != nil {
			return nil, fmt.Errorf("failed to scan annotated entity: %w", err)
		}
		id, err := schema.ParseCandidateKey(entity)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating annotated entities: %w", err)
	}
	return ids, nil
}

// scanAnnotations reads AnnotationRecord rows selected with annotationColumns.
func scanAnnotations(rows *sql.Rows) ([]schema.AnnotationRecord, error) {
	var results []schema.AnnotationRecord
	for rows.Next() {
		var r schema.AnnotationRecord
		var annotator string
		var value int
		var created dbTime
		if err := rows.Scan(&r.ID, &r.TaskID, &r.Entity.Type, &r.Entity.Name, &r.Label, &annotator, &value, &created); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		v, err := schema.ParseAnnotationValue(value)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", r.ID, err)
		}
		r.Annotator = schema.AnnotatorID(annotator)
		r.Value = v
		r.CreatedAt = created.Time
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating annotations: %w", err)
	}
	return results, nil
}

// FetchAnnotations returns every judgment under the label in insertion order,
// so later records for the same annotator and entity come last.
func (ts *TaskStoreImpl) FetchAnnotations(ctx context.Context, label string) ([]schema.AnnotationRecord, error) {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil, nil
	}

	query := ts.q(`SELECT `+annotationColumns+` FROM %s WHERE label = ? ORDER BY annotation_id`, annotationsTable)
	rows, err := ts.db.QueryContext(ctx, query, label)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAnnotations(rows)
}

// GetAllAnnotations retrieves every stored judgment.
func (ts *TaskStoreImpl) GetAllAnnotations(ctx context.Context) ([]schema.AnnotationRecord, error) {
	// Skip for NoneBackend
	if ts.disabled() {
		return nil, nil
	}

	rows, err := ts.db.QueryContext(ctx, ts.q(`SELECT `+annotationColumns+` FROM %s ORDER BY annotation_id`, annotationsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanAnnotations(rows)
}

// ImportAnnotations stores the records in one transaction and completes the
// pending requests they answer. Records without a timestamp get the import time.
func (ts *TaskStoreImpl) ImportAnnotations(ctx context.Context, records []schema.AnnotationRecord) (int, error) {
	// Skip for NoneBackend
	if ts.disabled() || len(records) == 0 {
		return 0, nil
	}

	for i, r := range records {
		if _, err := schema.ParseAnnotationValue(int(r.Value)); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
		if r.Annotator == "" || r.Label == "" || r.Entity.Name == "" {
			return 0, fmt.Errorf("record %d: annotator, label and entity are required", i+1)
		}
	}

	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertQuery := ts.q(`INSERT INTO %s (task_id, entity_type, entity, label, annotator, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, annotationsTable)
	completeQuery := ts.q(`UPDATE %s SET status = ? WHERE annotator = ? AND entity = ? AND label = ? AND status = ?`, annotationRequestsTable)

	now := formatTime(time.Now(), ts.backend)
	for _, r := range records {
		created := now
		if !r.CreatedAt.IsZero() {
			created = formatTime(r.CreatedAt, ts.backend)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, r.TaskID, r.Entity.Type, r.Entity.Name, r.Label,
			string(r.Annotator), int(r.Value), created); err != nil {
			return 0, fmt.Errorf("failed to insert annotation of %s by %s: %w", r.Entity, r.Annotator, err)
		}
		if _, err := tx.ExecContext(ctx, completeQuery, string(schema.CompleteStatus), string(r.Annotator),
			r.Entity.Name, r.Label, string(schema.PendingStatus)); err != nil {
			return 0, fmt.Errorf("failed to complete request for %s: %w", r.Entity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit annotations: %w", err)
	}
	return len(records), nil
}
