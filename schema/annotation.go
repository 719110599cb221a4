package schema

import (
	"fmt"
	"time"
)

// AnnotationValue is the judgment an annotator gave an entity.
type AnnotationValue int

// All annotation values supported.
const (
	Negative AnnotationValue = -1
	Unknown  AnnotationValue = 0
	Positive AnnotationValue = 1
)

// ParseAnnotationValue converts a raw integer to an AnnotationValue.
func ParseAnnotationValue(v int) (AnnotationValue, error) {
	switch AnnotationValue(v) {
	case Negative, Unknown, Positive:
		return AnnotationValue(v), nil
	default:
		return Unknown, fmt.Errorf("invalid annotation value %d: must be -1, 0 or 1", v)
	}
}

// String implements fmt.Stringer.
func (v AnnotationValue) String() string {
	switch v {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "unknown"
	}
}

// EntityRef identifies an annotated entity together with its type.
type EntityRef struct {
	Type string `json:"entity_type"`
	Name string `json:"entity"`
}

// String implements fmt.Stringer.
func (e EntityRef) String() string {
	if e.Type == "" {
		return e.Name
	}
	return e.Type + "/" + e.Name
}

// AnnotationRecord is one completed judgment.
type AnnotationRecord struct {
	ID        int64           `json:"id"`
	TaskID    string          `json:"task_id"`
	Entity    EntityRef       `json:"entity"`
	Label     string          `json:"label"`
	Annotator AnnotatorID     `json:"annotator"`
	Value     AnnotationValue `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
}

// ContentiousEntity is one entity ranked by how much annotators disagree on it.
type ContentiousEntity struct {
	Entity    EntityRef `json:"entity"`
	Level     float64   `json:"level"` // In (0, 1]; higher is more disputed
	Positives int       `json:"positives"`
	Negatives int       `json:"negatives"`
	Other     int       `json:"other"` // Unknown votes and missing annotators
}

// ComparisonCell is one annotator's judgment on one entity.
type ComparisonCell struct {
	Present      bool            `json:"present"`
	Value        AnnotationValue `json:"value"`
	AnnotationID int64           `json:"annotation_id,omitempty"`
}

// ComparisonRow lists every compared annotator's judgment on one entity.
type ComparisonRow struct {
	Entity EntityRef        `json:"entity"`
	Level  float64          `json:"level"`
	Cells  []ComparisonCell `json:"cells"` // Aligned with ComparisonTable.Annotators
}

// ComparisonTable is the side-by-side view of annotators, ordered by contentiousness.
type ComparisonTable struct {
	Label      string          `json:"label"`
	Annotators []AnnotatorID   `json:"annotators"`
	Rows       []ComparisonRow `json:"rows"`
}

// RequestStatistics summarizes outstanding work for a task.
type RequestStatistics struct {
	TotalOutstanding int                 `json:"total_outstanding"`
	PerUser          map[AnnotatorID]int `json:"per_user"`
}

// Statistics is the full agreement report for one task and label.
type Statistics struct {
	TaskID                    string                  `json:"task_id"`
	Label                     string                  `json:"label"`
	TotalAnnotations          int                     `json:"total_annotations"`
	AnnotationsPerUser        map[AnnotatorID]int     `json:"annotations_per_user"`
	AnnotationsPerValue       map[AnnotationValue]int `json:"annotations_per_value"`
	DistinctAnnotatedEntities int                     `json:"distinct_annotated_entities"`
	Kappa                     KappaMatrix             `json:"kappa"`
	KappaPairs                []KappaPair             `json:"kappa_pairs"`
	Contentious               []ContentiousEntity     `json:"contentious"`
	Comparison                ComparisonTable         `json:"comparison"`
	Requests                  RequestStatistics       `json:"requests"`
}
