package schema

import "time"

// Payload is the raw content of one data line.
type Payload struct {
	Text string         `json:"text"`
	Meta map[string]any `json:"meta,omitempty"`
}

// PatternMatch is one pattern hit inside a payload, as token offsets.
type PatternMatch struct {
	Start   int    `json:"start"` // Index of the first matched token
	End     int    `json:"end"`   // Index after the last matched token
	Text    string `json:"text"`
	Pattern string `json:"pattern"`
}

// PatternInfo explains why the pattern scorer liked a payload.
type PatternInfo struct {
	Tokens  []string       `json:"tokens"`
	Matches []PatternMatch `json:"matches"`
	Score   float64        `json:"score"`
}

// AnnotationRequest is the decorated unit of work handed to one annotator.
type AnnotationRequest struct {
	Entity      string       `json:"entity"` // CandidateID.Key()
	EntityType  string       `json:"entity_type"`
	Label       string       `json:"label"`
	File        string       `json:"file"`
	Line        int          `json:"line"`
	Score       float64      `json:"score"`
	Source      string       `json:"source"`
	Data        Payload      `json:"data"`
	PatternInfo *PatternInfo `json:"pattern_info,omitempty"`
}

// StoredRequest is a persisted annotation request with its bookkeeping.
type StoredRequest struct {
	ID        int64             `json:"id"`
	RunID     string            `json:"run_id"`
	TaskID    string            `json:"task_id"`
	Annotator AnnotatorID       `json:"annotator"`
	Order     int               `json:"order"`
	Status    RequestStatus     `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	Request   AnnotationRequest `json:"request"`
}

// GenerationRunRecord represents a row from the annoq_generation_runs table.
type GenerationRunRecord struct {
	RunID           string
	TaskID          string
	StartTime       time.Time
	EndTime         *time.Time
	RunDurationMs   *int32
	Seed            int64
	MaxPerAnnotator int32
	MaxPerDP        int32
	TotalRequests   int32
	ConfigParams    *string
}

// GenerationResult is what one generation run produced.
type GenerationResult struct {
	RunID           string                              `json:"run_id"`
	TaskID          string                              `json:"task_id"`
	Seed            int64                               `json:"seed"`
	TotalCandidates int                                 `json:"total_candidates"`
	Assignment      Assignment                          `json:"assignment"`
	Requests        map[AnnotatorID][]AnnotationRequest `json:"requests"`
	Persisted       bool                                `json:"persisted"`
	Duration        time.Duration                       `json:"duration"`
}
