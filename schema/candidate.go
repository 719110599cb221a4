package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// CandidateID identifies one data item by its source file and line offset.
// It is comparable, so it can be used directly as a map key. Score is not part
// of identity: two candidates with the same CandidateID are the same item.
type CandidateID struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Key renders the stable entity string stored for requests and annotations.
func (id CandidateID) Key() string {
	return id.File + ":" + strconv.Itoa(id.Line)
}

// String implements fmt.Stringer.
func (id CandidateID) String() string {
	return id.Key()
}

// ParseCandidateKey is the inverse of CandidateID.Key.
// The file part may itself contain colons; the line is taken after the last one.
func ParseCandidateKey(key string) (CandidateID, error) {
	idx := strings.LastIndex(key, ":")
	if idx <= 0 || idx == len(key)-1 {
		return CandidateID{}, fmt.Errorf("invalid candidate key %q: expected <file>:<line>", key)
	}
	line, err := strconv.Atoi(key[idx+1:])
	if err != nil || line < 0 {
		return CandidateID{}, fmt.Errorf("invalid candidate key %q: bad line number", key)
	}
	return CandidateID{File: key[:idx], Line: line}, nil
}

// Candidate is a scored, unassigned unit of data.
type Candidate struct {
	File   string  `json:"file"`
	Line   int     `json:"line"`
	Score  float64 `json:"score"`  // Higher means more worth annotating
	Source string  `json:"source"` // Name of the source that produced it
}

// ID returns the identity of the candidate.
func (c Candidate) ID() CandidateID {
	return CandidateID{File: c.File, Line: c.Line}
}

// WeightedSource is one ranked candidate list and its requested share of the merged stream.
// Proportions across sources need not sum to 1.
type WeightedSource struct {
	Name       string
	Candidates []Candidate
	Proportion float64
}

// AnnotatorID is an opaque annotator identity (username).
type AnnotatorID string

// Blacklist maps an annotator to the items they already annotated for the task.
type Blacklist map[AnnotatorID]map[CandidateID]struct{}

// Contains reports whether the annotator must not receive the item.
func (b Blacklist) Contains(annotator AnnotatorID, id CandidateID) bool {
	if b == nil {
		return false
	}
	_, ok := b[annotator][id]
	return ok
}

// Add marks the item as already seen by the annotator.
func (b Blacklist) Add(annotator AnnotatorID, id CandidateID) {
	seen, ok := b[annotator]
	if !ok {
		seen = make(map[CandidateID]struct{})
		b[annotator] = seen
	}
	seen[id] = struct{}{}
}

// Assignment maps each annotator to the ordered list of candidates handed to them.
type Assignment map[AnnotatorID][]Candidate

// Total returns the number of (annotator, candidate) pairs.
func (a Assignment) Total() int {
	total := 0
	for _, items := range a {
		total += len(items)
	}
	return total
}
