package algo

import (
	"cmp"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/huangsam/annoq/schema"
)

// loadEntry is one annotator in the load queue.
type loadEntry struct {
	annotator schema.AnnotatorID
	load      int
}

// byLoadThenID orders the least loaded annotator first, ties broken by id.
func byLoadThenID(a, b any) int {
	x, y := a.(loadEntry), b.(loadEntry)
	if c := cmp.Compare(x.load, y.load); c != 0 {
		return c
	}
	return cmp.Compare(x.annotator, y.annotator)
}

// Assigner hands a stream of candidates to annotators under load, overlap and
// blacklist constraints. It is greedy and single pass; an instance belongs to
// exactly one task run and must not be shared.
type Assigner struct {
	maxPerAnnotator int
	maxPerDP        int
	blacklist       schema.Blacklist

	queue    *priorityqueue.Queue
	assigned map[schema.CandidateID]map[schema.AnnotatorID]struct{}
	result   schema.Assignment
}

// NewAssigner creates an Assigner for the given annotators. Duplicate ids are collapsed.
func NewAssigner(annotators []schema.AnnotatorID, blacklist schema.Blacklist, maxPerAnnotator, maxPerDP int) *Assigner {
	a := &Assigner{
		maxPerAnnotator: maxPerAnnotator,
		maxPerDP:        maxPerDP,
		blacklist:       blacklist,
		queue:           priorityqueue.NewWith(byLoadThenID),
		assigned:        make(map[schema.CandidateID]map[schema.AnnotatorID]struct{}),
		result:          make(schema.Assignment, len(annotators)),
	}
	for _, id := range annotators {
		if _, ok := a.result[id]; ok {
			continue
		}
		a.result[id] = []schema.Candidate{}
		a.queue.Enqueue(loadEntry{annotator: id})
	}
	return a
}

// eligible reports whether the annotator may take the candidate.
func (a *Assigner) eligible(e loadEntry, id schema.CandidateID) bool {
	if _, ok := a.assigned[id][e.annotator]; ok {
		return false
	}
	if a.blacklist.Contains(e.annotator, id) {
		return false
	}
	return e.load < a.maxPerAnnotator
}

// nextAnnotator pops the first eligible annotator. Rejected annotators go back
// into the queue unchanged. ok is false once the queue has no eligible annotator.
func (a *Assigner) nextAnnotator(id schema.CandidateID) (loadEntry, bool) {
	var rejected []loadEntry
	defer func() {
		for _, e := range rejected {
			a.queue.Enqueue(e)
		}
	}()

	for !a.queue.Empty() {
		v, _ := a.queue.Dequeue()
		e := v.(loadEntry)
		if a.eligible(e, id) {
			return e, true
		}
		rejected = append(rejected, e)
	}
	return loadEntry{}, false
}

// Offer assigns the candidate to as many annotators as the overlap cap allows
// and returns how many replicas were placed.
func (a *Assigner) Offer(c schema.Candidate) int {
	if a.maxPerAnnotator <= 0 || a.maxPerDP <= 0 {
		return 0
	}

	id := c.ID()
	attempts := a.maxPerDP - len(a.assigned[id])
	placed := 0
	for range attempts {
		e, ok := a.nextAnnotator(id)
		if !ok {
			break
		}
		if a.assigned[id] == nil {
			a.assigned[id] = make(map[schema.AnnotatorID]struct{})
		}
		a.assigned[id][e.annotator] = struct{}{}
		a.result[e.annotator] = append(a.result[e.annotator], c)
		e.load++
		a.queue.Enqueue(e)
		placed++
	}
	return placed
}

// Assignment returns the assignment built so far.
func (a *Assigner) Assignment() schema.Assignment {
	return a.result
}

// Assign distributes the stream to annotators in one greedy pass.
// An empty annotator set or a non-positive cap yields empty lists, not an error.
func Assign(stream []schema.Candidate, annotators []schema.AnnotatorID, blacklist schema.Blacklist, maxPerAnnotator, maxPerDP int) schema.Assignment {
	a := NewAssigner(annotators, blacklist, maxPerAnnotator, maxPerDP)
	for _, c := range stream {
		a.Offer(c)
	}
	return a.Assignment()
}
