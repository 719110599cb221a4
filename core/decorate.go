package core

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// PayloadCache loads each data file at most once and serves its lines by offset.
// Create one per generation run; it is safe for concurrent use.
type PayloadCache struct {
	source contract.PayloadSource

	mu    sync.Mutex
	files map[string][]schema.Payload
}

var _ contract.PayloadSource = &PayloadCache{} // Compile-time check

// NewPayloadCache wraps a payload source for one run.
func NewPayloadCache(source contract.PayloadSource) *PayloadCache {
	return &PayloadCache{source: source, files: make(map[string][]schema.Payload)}
}

// Payloads implements contract.PayloadSource, loading the file on first use.
func (c *PayloadCache) Payloads(ctx context.Context, file string) ([]schema.Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if payloads, ok := c.files[file]; ok {
		return payloads, nil
	}
	payloads, err := c.source.Payloads(ctx, file)
	if err != nil {
		return nil, err
	}
	c.files[file] = payloads
	return payloads, nil
}

// Lookup returns the payload of one item. An unreadable file or an offset past
// its end is an ErrLookup.
func (c *PayloadCache) Lookup(ctx context.Context, id schema.CandidateID) (schema.Payload, error) {
	payloads, err := c.Payloads(ctx, id.File)
	if err != nil {
		return schema.Payload{}, fmt.Errorf("%w: %s: %w", contract.ErrLookup, id, err)
	}
	if id.Line < 0 || id.Line >= len(payloads) {
		return schema.Payload{}, fmt.Errorf("%w: %s: file has %d lines", contract.ErrLookup, id, len(payloads))
	}
	return payloads[id.Line], nil
}

// Decorator turns assigned candidates into annotation requests.
type Decorator struct {
	Payloads   *PayloadCache
	Explainer  contract.PatternExplainer // optional
	EntityType string
	Label      string
}

// Decorate builds the requests of every annotator, keeping each list's order.
// Each distinct candidate is looked up and explained once, however many
// annotators receive it.
func (d Decorator) Decorate(ctx context.Context, assignment schema.Assignment) (map[schema.AnnotatorID][]schema.AnnotationRequest, error) {
	decorated := make(map[schema.CandidateID]schema.AnnotationRequest)
	out := make(map[schema.AnnotatorID][]schema.AnnotationRequest, len(assignment))

	for _, annotator := range slices.Sorted(maps.Keys(assignment)) {
		requests := make([]schema.AnnotationRequest, 0, len(assignment[annotator]))
		for _, c := range assignment[annotator] {
			req, ok := decorated[c.ID()]
			if !ok {
				var err error
				if req, err = d.decorateOne(ctx, c); err != nil {
					return nil, err
				}
				decorated[c.ID()] = req
			}
			requests = append(requests, req)
		}
		out[annotator] = requests
	}
	return out, nil
}

// decorateOne resolves one candidate into its request.
func (d Decorator) decorateOne(ctx context.Context, c schema.Candidate) (schema.AnnotationRequest, error) {
	payload, err := d.Payloads.Lookup(ctx, c.ID())
	if err != nil {
		return schema.AnnotationRequest{}, err
	}
	req := schema.AnnotationRequest{
		Entity:     c.ID().Key(),
		EntityType: d.EntityType,
		Label:      d.Label,
		File:       c.File,
		Line:       c.Line,
		Score:      c.Score,
		Source:     c.Source,
		Data:       payload,
	}
	if d.Explainer != nil {
		req.PatternInfo = d.Explainer.Explain(payload.Text)
	}
	return req, nil
}
