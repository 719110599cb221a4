package core

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/annoq/core/algo"
	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// SourceSpec is one candidate source of a run: a scorer and its share of the stream.
type SourceSpec struct {
	Scorer     contract.Scorer
	Proportion float64
}

// GenerateOptions are the parameters of one generation run.
type GenerateOptions struct {
	Task            schema.Task
	Label           string               // Defaults to the task's first label
	Annotators      []schema.AnnotatorID // Defaults to the task's annotators
	MaxPerAnnotator int
	MaxPerDP        int
	Seed            int64
	DryRun          bool
}

// GenerateDeps are the collaborators of a generation run. Blacklist, Requests
// and Runs may be nil, which skips that step.
type GenerateDeps struct {
	Payloads  *PayloadCache
	Explainer contract.PatternExplainer
	Blacklist contract.BlacklistSource
	Requests  contract.RequestStore
	Runs      contract.RunTracker
}

// Generate scores every data line with each source, interleaves the sources,
// assigns the stream to annotators and decorates the result. Unless DryRun is
// set, the requests are persisted once at the end, all or nothing.
func Generate(ctx context.Context, opts GenerateOptions, sources []SourceSpec, deps GenerateDeps) (schema.GenerationResult, error) {
	start := time.Now()
	label := opts.Label
	if label == "" {
		label = opts.Task.DefaultLabel()
	}
	annotators := opts.Annotators
	if len(annotators) == 0 {
		annotators = opts.Task.Annotators
	}

	result := schema.GenerationResult{
		RunID:  uuid.NewString(),
		TaskID: opts.Task.ID,
		Seed:   opts.Seed,
	}

	// --- 0. Begin Run Tracking (if configured) ---
	tracked := false
	if deps.Runs != nil && !opts.DryRun {
		run := schema.GenerationRunRecord{
			RunID:           result.RunID,
			TaskID:          opts.Task.ID,
			StartTime:       start,
			Seed:            opts.Seed,
			MaxPerAnnotator: int32(opts.MaxPerAnnotator),
			MaxPerDP:        int32(opts.MaxPerDP),
			ConfigParams:    runParams(opts, label, annotators, sources),
		}
		if err := deps.Runs.BeginGeneration(ctx, run); err != nil {
			contract.LogWarn("Generation run tracking initialization failed", err)
		} else {
			tracked = true
		}
	}

	// --- 1. Score every line with every source ---
	weighted, total, err := scoreSources(ctx, opts.Task, sources)
	if err != nil {
		return result, err
	}
	result.TotalCandidates = total

	// --- 2. Interleave ---
	stream, err := algo.Interleave(weighted, algo.NewSeededSource(opts.Seed))
	if err != nil {
		return result, err
	}

	// --- 3. Blacklist ---
	blacklist, err := loadBlacklist(ctx, deps.Blacklist, opts.Task, annotators)
	if err != nil {
		return result, err
	}

	// --- 4. Assign ---
	result.Assignment = algo.Assign(stream, annotators, blacklist, opts.MaxPerAnnotator, opts.MaxPerDP)

	// --- 5. Decorate ---
	decorator := Decorator{
		Payloads:   deps.Payloads,
		Explainer:  deps.Explainer,
		EntityType: opts.Task.EntityType,
		Label:      label,
	}
	if result.Requests, err = decorator.Decorate(ctx, result.Assignment); err != nil {
		return result, err
	}

	// --- 6. Persist ---
	if !opts.DryRun && deps.Requests != nil {
		if err := deps.Requests.SaveRequests(ctx, result.RunID, opts.Task.ID, result.Requests); err != nil {
			return result, fmt.Errorf("failed to save requests: %w", err)
		}
		result.Persisted = true
	}

	// --- 7. End Run Tracking ---
	if tracked {
		if err := deps.Runs.EndGeneration(ctx, result.RunID, time.Now(), result.Assignment.Total()); err != nil {
			contract.LogWarn("Failed to finalize generation run tracking", err)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// scoreSources turns every data line into one candidate per source.
func scoreSources(ctx context.Context, task schema.Task, sources []SourceSpec) ([]schema.WeightedSource, int, error) {
	weighted := make([]schema.WeightedSource, 0, len(sources))
	total := 0
	for _, src := range sources {
		ws := schema.WeightedSource{Name: src.Scorer.Name(), Proportion: src.Proportion}
		for _, file := range task.DataFiles {
			scores, err := src.Scorer.Score(ctx, file)
			if err != nil {
				return nil, 0, fmt.Errorf("%s scorer on %s: %w", ws.Name, file, err)
			}
			for line, score := range scores {
				ws.Candidates = append(ws.Candidates, schema.Candidate{File: file, Line: line, Score: score, Source: ws.Name})
			}
		}
		total += len(ws.Candidates)
		weighted = append(weighted, ws)
	}
	return weighted, total, nil
}

// loadBlacklist collects what each annotator has already judged for the task.
func loadBlacklist(ctx context.Context, source contract.BlacklistSource, task schema.Task, annotators []schema.AnnotatorID) (schema.Blacklist, error) {
	blacklist := make(schema.Blacklist)
	if source == nil {
		return blacklist, nil
	}
	for _, annotator := range annotators {
		ids, err := source.AlreadyAnnotated(ctx, task, annotator)
		if err != nil {
			return nil, fmt.Errorf("failed to load annotations of %s: %w", annotator, err)
		}
		for _, id := range ids {
			blacklist.Add(annotator, id)
		}
	}
	return blacklist, nil
}

// runParams records the run parameters as JSON for the run table.
func runParams(opts GenerateOptions, label string, annotators []schema.AnnotatorID, sources []SourceSpec) *string {
	proportions := make(map[string]float64, len(sources))
	for _, s := range sources {
		proportions[s.Scorer.Name()] = s.Proportion
	}
	params := map[string]any{
		"label":             label,
		"entity_type":       opts.Task.EntityType,
		"annotators":        slices.Clone(annotators),
		"data_files":        opts.Task.DataFiles,
		"max_per_annotator": opts.MaxPerAnnotator,
		"max_per_dp":        opts.MaxPerDP,
		"sources":           proportions,
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}
