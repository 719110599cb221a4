// Package core has core logic for request generation and agreement statistics.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/internal/datafile"
	"github.com/huangsam/annoq/internal/outwriter"
	"github.com/huangsam/annoq/schema"
)

// ExecutorFunc defines the function signature for executing task-level commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) error

// errNoTaskStore is returned by commands that cannot work without persistence.
var errNoTaskStore = errors.New("task store is not initialized")

// ExecuteGenerate runs one generation run for the task and prints the result.
// It serves as the main entry point for the 'generate' command.
func ExecuteGenerate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) error {
	result, duration, err := GetGenerateResults(ctx, cfg, mgr, taskID)
	if err != nil {
		return err
	}
	return outwriter.PrintGenerationResult(result, cfg, duration)
}

// GetGenerateResults runs one generation run for the task without printing it.
func GetGenerateResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) (schema.GenerationResult, time.Duration, error) {
	start := time.Now()
	task, err := cfg.LookupTask(taskID)
	if err != nil {
		return schema.GenerationResult{}, 0, err
	}
	label, err := cfg.ResolveLabel(task)
	if err != nil {
		return schema.GenerationResult{}, 0, err
	}
	annotators := task.Annotators
	if len(cfg.Users) > 0 {
		annotators = cfg.Users
	}

	if showHeader(ctx, cfg) {
		LogGenerateHeader(cfg, task, label, annotators)
	}

	payloads := NewPayloadCache(datafile.JSONLSource{})
	sources, explainer, err := DefaultSources(task, label, cfg.Seed, payloads, mgr.GetScoreCache())
	if err != nil {
		return schema.GenerationResult{}, 0, err
	}

	deps := GenerateDeps{Payloads: payloads, Explainer: explainer}
	if ts := mgr.GetTaskStore(); ts != nil {
		deps.Blacklist, deps.Requests, deps.Runs = ts, ts, ts
	} else if !cfg.DryRun {
		return schema.GenerationResult{}, 0, errNoTaskStore
	}

	opts := GenerateOptions{
		Task:            task,
		Label:           label,
		Annotators:      annotators,
		MaxPerAnnotator: cfg.MaxPerAnnotator,
		MaxPerDP:        cfg.MaxPerDP,
		Seed:            cfg.Seed,
		DryRun:          cfg.DryRun,
	}
	result, err := Generate(ctx, opts, sources, deps)
	if err != nil {
		return result, 0, err
	}
	return result, time.Since(start), nil
}

// DefaultSources returns the random source, plus the pattern source when the
// task has a pattern file. Pattern scores go through the score cache; a nil
// cache scores directly. The returned explainer is nil without patterns.
func DefaultSources(task schema.Task, label string, seed int64, payloads contract.PayloadSource, cache contract.CacheStore) ([]SourceSpec, contract.PatternExplainer, error) {
	sources := []SourceSpec{
		{Scorer: &datafile.RandomScorer{Seed: seed, Payloads: payloads}, Proportion: schema.DefaultRandomProportion},
	}
	if task.PatternFile == "" {
		return sources, nil, nil
	}

	patterns, err := datafile.LoadPatterns(task.PatternFile, label)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	pattern := datafile.NewPatternScorer(patterns, payloads)
	sources = append(sources, SourceSpec{
		Scorer:     &datafile.CachingScorer{Scorer: pattern, Cache: cache},
		Proportion: schema.DefaultPatternProportion,
	})
	return sources, pattern, nil
}

// ExecuteStatistics computes and prints the agreement report of a task.
// It serves as the main entry point for the 'stats' command.
func ExecuteStatistics(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) error {
	stats, duration, err := GetStatisticsResults(ctx, cfg, mgr, taskID)
	if err != nil {
		return err
	}
	return outwriter.PrintStatistics(stats, cfg, duration)
}

// GetStatisticsResults computes the agreement report of a task without printing it.
func GetStatisticsResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) (schema.Statistics, time.Duration, error) {
	start := time.Now()
	task, err := cfg.LookupTask(taskID)
	if err != nil {
		return schema.Statistics{}, 0, err
	}
	label, err := cfg.ResolveLabel(task)
	if err != nil {
		return schema.Statistics{}, 0, err
	}
	ts := mgr.GetTaskStore()
	if ts == nil {
		return schema.Statistics{}, 0, errNoTaskStore
	}

	if showHeader(ctx, cfg) {
		LogStatisticsHeader(cfg, task, label)
	}

	opts := StatisticsOptions{Task: task, Label: label, Annotators: cfg.Users, Workers: cfg.Workers}
	stats, err := ComputeStatistics(ctx, opts, ts, ts)
	if err != nil {
		return stats, 0, err
	}
	return stats, time.Since(start), nil
}

// ExecuteCompare prints the side-by-side judgments of the selected annotators.
// It serves as the main entry point for the 'compare' command.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) error {
	stats, duration, err := GetStatisticsResults(ctx, cfg, mgr, taskID)
	if err != nil {
		return err
	}
	return outwriter.PrintComparison(stats, cfg, duration)
}

// ExecuteRequestStatus prints the outstanding requests of a task per annotator.
func ExecuteRequestStatus(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) error {
	if _, err := cfg.LookupTask(taskID); err != nil {
		return err
	}
	ts := mgr.GetTaskStore()
	if ts == nil {
		return errNoTaskStore
	}
	stats, err := ts.RequestStatistics(ctx, taskID)
	if err != nil {
		return err
	}
	return outwriter.PrintRequestStatistics(taskID, stats, cfg)
}

// ExecuteRequestList prints the stored requests of a task in assignment order.
// With users selected, only their requests are listed.
func ExecuteRequestList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) error {
	requests, err := GetRequestListResults(ctx, cfg, mgr, taskID)
	if err != nil {
		return err
	}
	return outwriter.PrintRequests(requests, cfg)
}

// GetRequestListResults returns the stored requests of a task without printing them.
func GetRequestListResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID string) ([]schema.StoredRequest, error) {
	if _, err := cfg.LookupTask(taskID); err != nil {
		return nil, err
	}
	ts := mgr.GetTaskStore()
	if ts == nil {
		return nil, errNoTaskStore
	}
	if len(cfg.Users) == 0 {
		return ts.ListRequests(ctx, taskID, "")
	}
	var all []schema.StoredRequest
	for _, user := range cfg.Users {
		requests, err := ts.ListRequests(ctx, taskID, user)
		if err != nil {
			return nil, err
		}
		all = append(all, requests...)
	}
	return all, nil
}

// ExecuteRequestComplete marks a single stored request as done.
func ExecuteRequestComplete(ctx context.Context, mgr contract.StoreManager, requestID int64) error {
	ts := mgr.GetTaskStore()
	if ts == nil {
		return errNoTaskStore
	}
	if err := ts.MarkRequestComplete(ctx, requestID); err != nil {
		return err
	}
	fmt.Printf("Request %d marked complete\n", requestID)
	return nil
}

// ExecuteAnnotationImport loads completed judgments from a JSONL file into the store.
// Records without a task or entity type are attributed to the given task.
func ExecuteAnnotationImport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, taskID, path string) error {
	task, err := cfg.LookupTask(taskID)
	if err != nil {
		return err
	}
	ts := mgr.GetTaskStore()
	if ts == nil {
		return errNoTaskStore
	}
	records, err := datafile.ReadAnnotations(path, task)
	if err != nil {
		return err
	}
	n, err := ts.ImportAnnotations(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to import annotations: %w", err)
	}
	fmt.Printf("Imported %d annotations for task %s from %s\n", n, task.ID, path)
	return nil
}
