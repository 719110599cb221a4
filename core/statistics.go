package core

import (
	"context"
	"fmt"

	"github.com/huangsam/annoq/core/algo"
	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// StatisticsOptions select what a statistics report covers.
type StatisticsOptions struct {
	Task       schema.Task
	Label      string               // Defaults to the task's first label
	Annotators []schema.AnnotatorID // Compared annotators; empty means everyone with a record
	Workers    int
}

// ComputeStatistics builds the agreement report of a task for one label.
// Every annotation under the label counts, whatever its entity type. Requests
// may be nil, in which case the outstanding request counts stay empty.
func ComputeStatistics(ctx context.Context, opts StatisticsOptions, annotations contract.AnnotationSource, requests contract.RequestStore) (schema.Statistics, error) {
	label := opts.Label
	if label == "" {
		label = opts.Task.DefaultLabel()
	}
	stats := schema.Statistics{
		TaskID:              opts.Task.ID,
		Label:               label,
		AnnotationsPerUser:  make(map[schema.AnnotatorID]int),
		AnnotationsPerValue: make(map[schema.AnnotationValue]int),
		Requests:            schema.RequestStatistics{PerUser: make(map[schema.AnnotatorID]int)},
	}

	records, err := annotations.FetchAnnotations(ctx, label)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch annotations: %w", err)
	}
	countAnnotations(&stats, records)

	if stats.Kappa, err = algo.ComputeKappaWithWorkers(records, label, opts.Workers); err != nil {
		return stats, err
	}
	stats.KappaPairs = algo.KappaPairs(stats.Kappa)
	stats.Contentious, stats.Comparison = algo.RankContentious(records, label, opts.Annotators)

	if requests != nil {
		reqStats, err := requests.RequestStatistics(ctx, opts.Task.ID)
		if err != nil {
			return stats, fmt.Errorf("failed to count requests: %w", err)
		}
		if reqStats.PerUser != nil {
			stats.Requests = reqStats
		} else {
			stats.Requests.TotalOutstanding = reqStats.TotalOutstanding
		}
	}
	return stats, nil
}

// countAnnotations fills in the plain counters of a report.
// An entity counts as annotated once someone gave it a non-unknown value.
func countAnnotations(stats *schema.Statistics, records []schema.AnnotationRecord) {
	annotated := make(map[schema.EntityRef]struct{})
	for _, r := range records {
		stats.TotalAnnotations++
		stats.AnnotationsPerUser[r.Annotator]++
		stats.AnnotationsPerValue[r.Value]++
		if r.Value != schema.Unknown {
			annotated[r.Entity] = struct{}{}
		}
	}
	stats.DistinctAnnotatedEntities = len(annotated)
}
