package algo

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// ExcludeUnknowns drops every index where either side is Unknown.
// Both sides are dropped together. Unequal input lengths violate the
// pairing contract and fail fast.
func ExcludeUnknowns(a, b []schema.AnnotationValue) ([]schema.AnnotationValue, []schema.AnnotationValue, error) {
	if len(a) != len(b) {
		return nil, nil, fmt.Errorf("paired sequences have lengths %d and %d: %w", len(a), len(b), contract.ErrContractViolation)
	}
	outA := make([]schema.AnnotationValue, 0, len(a))
	outB := make([]schema.AnnotationValue, 0, len(b))
	for i := range a {
		if a[i] != schema.Unknown && b[i] != schema.Unknown {
			outA = append(outA, a[i])
			outB = append(outB, b[i])
		}
	}
	return outA, outB, nil
}

// CohenKappa computes chance-corrected agreement between two raters,
// rounded to 2 decimals. It is Undefined when there are no pairs or when
// chance agreement is already perfect.
func CohenKappa(a, b []schema.AnnotationValue) (schema.Kappa, error) {
	if len(a) != len(b) {
		return schema.KappaUndefined, fmt.Errorf("paired sequences have lengths %d and %d: %w", len(a), len(b), contract.ErrContractViolation)
	}
	n := float64(len(a))
	if n == 0 {
		return schema.KappaUndefined, nil
	}

	rowTotals := make(map[schema.AnnotationValue]float64)
	colTotals := make(map[schema.AnnotationValue]float64)
	agree := 0.0
	for i := range a {
		rowTotals[a[i]]++
		colTotals[b[i]]++
		if a[i] == b[i] {
			agree++
		}
	}

	observed := agree / n
	expected := 0.0
	for v, r := range rowTotals {
		expected += (r / n) * (colTotals[v] / n)
	}
	if expected == 1 {
		return schema.KappaUndefined, nil
	}
	return schema.KappaScore(round2((observed - expected) / (1 - expected))), nil
}

// round2 rounds to two decimals the way a "%.2f" rendering does.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if r == 0 {
		return 0 // normalize -0
	}
	return r
}

// valuesByAnnotator maps each annotator to entity -> value under the label.
// Later records for the same entity overwrite earlier ones.
func valuesByAnnotator(records []schema.AnnotationRecord, label string) map[schema.AnnotatorID]map[schema.EntityRef]schema.AnnotationValue {
	byUser := make(map[schema.AnnotatorID]map[schema.EntityRef]schema.AnnotationValue)
	for _, r := range records {
		if r.Label != label {
			continue
		}
		values, ok := byUser[r.Annotator]
		if !ok {
			values = make(map[schema.EntityRef]schema.AnnotationValue)
			byUser[r.Annotator] = values
		}
		values[r.Entity] = r.Value
	}
	return byUser
}

// compareEntities orders entities by type then name.
func compareEntities(x, y schema.EntityRef) int {
	if c := cmp.Compare(x.Type, y.Type); c != 0 {
		return c
	}
	return cmp.Compare(x.Name, y.Name)
}

// PairKappa computes the agreement of two annotators over their shared entities.
// No shared entity means Undefined.
func PairKappa(first, second map[schema.EntityRef]schema.AnnotationValue) (schema.Kappa, error) {
	var shared []schema.EntityRef
	for entity := range first {
		if _, ok := second[entity]; ok {
			shared = append(shared, entity)
		}
	}
	if len(shared) == 0 {
		return schema.KappaUndefined, nil
	}
	slices.SortFunc(shared, compareEntities)

	a := make([]schema.AnnotationValue, len(shared))
	b := make([]schema.AnnotationValue, len(shared))
	for i, entity := range shared {
		a[i] = first[entity]
		b[i] = second[entity]
	}
	a, b, err := ExcludeUnknowns(a, b)
	if err != nil {
		return schema.KappaUndefined, err
	}
	return CohenKappa(a, b)
}

// ComputeKappa builds the agreement matrix for one label over every annotator
// with at least one record under it.
func ComputeKappa(records []schema.AnnotationRecord, label string) (schema.KappaMatrix, error) {
	return ComputeKappaWithWorkers(records, label, 1)
}

// ComputeKappaWithWorkers is ComputeKappa with pairs spread over a worker pool.
// The resulting matrix does not depend on the number of workers.
func ComputeKappaWithWorkers(records []schema.AnnotationRecord, label string, workers int) (schema.KappaMatrix, error) {
	byUser := valuesByAnnotator(records, label)
	annotators := make([]schema.AnnotatorID, 0, len(byUser))
	for id := range byUser {
		annotators = append(annotators, id)
	}
	matrix := schema.NewKappaMatrix(label, annotators)

	type pairJob struct {
		index  int
		first  schema.AnnotatorID
		second schema.AnnotatorID
	}
	var jobs []pairJob
	for i, x := range matrix.Annotators {
		for _, y := range matrix.Annotators[i+1:] {
			jobs = append(jobs, pairJob{index: len(jobs), first: x, second: y})
		}
	}
	if len(jobs) == 0 {
		return matrix, nil
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]schema.Kappa, len(jobs))
	errs := make([]error, len(jobs))
	jobCh := make(chan pairJob, len(jobs))
	var wg sync.WaitGroup

	for range min(workers, len(jobs)) {
		wg.Go(func() {
			for job := range jobCh {
				results[job.index], errs[job.index] = PairKappa(byUser[job.first], byUser[job.second])
			}
		})
	}
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	for _, job := range jobs {
		if err := errs[job.index]; err != nil {
			return matrix, fmt.Errorf("kappa for %s and %s: %w", job.first, job.second, err)
		}
		matrix.Set(job.first, job.second, results[job.index])
	}
	return matrix, nil
}

// KappaPairs lists every annotator pair of the matrix from least to most
// agreement, so the pairs worth a side-by-side comparison come first.
// Undefined pairs go last. Ties keep the matrix's row-major order.
func KappaPairs(matrix schema.KappaMatrix) []schema.KappaPair {
	pairs := matrix.Pairs()
	slices.SortStableFunc(pairs, func(x, y schema.KappaPair) int {
		xv, xok := x.Kappa.Value()
		yv, yok := y.Kappa.Value()
		switch {
		case xok && yok:
			return cmp.Compare(xv, yv)
		case xok:
			return -1
		case yok:
			return 1
		default:
			return 0
		}
	})
	return pairs
}
