package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/annoq/schema"
)

// ContentiousLevel scores how split the compared annotators are on one entity.
// With both polarities present it is min/max of the two counts, so an even
// split scores 1. Otherwise it is the floor 1/(n+1) for n compared annotators.
func ContentiousLevel(positives, negatives, compared int) float64 {
	if positives > 0 && negatives > 0 {
		hi, lo := max(positives, negatives), min(positives, negatives)
		return float64(lo) / float64(hi)
	}
	return 1 / float64(compared+1)
}

// annotationCell is the latest record of one annotator for one entity.
type annotationCell struct {
	value schema.AnnotationValue
	id    int64
}

// RankContentious orders every entity annotated under the label by how much
// the compared annotators disagree, most disputed first, and returns the
// matching side-by-side table. Entities start in identity order and ties keep it.
// An empty annotators list compares everyone with a record under the label.
func RankContentious(records []schema.AnnotationRecord, label string, annotators []schema.AnnotatorID) ([]schema.ContentiousEntity, schema.ComparisonTable) {
	entitySet := make(map[schema.EntityRef]struct{})
	cells := make(map[schema.AnnotatorID]map[schema.EntityRef]annotationCell)
	var everyone []schema.AnnotatorID

	for _, r := range records {
		if r.Label != label {
			continue
		}
		entitySet[r.Entity] = struct{}{}
		byEntity, ok := cells[r.Annotator]
		if !ok {
			byEntity = make(map[schema.EntityRef]annotationCell)
			cells[r.Annotator] = byEntity
			everyone = append(everyone, r.Annotator)
		}
		byEntity[r.Entity] = annotationCell{value: r.Value, id: r.ID}
	}

	compared := slices.Clone(annotators)
	if len(compared) == 0 {
		compared = everyone
		slices.Sort(compared)
	}
	compared = slices.Compact(compared)

	entities := make([]schema.EntityRef, 0, len(entitySet))
	for e := range entitySet {
		entities = append(entities, e)
	}
	slices.SortFunc(entities, compareEntities)

	ranked := make([]schema.ContentiousEntity, 0, len(entities))
	rows := make([]schema.ComparisonRow, 0, len(entities))
	for _, entity := range entities {
		ce := schema.ContentiousEntity{Entity: entity}
		row := schema.ComparisonRow{Entity: entity, Cells: make([]schema.ComparisonCell, len(compared))}
		for i, annotator := range compared {
			cell, ok := cells[annotator][entity]
			if !ok {
				ce.Other++
				continue
			}
			row.Cells[i] = schema.ComparisonCell{Present: true, Value: cell.value, AnnotationID: cell.id}
			switch cell.value {
			case schema.Positive:
				ce.Positives++
			case schema.Negative:
				ce.Negatives++
			default:
				ce.Other++
			}
		}
		ce.Level = ContentiousLevel(ce.Positives, ce.Negatives, len(compared))
		row.Level = ce.Level
		ranked = append(ranked, ce)
		rows = append(rows, row)
	}

	// Stable sort keeps identity order among equal levels; rows move with their entity.
	order := make([]int, len(ranked))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(ranked[b].Level, ranked[a].Level)
	})

	sortedRanked := make([]schema.ContentiousEntity, len(order))
	sortedRows := make([]schema.ComparisonRow, len(order))
	for i, idx := range order {
		sortedRanked[i] = ranked[idx]
		sortedRows[i] = rows[idx]
	}

	return sortedRanked, schema.ComparisonTable{
		Label:      label,
		Annotators: compared,
		Rows:       sortedRows,
	}
}
