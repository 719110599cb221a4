package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// comparisonOutput is the JSON shape of a comparison.
type comparisonOutput struct {
	TaskID     string                 `json:"task_id"`
	Label      string                 `json:"label"`
	KappaPairs []schema.KappaPair     `json:"kappa_pairs"`
	Comparison schema.ComparisonTable `json:"comparison"`
}

// PrintComparison outputs the side-by-side judgments of a report, dispatching
// based on the output format configured.
func PrintComparison(stats schema.Statistics, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, comparisonOutput{
				TaskID:     stats.TaskID,
				Label:      stats.Label,
				KappaPairs: comparedPairs(stats.KappaPairs, stats.Comparison.Annotators),
				Comparison: stats.Comparison,
			})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonCSV(w, stats.Comparison, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errors.New("parquet output is not supported for compare; use 'store export'")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonTables(w, stats, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// comparedPairs keeps the pairs whose annotators are both compared.
func comparedPairs(pairs []schema.KappaPair, annotators []schema.AnnotatorID) []schema.KappaPair {
	compared := make(map[schema.AnnotatorID]struct{}, len(annotators))
	for _, a := range annotators {
		compared[a] = struct{}{}
	}
	kept := make([]schema.KappaPair, 0, len(pairs))
	for _, p := range pairs {
		_, first := compared[p.First]
		_, second := compared[p.Second]
		if first && second {
			kept = append(kept, p)
		}
	}
	return kept
}

// writeComparisonTables writes the pair agreements, then one row per entity.
func writeComparisonTables(w io.Writer, stats schema.Statistics, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := stats.Comparison
	if pairs := comparedPairs(stats.KappaPairs, table.Annotators); len(pairs) > 0 {
		if err := writeKappaPairsTable(w, pairs, cfg, fmtFloat); err != nil {
			return err
		}
	}

	headers := append([]string{"Entity", "Level"}, annotatorNames(table.Annotators)...)
	rowsTable := newTable(w, headers)
	entityWidth := getMaxTableTextWidth(cfg, 15+8*len(table.Annotators))
	var data [][]string
	for _, row := range table.Rows {
		cells := []string{contract.TruncatePath(row.Entity.String(), entityWidth), fmtFloat(row.Level)}
		for _, c := range row.Cells {
			cells = append(cells, formatCell(c))
		}
		data = append(data, cells)
	}
	if err := renderTable(rowsTable, data); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Compared %d annotators on %d entities for label %s\n", len(table.Annotators), len(table.Rows), table.Label); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Comparison computed in %v. Store backend: %s\n", duration, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeComparisonCSV writes one record per entity with a column per annotator.
// Missing judgments are empty fields.
func writeComparisonCSV(w io.Writer, table schema.ComparisonTable, fmtFloat func(float64) string) error {
	header := append([]string{"entity_type", "entity", "level"}, annotatorNames(table.Annotators)...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range table.Rows {
			rec := []string{row.Entity.Type, row.Entity.Name, fmtFloat(row.Level)}
			for _, c := range row.Cells {
				value := ""
				if c.Present {
					value = fmt.Sprintf("%d", int(c.Value))
				}
				rec = append(rec, value)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
