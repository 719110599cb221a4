package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// contentiousLimit caps the contentious entities shown in the statistics table.
const contentiousLimit = 10

// PrintStatistics outputs an agreement report, dispatching based on the output format configured.
func PrintStatistics(stats schema.Statistics, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, stats)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeKappaPairsCSV(w, stats.KappaPairs, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errors.New("parquet output is not supported for stats; use 'store export'")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatisticsTables(w, stats, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
}

// writeStatisticsTables writes the counters, the kappa matrix and the most contentious entities.
func writeStatisticsTables(w io.Writer, stats schema.Statistics, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Label %s: %d annotations on %d distinct entities (positive: %d, negative: %d, unknown: %d)\n",
		stats.Label, stats.TotalAnnotations, stats.DistinctAnnotatedEntities,
		stats.AnnotationsPerValue[schema.Positive], stats.AnnotationsPerValue[schema.Negative],
		stats.AnnotationsPerValue[schema.Unknown]); err != nil {
		return err
	}

	// --- 1. Per annotator workload ---
	users := make(map[schema.AnnotatorID]struct{})
	for id := range stats.AnnotationsPerUser {
		users[id] = struct{}{}
	}
	for id := range stats.Requests.PerUser {
		users[id] = struct{}{}
	}
	workload := newTable(w, []string{"Annotator", "Annotations", "Pending"})
	var rows [][]string
	for _, id := range slices.Sorted(maps.Keys(users)) {
		rows = append(rows, []string{
			string(id),
			fmt.Sprintf(intFmt, stats.AnnotationsPerUser[id]),
			fmt.Sprintf(intFmt, stats.Requests.PerUser[id]),
		})
	}
	if err := renderTable(workload, rows); err != nil {
		return err
	}

	// --- 2. Kappa matrix ---
	if len(stats.Kappa.Annotators) > 1 {
		if err := writeKappaMatrix(w, stats.Kappa, fmtFloat); err != nil {
			return err
		}
	}

	// --- 3. Most contentious entities ---
	if n := min(len(stats.Contentious), contentiousLimit); n > 0 {
		table := newTable(w, []string{"Rank", "Entity", "Level", "Pos", "Neg", "Other"})
		var data [][]string
		for i, c := range stats.Contentious[:n] {
			data = append(data, []string{
				strconv.Itoa(i + 1),
				contract.TruncatePath(c.Entity.String(), getMaxTableTextWidth(cfg, 45)),
				fmtFloat(c.Level),
				fmt.Sprintf(intFmt, c.Positives),
				fmt.Sprintf(intFmt, c.Negatives),
				fmt.Sprintf(intFmt, c.Other),
			})
		}
		if err := renderTable(table, data); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Outstanding requests: %d\n", stats.Requests.TotalOutstanding); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Statistics computed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeKappaMatrix writes the full square agreement matrix.
func writeKappaMatrix(w io.Writer, matrix schema.KappaMatrix, fmtFloat func(float64) string) error {
	headers := append([]string{"Kappa"}, annotatorNames(matrix.Annotators)...)
	table := newTable(w, headers)
	var data [][]string
	for i, row := range matrix.Rows() {
		cells := []string{string(matrix.Annotators[i])}
		for _, k := range row {
			cells = append(cells, formatKappa(k, fmtFloat))
		}
		data = append(data, cells)
	}
	return renderTable(table, data)
}

// writeKappaPairsTable writes each annotator pair with its agreement band.
func writeKappaPairsTable(w io.Writer, pairs []schema.KappaPair, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := newTable(w, []string{"First", "Second", "Kappa", "Agreement"})
	var data [][]string
	for _, p := range pairs {
		data = append(data, []string{
			string(p.First),
			string(p.Second),
			formatKappa(p.Kappa, fmtFloat),
			kappaLabel(p.Kappa, cfg),
		})
	}
	return renderTable(table, data)
}

// writeKappaPairsCSV writes one record per annotator pair.
func writeKappaPairsCSV(w io.Writer, pairs []schema.KappaPair, fmtFloat func(float64) string) error {
	header := []string{"first", "second", "kappa", "agreement"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range pairs {
			kappa := ""
			if v, ok := p.Kappa.Value(); ok {
				kappa = fmtFloat(v)
			}
			if err := cw.Write([]string{string(p.First), string(p.Second), kappa, contract.GetPlainLabel(p.Kappa)}); err != nil {
				return err
			}
		}
		return nil
	})
}
