package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// PrintGenerationResult outputs a generation run, dispatching based on the output format configured.
func PrintGenerationResult(result schema.GenerationResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeGenerationCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errors.New("parquet output is not supported for generate; use 'store export'")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeGenerationTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// sortedAnnotators lists the annotators of a result by name.
func sortedAnnotators(requests map[schema.AnnotatorID][]schema.AnnotationRequest) []schema.AnnotatorID {
	return slices.Sorted(maps.Keys(requests))
}

// truncateText shortens text to maxWidth runes with a trailing ellipsis.
func truncateText(text string, maxWidth int) string {
	runes := []rune(oneLine(text))
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return string(runes)
}

// writeGenerationTable writes one row per assigned request.
func writeGenerationTable(w io.Writer, result schema.GenerationResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := newTable(w, []string{"Annotator", "#", "Entity", "Source", "Score", "Text"})
	textWidth := getMaxTableTextWidth(cfg, 70)

	var data [][]string
	for _, annotator := range sortedAnnotators(result.Requests) {
		for i, r := range result.Requests[annotator] {
			data = append(data, []string{
				string(annotator),
				strconv.Itoa(i + 1),
				contract.TruncatePath(r.Entity, 40),
				r.Source,
				fmtFloat(r.Score),
				truncateText(r.Data.Text, textWidth),
			})
		}
	}
	if err := renderTable(table, data); err != nil {
		return err
	}

	perUser := make([]string, 0, len(result.Requests))
	for _, annotator := range sortedAnnotators(result.Requests) {
		perUser = append(perUser, fmt.Sprintf("%s=%d", annotator, len(result.Requests[annotator])))
	}
	if _, err := fmt.Fprintf(w, "Assigned %d requests from %d candidates (%s)\n",
		result.Assignment.Total(), result.TotalCandidates, joinOrNone(perUser)); err != nil {
		return err
	}
	state := "not persisted (dry run)"
	if result.Persisted {
		state = "persisted to " + string(cfg.StoreBackend) + " store"
	}
	if _, err := fmt.Fprintf(w, "Run %s %s. Generated in %v with seed %d\n", result.RunID, state, duration, result.Seed); err != nil {
		return err
	}
	return nil
}

// writeGenerationCSV writes the requests in assignment order.
func writeGenerationCSV(w io.Writer, result schema.GenerationResult, fmtFloat func(float64) string) error {
	header := []string{"run_id", "annotator", "order", "entity", "entity_type", "label", "source", "score", "text"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, annotator := range sortedAnnotators(result.Requests) {
			for i, r := range result.Requests[annotator] {
				rec := []string{
					result.RunID,
					string(annotator),
					strconv.Itoa(i),
					r.Entity,
					r.EntityType,
					r.Label,
					r.Source,
					fmtFloat(r.Score),
					r.Data.Text,
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func joinOrNone(parts []string) string {
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
