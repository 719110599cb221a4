package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/schema"
)

// PrintTasks outputs the declared tasks ordered by id.
func PrintTasks(tasks map[string]schema.Task, cfg *contract.Config) error {
	ordered := make([]schema.Task, 0, len(tasks))
	for _, id := range slices.Sorted(maps.Keys(tasks)) {
		ordered = append(ordered, tasks[id])
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, ordered)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"id", "name", "entity_type", "labels", "annotators", "data_files", "pattern_file"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, t := range ordered {
					rec := []string{
						t.ID, t.Name, t.EntityType,
						strings.Join(t.Labels, ";"),
						strings.Join(annotatorNames(t.Annotators), ";"),
						strings.Join(t.DataFiles, ";"),
						t.PatternFile,
					}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errors.New("parquet output is not supported for tasks")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := newTable(w, []string{"Task", "Entity", "Labels", "Annotators", "Files", "Patterns"})
			var data [][]string
			for _, t := range ordered {
				patterns := "-"
				if t.PatternFile != "" {
					patterns = contract.TruncatePath(t.PatternFile, 30)
				}
				data = append(data, []string{
					t.ID,
					t.EntityType,
					strings.Join(t.Labels, ", "),
					joinOrNone(annotatorNames(t.Annotators)),
					fmt.Sprintf("%d", len(t.DataFiles)),
					patterns,
				})
			}
			if err := renderTable(table, data); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "%d tasks declared\n", len(ordered))
			return err
		}, "Wrote table")
	}
}
