package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/internal/parquet"
	"github.com/huangsam/annoq/schema"
)

// PrintRequestStatistics outputs the outstanding requests of a task per annotator.
func PrintRequestStatistics(taskID string, stats schema.RequestStatistics, cfg *contract.Config) error {
	_, intFmt := createFormatters(cfg.Precision)
	users := slices.Sorted(maps.Keys(stats.PerUser))

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				TaskID string `json:"task_id"`
				schema.RequestStatistics
			}{TaskID: taskID, RequestStatistics: stats})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"task_id", "annotator", "pending"}, func(cw *csv.Writer) error {
				for _, id := range users {
					if err := cw.Write([]string{taskID, string(id), strconv.Itoa(stats.PerUser[id])}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errors.New("parquet output is not supported for request status")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := newTable(w, []string{"Annotator", "Pending"})
			var data [][]string
			for _, id := range users {
				data = append(data, []string{string(id), fmt.Sprintf(intFmt, stats.PerUser[id])})
			}
			if err := renderTable(table, data); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Task %s has %d outstanding requests\n", taskID, stats.TotalOutstanding)
			return err
		}, "Wrote table")
	}
}

// PrintRequests outputs stored requests in the order they were listed.
// Parquet output needs an output file.
func PrintRequests(requests []schema.StoredRequest, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if requests == nil {
				requests = []schema.StoredRequest{}
			}
			return writeJSON(w, requests)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRequestsCSV(w, requests, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires --output-file")
		}
		if err := parquet.WriteRequestsParquet(parquet.ConvertStoredRequests(requests), cfg.OutputFile); err != nil {
			return err
		}
		fmt.Printf("💾 Wrote Parquet to %s\n", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRequestsTable(w, requests, cfg, fmtFloat)
		}, "Wrote table")
	}
}

func writeRequestsTable(w io.Writer, requests []schema.StoredRequest, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := newTable(w, []string{"ID", "Annotator", "#", "Entity", "Status", "Score", "Text"})
	textWidth := getMaxTableTextWidth(cfg, 85)
	var data [][]string
	pending := 0
	for _, r := range requests {
		if r.Status == schema.PendingStatus {
			pending++
		}
		data = append(data, []string{
			strconv.FormatInt(r.ID, 10),
			string(r.Annotator),
			strconv.Itoa(r.Order + 1),
			contract.TruncatePath(r.Request.Entity, 40),
			string(r.Status),
			fmtFloat(r.Request.Score),
			truncateText(r.Request.Data.Text, textWidth),
		})
	}
	if err := renderTable(table, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d requests (%d pending)\n", len(requests), pending)
	return err
}

func writeRequestsCSV(w io.Writer, requests []schema.StoredRequest, fmtFloat func(float64) string) error {
	header := []string{"request_id", "run_id", "task_id", "annotator", "order", "status", "created_at", "entity", "label", "source", "score", "text"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range requests {
			rec := []string{
				strconv.FormatInt(r.ID, 10),
				r.RunID,
				r.TaskID,
				string(r.Annotator),
				strconv.Itoa(r.Order),
				string(r.Status),
				r.CreatedAt.Format(contract.DateTimeFormat),
				r.Request.Entity,
				r.Request.Label,
				r.Request.Source,
				fmtFloat(r.Request.Score),
				r.Request.Data.Text,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
