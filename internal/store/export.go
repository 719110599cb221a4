package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/annoq/internal/contract"
	"github.com/huangsam/annoq/internal/parquet"
)

// ExportFiles names the Parquet files written for one export prefix.
type ExportFiles struct {
	Runs        string
	Requests    string
	Annotations string
}

// exportFiles derives the Parquet file names from the output prefix.
func exportFiles(outputFile string) ExportFiles {
	return ExportFiles{
		Runs:        outputFile + ".generation_runs.parquet",
		Requests:    outputFile + ".annotation_requests.parquet",
		Annotations: outputFile + ".annotations.parquet",
	}
}

// ExecuteStoreExport writes every generation run, request and annotation of
// the task store to Parquet files next to outputFile.
func ExecuteStoreExport(ctx context.Context, ts contract.TaskStore, outputFile string) (ExportFiles, error) {
	// Validate that output file is specified
	if outputFile == "" {
		return ExportFiles{}, errors.New("--output-file is required for export command")
	}

	// Check if there's any data to export
	status, err := ts.GetStatus()
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to get store status: %w", err)
	}
	if !status.Connected {
		return ExportFiles{}, fmt.Errorf("store backend %s holds no data to export", status.Backend)
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total generation runs: %d\n", status.TotalRuns)

	runs, err := ts.GetAllGenerationRuns(ctx)
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to retrieve generation runs: %w", err)
	}
	requests, err := ts.GetAllRequests(ctx)
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to retrieve requests: %w", err)
	}
	annotations, err := ts.GetAllAnnotations(ctx)
	if err != nil {
		return ExportFiles{}, fmt.Errorf("failed to retrieve annotations: %w", err)
	}
	if len(runs) == 0 && len(annotations) == 0 {
		return ExportFiles{}, errors.New("no task data found to export")
	}

	files := exportFiles(outputFile)

	if err := parquet.WriteGenerationRunsParquet(parquet.ConvertGenerationRunRecords(runs), files.Runs); err != nil {
		return files, fmt.Errorf("failed to write generation runs: %w", err)
	}
	fmt.Printf("Exported %d generation runs to: %s\n", len(runs), files.Runs)

	if err := parquet.WriteRequestsParquet(parquet.ConvertStoredRequests(requests), files.Requests); err != nil {
		return files, fmt.Errorf("failed to write requests: %w", err)
	}
	fmt.Printf("Exported %d requests to: %s\n", len(requests), files.Requests)

	if err := parquet.WriteAnnotationsParquet(parquet.ConvertAnnotationRecords(annotations), files.Annotations); err != nil {
		return files, fmt.Errorf("failed to write annotations: %w", err)
	}
	fmt.Printf("Exported %d annotations to: %s\n", len(annotations), files.Annotations)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return files, nil
}
