// Package main provides a performance benchmarking tool for the annoq CLI.
// It builds synthetic tasks of different sizes and times dry-run generation,
// running each phase multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - annoq binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic datasets are written
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    map[string]int // Dataset name to number of lines
	Annotators  int
}

// words are mixed into synthetic lines so patterns hit some of them.
var words = []string{
	"enterprise", "customers", "bakery", "fresh", "bread", "software", "cloud",
	"coffee", "shop", "global", "retail", "logistics", "platform", "local",
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets:    map[string]int{"small": 1_000, "medium": 50_000, "large": 500_000},
		Annotators:  20,
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the annoq binary exists and the work dir is writable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("annoq"); err != nil {
		return fmt.Errorf("annoq binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// writeDataset writes one synthetic task with its data, patterns and config file.
func writeDataset(config BenchmarkConfig, name string, lines int) (string, error) {
	dir := filepath.Join(config.WorkDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	data, err := os.Create(filepath.Join(dir, "data.jsonl"))
	if err != nil {
		return "", err
	}
	rng := rand.New(rand.NewPCG(uint64(lines), 1))
	w := bufio.NewWriter(data)
	for range lines {
		var text []string
		for range 4 + rng.IntN(6) {
			text = append(text, words[rng.IntN(len(words))])
		}
		_, _ = fmt.Fprintf(w, "{\"text\": %q}\n", strings.Join(text, " "))
	}
	if err := w.Flush(); err != nil {
		_ = data.Close()
		return "", err
	}
	if err := data.Close(); err != nil {
		return "", err
	}

	patterns := "{\"label\": \"b2b\", \"pattern\": \"enterprise customers\"}\n{\"label\": \"b2b\", \"pattern\": \"software\"}\n"
	if err := os.WriteFile(filepath.Join(dir, "patterns.jsonl"), []byte(patterns), 0o644); err != nil {
		return "", err
	}

	annotators := make([]string, config.Annotators)
	for i := range annotators {
		annotators[i] = fmt.Sprintf("u%d", i+1)
	}
	yaml := fmt.Sprintf(`tasks:
  bench:
    entity_type: Company
    labels: [b2b]
    annotators: [%s]
    data_files: [data.jsonl]
    pattern_file: patterns.jsonl
`, strings.Join(annotators, ", "))
	if err := os.WriteFile(filepath.Join(dir, ".annoq.yaml"), []byte(yaml), 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, name := range []string{"small", "medium", "large"} {
		dir, err := writeDataset(config, name, config.Datasets[name])
		if err != nil {
			fmt.Printf("Skipping %s: %v\n", name, err)
			continue
		}
		fmt.Printf("Benchmarking %s (%d lines)\n", name, config.Datasets[name])

		// Clear the score cache so the first cached run is cold
		clearCmd := exec.Command("annoq", "cache", "clear", "--cache-db-connect", filepath.Join(dir, "cache.db"))
		clearCmd.Dir = dir
		if output, err := clearCmd.CombinedOutput(); err != nil {
			fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
		}

		results = append(results, runBenchmarkSuite(config, name, dir, "generate", "dry-run generation", "bench --dry-run --seed 1"))
		results = append(results, runBenchmarkSuite(config, name, dir, "generate", "capped generation", "bench --dry-run --seed 1 --max-per-annotator 1000 --max-per-dp 3"))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, dir, command, description, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, dataset)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dir, command, extraArgs, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Command:     description,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes an annoq command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dir, command, extraArgs, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command,
		"--cache-backend", cacheBackend,
		"--cache-db-connect", filepath.Join(dir, "cache.db"),
		"--store-backend", "none",
		"--workers", fmt.Sprintf("%d", config.Workers),
	}
	args = append(args, strings.Fields(extraArgs)...)

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("annoq", args...)
		cmd.Dir = dir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Assigned") && strings.Contains(outputStr, "Generated in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/annoq_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s %-20s: No-cache: %s, Cold: %s, Warm: %s\n",
			result.Dataset, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
