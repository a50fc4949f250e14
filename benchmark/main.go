// Package main provides a performance benchmarking tool for the mri CLI.
// It generates synthetic metric batches of increasing size, then measures
// dry-run scoring and persisted sprint builds against a throwaway SQLite store.
// Each suite runs multiple times; the first successful build is treated as cold
// (empty store) and the rest are averaged as warm (previous snapshot present).
//
// Prerequisites:
// - mri binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated batches and the SQLite file
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/mri/schema"
)

// BenchmarkResult holds the result of a benchmark suite (dry-run average, cold build and average of warm builds).
type BenchmarkResult struct {
	Files     int
	ScoreTime string
	ColdTime  string
	WarmTime  string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir    string
	Timeout    time.Duration
	Workers    int
	ScoreRuns  int
	SprintRuns int
	BatchSizes []int
	Seed       uint64
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:    os.Args[1],
		Timeout:    5 * time.Minute,
		Workers:    14,
		ScoreRuns:  3,
		SprintRuns: 4,
		BatchSizes: []int{1_000, 10_000, 50_000, 200_000},
		Seed:       42,
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

// checkPrerequisites verifies that the mri binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("mri"); err != nil {
		return fmt.Errorf("mri binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// runBenchmarks executes all benchmark suites across configured batch sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, %d workers, score: %d runs, sprints: %d runs\n",
		len(config.BatchSizes), config.Timeout, config.Workers, config.ScoreRuns, config.SprintRuns)

	for _, size := range config.BatchSizes {
		fmt.Printf("Benchmarking %d files\n", size)
		result, err := runBenchmarkSuite(config, size)
		if err != nil {
			fmt.Printf("  Skipped: %v\n", err)
			continue
		}
		results = append(results, result)
	}

	return results
}

// runBenchmarkSuite runs the dry-run and persisted phases for one batch size
func runBenchmarkSuite(config BenchmarkConfig, size int) (BenchmarkResult, error) {
	rng := rand.New(rand.NewPCG(config.Seed, uint64(size)))
	batchPaths := make([]string, config.SprintRuns)
	for i := range batchPaths {
		p, err := writeBatch(config.WorkDir, size, i+1, rng)
		if err != nil {
			return BenchmarkResult{}, err
		}
		batchPaths[i] = p
	}

	dbPath := filepath.Join(config.WorkDir, fmt.Sprintf("bench_%d.db", size))
	_ = os.Remove(dbPath)
	env := []string{"MRI_BACKEND=sqlite", "MRI_DB_CONNECT=" + dbPath, "MRI_COLOR=no"}

	// Phase 1: dry runs
	fmt.Printf("  Score phase (%d runs)\n", config.ScoreRuns)
	var scoreTimes []float64
	for range config.ScoreRuns {
		if secs, ok := runMRI(config, env, "score", batchPaths[0], "--repo", "bench/repo"); ok {
			scoreTimes = append(scoreTimes, secs)
		}
	}

	// Phase 2: consecutive sprints against one store
	fmt.Printf("  Sprint phase (%d runs)\n", config.SprintRuns)
	var sprintTimes []float64
	for i, p := range batchPaths {
		if secs, ok := runMRI(config, env, "build", p, "--repo", "bench/repo", "--sprint", strconv.Itoa(i+1)); ok {
			sprintTimes = append(sprintTimes, secs)
		}
	}

	result := BenchmarkResult{Files: size, ScoreTime: average(scoreTimes), ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
	if len(sprintTimes) > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", sprintTimes[0])
		result.WarmTime = average(sprintTimes[1:])
	}
	fmt.Printf("  Score average: %s, Cold build: %s, Warm average: %s\n", result.ScoreTime, result.ColdTime, result.WarmTime)
	return result, nil
}

// writeBatch generates a JSON metric batch with a long tail of healthy files
// and a few hotspots, which is the usual shape of a real repository.
func writeBatch(dir string, size, sprint int, rng *rand.Rand) (string, error) {
	batch := schema.MetricBatch{Files: make([]schema.FileMetric, size)}
	for i := range batch.Files {
		hot := rng.IntN(100) < 5
		m := schema.FileMetric{
			Path:          fmt.Sprintf("pkg%03d/file%06d.go", i%500, i),
			RawComplexity: float64(1 + rng.IntN(8)),
			RawChurnCount: rng.IntN(4),
			RawLOC:        20 + rng.IntN(300),
		}
		if hot {
			m.RawComplexity = float64(15 + rng.IntN(30))
			m.RawChurnCount = 10 + rng.IntN(30)
			m.RawLOC = 400 + rng.IntN(1500)
		}
		batch.Files[i] = m
	}

	p := filepath.Join(dir, fmt.Sprintf("batch_%d_sprint%d.json", size, sprint))
	data, err := json.Marshal(batch)
	if err != nil {
		return "", err
	}
	return p, os.WriteFile(p, data, 0o644)
}

// runMRI executes one mri command and returns its wall time when it succeeds in time
func runMRI(config BenchmarkConfig, env []string, args ...string) (float64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	args = append(args, "--workers", strconv.Itoa(config.Workers))
	cmd := exec.CommandContext(ctx, "mri", args...)
	cmd.Env = append(os.Environ(), env...)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil || !isSuccess(output) {
		return 0, false
	}
	return time.Since(start).Seconds(), true
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Build completed in") &&
		strings.Contains(outputStr, "workers")
}

func average(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("mri_benchmark_%s.csv", timestamp))

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

	// Write header
	if err := writer.Write([]string{"files", "score_avg", "cold_build", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{strconv.Itoa(result.Files), result.ScoreTime, result.ColdTime, result.WarmTime}); err != nil {
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
		fmt.Printf("  %7d files: Score: %s, Cold: %s, Warm: %s\n", result.Files, result.ScoreTime, result.ColdTime, result.WarmTime)
	}
}
