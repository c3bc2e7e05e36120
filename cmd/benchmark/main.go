// ABOUTME: Command-line runner for the offline answer-quality benchmarks
// ABOUTME: Executes scenarios against the built-in corpus and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mawell/doc-assistant/benchmarks/ragas"
)

func main() {
	testID := flag.String("test", "", "Run a single scenario by ID. If empty, runs all scenarios.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("Document Assistant Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner, err := ragas.NewBenchmarkRunner(os.Stdout, *verbose)
	if err != nil {
		log.Fatalf("Failed to create benchmark runner: %v", err)
	}

	results, err := run(context.Background(), runner, *testID)
	runner.Close()
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Outcome: %s (match: %t)\n", result.Outcome, result.OutcomeMatch)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	summary := ragas.Summarize(results)
	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	if err := ragas.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}
	fmt.Printf("✓ Results exported to: %s\n", *outputPath)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, runner *ragas.BenchmarkRunner, testID string) ([]ragas.TestResult, error) {
	if testID == "" {
		fmt.Println("Running all benchmark scenarios...")
		return runner.RunAllTests(ctx)
	}

	scenario, ok := ragas.GetTest(testID)
	if !ok {
		ids := make([]string, 0)
		for _, s := range ragas.GetAllTests() {
			ids = append(ids, s.ID)
		}
		return nil, fmt.Errorf("unknown test ID %q (valid options: %s)", testID, strings.Join(ids, ", "))
	}

	fmt.Printf("Running test: %s\n", scenario.Name)
	result, err := runner.RunTest(ctx, scenario)
	if err != nil {
		return nil, err
	}
	return []ragas.TestResult{result}, nil
}
