// ABOUTME: Benchmark runner: builds a chunk store from the corpus and runs scenarios
// ABOUTME: Completion goes to an in-process fake endpoint so runs are offline and repeatable

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mawell/doc-assistant/internal/chunkstore"
	"github.com/mawell/doc-assistant/internal/core"
	"github.com/mawell/doc-assistant/internal/llm"
	"github.com/mawell/doc-assistant/internal/logger"
)

const embeddingModel = "keyword-flags"

// embeddingKeywords are the dimensions of the benchmark embedding, matched
// against folded text
var embeddingKeywords = []string{"bomba", "filtro", "mantenimiento", "osmosis", "analisis", "empresa"}

// keywordEmbedder flags which keywords a text mentions
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	folded := core.Fold(text)
	vec := make([]float32, len(embeddingKeywords))
	for i, kw := range embeddingKeywords {
		if strings.Contains(folded, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

// fakeCompletion answers every generate request with the current reply
type fakeCompletion struct {
	mu    sync.Mutex
	reply string
}

func (f *fakeCompletion) set(reply string) {
	f.mu.Lock()
	f.reply = reply
	f.mu.Unlock()
}

func (f *fakeCompletion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	reply := f.reply
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if reply == "" {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model unavailable"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"response": reply, "done": true})
}

// BenchmarkRunner executes benchmark scenarios
type BenchmarkRunner struct {
	dir        string
	rc         *core.RetrievalContext
	fake       *fakeCompletion
	server     *httptest.Server
	completion *llm.CompletionClient
	metrics    *MetricsCalculator
	log        logger.Logger
	out        io.Writer
	verbose    bool
}

// NewBenchmarkRunner writes the corpus to a temporary store and starts the
// fake completion endpoint. Progress is written to out when verbose.
func NewBenchmarkRunner(out io.Writer, verbose bool) (*BenchmarkRunner, error) {
	if out == nil {
		out = io.Discard
	}
	dir, err := os.MkdirTemp("", "doc-assistant-bench-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create benchmark dir: %w", err)
	}

	r := &BenchmarkRunner{
		dir:     dir,
		fake:    &fakeCompletion{},
		metrics: NewMetricsCalculator(),
		log:     logger.Nop(),
		out:     out,
		verbose: verbose,
	}
	if verbose {
		r.log = logger.New(logger.Config{Level: "debug", Output: out})
	}

	if err := r.buildStore(); err != nil {
		r.Close()
		return nil, err
	}

	r.server = httptest.NewServer(r.fake)
	cfg := llm.DefaultCompletionConfig()
	cfg.URL = r.server.URL + "/api/generate"
	cfg.Timeout = 5 * time.Second
	r.completion, err = llm.NewCompletionClient(cfg)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	return r, nil
}

func (r *BenchmarkRunner) buildStore() error {
	indexPath := filepath.Join(r.dir, "index.vec")
	chunkPath := filepath.Join(r.dir, "chunks.db")

	vectors := make([][]float32, len(Corpus))
	for i, text := range Corpus {
		vectors[i], _ = keywordEmbedder{}.Embed(context.Background(), text)
	}
	_, err := chunkstore.Append(indexPath, chunkPath, embeddingModel, []chunkstore.NewDocument{{
		Path:    "corpus",
		Chunks:  Corpus,
		Vectors: vectors,
	}})
	if err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}

	lex, err := core.DefaultLexicon()
	if err != nil {
		return err
	}
	index, err := chunkstore.ReadIndex(indexPath)
	if err != nil {
		return err
	}
	store, err := chunkstore.LoadChunkFile(chunkPath)
	if err != nil {
		return err
	}
	r.rc = &core.RetrievalContext{Lexicon: lex, Index: index, Store: store}
	return nil
}

// Close stops the fake endpoint and removes the temporary store
func (r *BenchmarkRunner) Close() {
	if r.server != nil {
		r.server.Close()
	}
	if r.dir != "" {
		_ = os.RemoveAll(r.dir)
	}
}

// RunTest executes a single scenario
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if r.verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", scenario.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n", scenario.Description)
		fmt.Fprintf(r.out, "Query: %s\n\n", scenario.Query)
	}

	r.fake.set(scenario.ModelReply)

	rc := *r.rc
	if scenario.Vector {
		rc.Embedder = keywordEmbedder{}
	}
	assistant := core.NewAssistant(&rc, r.completion, core.Options{}, r.log)

	answer := assistant.Answer(ctx, scenario.Query)
	if err := ctx.Err(); err != nil {
		return TestResult{}, err
	}

	retrieved := make([]string, 0, len(answer.SourceIDs))
	for _, id := range answer.SourceIDs {
		chunk, err := r.rc.Store.Chunks.Get(id)
		if err != nil {
			return TestResult{}, fmt.Errorf("chunk %d: %w", id, err)
		}
		retrieved = append(retrieved, chunk.Text())
	}

	result := r.metrics.EvaluateTest(scenario, answer, retrieved)
	if r.verbose {
		fmt.Fprintf(r.out, "Answer (%s): %s\n", answer.Outcome, answer.Answer)
		fmt.Fprintf(r.out, "Sources: %v\n", answer.SourceIDs)
	}
	return result, nil
}

// RunAllTests executes all benchmark scenarios
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Summary is the exported benchmark report
type Summary struct {
	Timestamp  string       `json:"timestamp"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// Summarize counts passes and failures
func Summarize(results []TestResult) Summary {
	s := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == "PASS" {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExportResults writes the summary of results as JSON to outputPath
func ExportResults(results []TestResult, outputPath string) error {
	jsonData, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
