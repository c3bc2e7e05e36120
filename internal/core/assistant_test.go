package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mawell/doc-assistant/internal/chunkstore"
	"github.com/mawell/doc-assistant/internal/config"
	"github.com/mawell/doc-assistant/internal/logger"
	"github.com/mawell/doc-assistant/internal/metrics"
	"github.com/mawell/doc-assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		EmbeddingModel:    "keyword-embed",
		EmbeddingURL:      "http://127.0.0.1:1/v1",
		EmbeddingTimeout:  time.Second,
		IndexPath:         filepath.Join(dir, "index.vec"),
		ChunkPath:         filepath.Join(dir, "chunks.db"),
		CompletionURL:     "http://127.0.0.1:1/api/generate",
		CompletionModel:   "mistral",
		CompletionTimeout: 2 * time.Second,
		CompletionTopP:    0.9,
		MaxDistance:       0.65,
		TopK:              4,
		FallbackMode:      true,
		IngestConcurrency: 1,
		IngestBatchSize:   8,
	}
}

func TestLoadRetrievalContext_MissingFiles(t *testing.T) {
	rc, err := LoadRetrievalContext(testConfig(t.TempDir()), nil)
	require.NoError(t, err)
	assert.NotNil(t, rc.Lexicon)
	assert.Nil(t, rc.Embedder)
	assert.Nil(t, rc.Index)
	assert.Nil(t, rc.Store)

	a := NewAssistant(rc, nil, Options{}, nil)
	answer := a.Answer(context.Background(), "¿Qué bombas venden?")
	assert.Equal(t, models.OutcomeNeedsSpecificity, answer.Outcome)
}

func TestLoadRetrievalContext_EmbedderEnabled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.FallbackMode = false

	rc, err := LoadRetrievalContext(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, rc.Embedder)

	a := NewAssistant(rc, nil, Options{}, nil)
	assert.Equal(t, []models.Strategy{models.StrategyVector, models.StrategyLexical}, a.Stats().Retrieval)
}

func TestLoadRetrievalContext_InvalidLexicon(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.LexiconPath = filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(cfg.LexiconPath, []byte("bogus: 1\n"), 0o600))

	_, err := LoadRetrievalContext(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidLexicon)

	_, err = Bootstrap(cfg, logger.Nop(), nil)
	assert.ErrorIs(t, err, ErrInvalidLexicon)
}

func TestAssistant_GatedQueriesNeverCallCompletion(t *testing.T) {
	lex := testLexicon(t)
	rc := &RetrievalContext{
		Lexicon: lex,
		Store:   &chunkstore.ChunkFile{Chunks: chunkList(corpus...)},
	}
	completer := &stubCompleter{response: goodAnswer}
	rec := metrics.New()
	a := NewAssistant(rc, completer, Options{Recorder: rec}, nil)

	deflected := a.Answer(context.Background(), "¿Cuál es el clima hoy?")
	assert.Equal(t, models.OutcomeDeflected, deflected.Outcome)
	assert.Equal(t, lex.DeflectionMessage(), deflected.Answer)
	assert.Empty(t, deflected.SourceIDs)

	specific := a.Answer(context.Background(), "¿Tienen tanques de cloro?")
	assert.Equal(t, models.OutcomeNeedsSpecificity, specific.Outcome)
	assert.Contains(t, specific.Answer, "Mawell")
	assert.NotEqual(t, deflected.Answer, specific.Answer)

	assert.Zero(t, completer.calls.Load())

	generated := a.Answer(context.Background(), corpus[2])
	assert.Equal(t, models.OutcomeGenerated, generated.Outcome)
	assert.Equal(t, goodAnswer, generated.Answer)
	require.NotEmpty(t, generated.SourceIDs)
	assert.Equal(t, 2, generated.SourceIDs[0])
	assert.EqualValues(t, 1, completer.calls.Load())

	resp := httptest.NewRecorder()
	rec.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := resp.Body.String()
	assert.Contains(t, body, `doc_assistant_retrievals_total{strategy="lexical"} 3`)
	assert.Contains(t, body, `doc_assistant_answers_total{outcome="deflected"} 1`)
	assert.Contains(t, body, `doc_assistant_answers_total{outcome="generated"} 1`)
	assert.Contains(t, body, "doc_assistant_completion_seconds_count 1")
}

func TestAssistant_ConcurrentAnswers(t *testing.T) {
	rc := &RetrievalContext{
		Lexicon: testLexicon(t),
		Store:   &chunkstore.ChunkFile{Chunks: chunkList(corpus...)},
	}
	a := NewAssistant(rc, &stubCompleter{response: goodAnswer}, Options{}, nil)

	queries := []string{corpus[1], corpus[2], "¿Cuál es el clima hoy?", "filtros"}
	var wg sync.WaitGroup
	results := make([]models.Answer, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Answer(context.Background(), queries[i%len(queries)])
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		assert.True(t, r.Outcome.IsValid(), "answer %d has outcome %q", i, r.Outcome)
		assert.NotEmpty(t, r.Answer)
	}
}

func TestAssistant_IngestedStore(t *testing.T) {
	docs := writeDocs(t)
	cfg := testConfig(t.TempDir())
	embedder := &keywordEmbedder{model: cfg.EmbeddingModel}

	_, err := NewIngestor(embedder, cfg.IndexPath, cfg.ChunkPath, IngestOptions{}, nil).
		Ingest(context.Background(), []string{docs})
	require.NoError(t, err)

	srv, calls := fakeOllama(t, http.StatusInternalServerError, "")
	cfg.CompletionURL = srv.URL

	t.Run("vector path with completion outage", func(t *testing.T) {
		rc, err := LoadRetrievalContext(cfg, nil)
		require.NoError(t, err)
		require.NotNil(t, rc.Index)
		require.NotNil(t, rc.Store)
		rc.Embedder = embedder

		a := NewAssistant(rc, completionClient(t, srv.URL), Options{TopK: 4, MaxDistance: 0.65}, nil)
		answer := a.Answer(context.Background(), "mantenimiento de filtros")
		assert.Equal(t, models.OutcomeSynthesized, answer.Outcome)
		assert.Equal(t, []int{2, 1, 0}, answer.SourceIDs)

		result := a.Search(context.Background(), "mantenimiento de filtros", 1)
		assert.Equal(t, models.StrategyVector, result.Strategy)
		assert.Equal(t, []int{2}, result.IDs())

		stats := a.Stats()
		assert.Equal(t, 3, stats.Chunks)
		assert.True(t, stats.ChunksReadable)
		assert.Equal(t, 3, stats.IndexRows)
		assert.Equal(t, 4, stats.IndexDim)
		assert.Equal(t, "keyword-embed", stats.EmbeddingModel)
		assert.Len(t, stats.Documents, 3)
		assert.Equal(t, []string{stageCompletion, stageTemplate}, stats.Composition)
	})

	t.Run("bootstrap in fallback mode uses lexical retrieval", func(t *testing.T) {
		a, err := Bootstrap(cfg, logger.Nop(), nil)
		require.NoError(t, err)
		assert.Equal(t, []models.Strategy{models.StrategyLexical}, a.Stats().Retrieval)

		answer := a.Answer(context.Background(), corpus[2])
		assert.Equal(t, models.OutcomeSynthesized, answer.Outcome)
		assert.Contains(t, answer.Answer, corpus[2])
		assert.Equal(t, 2, answer.SourceIDs[0])
	})

	assert.EqualValues(t, 2, calls.Load())
}

func TestAssistant_BlankQueryGoesToGate(t *testing.T) {
	ix, err := chunkstore.NewFlatIndex(2, [][]float32{{0, 0}, {1, 1}})
	require.NoError(t, err)
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"":     {0, 0},
		"   ":  {0, 0},
		"\t\n": {0, 0},
	}}
	completer := &stubCompleter{response: goodAnswer}
	rc := &RetrievalContext{
		Lexicon:  testLexicon(t),
		Embedder: embedder,
		Index:    ix,
		Store:    &chunkstore.ChunkFile{Chunks: chunkList(corpus[1], corpus[2])},
	}
	a := NewAssistant(rc, completer, Options{}, nil)

	for _, query := range []string{"", "   ", "\t\n"} {
		answer := a.Answer(context.Background(), query)
		assert.Equal(t, models.OutcomeNeedsSpecificity, answer.Outcome, "query %q", query)
		assert.Empty(t, answer.SourceIDs)

		result := a.Search(context.Background(), query, 0)
		assert.False(t, result.HasRelevant())
	}

	assert.Zero(t, embedder.calls.Load())
	assert.Zero(t, completer.calls.Load())
}
