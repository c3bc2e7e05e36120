// ABOUTME: Assistant wires retrieval, the relevance gate and the composer
// ABOUTME: RetrievalContext holds everything loaded once at startup
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
	"github.com/mawell/doc-assistant/internal/chunkstore"
	"github.com/mawell/doc-assistant/internal/config"
	"github.com/mawell/doc-assistant/internal/llm"
	"github.com/mawell/doc-assistant/internal/logger"
	"github.com/mawell/doc-assistant/internal/metrics"
	"github.com/mawell/doc-assistant/internal/models"
)

// RetrievalContext is immutable after LoadRetrievalContext returns.
// Embedder, Index and Store are nil when unavailable.
type RetrievalContext struct {
	Lexicon  *Lexicon
	Embedder Embedder
	Index    *chunkstore.FlatIndex
	Store    *chunkstore.ChunkFile
}

// LoadRetrievalContext loads the lexicon, embedder, index and chunk file.
// Only lexicon errors are returned; missing or unreadable store files are
// logged and leave the matching field nil.
func LoadRetrievalContext(cfg *config.Config, log logger.Logger) (*RetrievalContext, error) {
	if log == nil {
		log = logger.Nop()
	}

	var (
		lex *Lexicon
		err error
	)
	if cfg.LexiconPath != "" {
		lex, err = LoadLexicon(cfg.LexiconPath)
	} else {
		lex, err = DefaultLexicon()
	}
	if err != nil {
		return nil, err
	}

	rc := &RetrievalContext{Lexicon: lex}

	if cfg.EmbeddingEnabled() {
		client, err := EmbeddingClientFromConfig(cfg)
		if err != nil {
			log.Warn("embedder disabled", "err", err)
		} else {
			rc.Embedder = client
		}
	} else {
		log.Info("vector retrieval disabled", "fallback_mode", cfg.FallbackMode)
	}

	if ix, err := chunkstore.ReadIndex(cfg.IndexPath); err != nil {
		logMissing(log, "vector index unavailable", cfg.IndexPath, err)
	} else {
		rc.Index = ix
	}

	if cf, err := chunkstore.LoadChunkFile(cfg.ChunkPath); err != nil {
		logMissing(log, "chunk file unavailable", cfg.ChunkPath, err)
	} else {
		rc.Store = cf
		if cf.Meta.EmbeddingModel != "" && cf.Meta.EmbeddingModel != cfg.EmbeddingModel {
			log.Warn("chunk file was embedded with a different model",
				"stored", cf.Meta.EmbeddingModel, "configured", cfg.EmbeddingModel)
		}
	}

	return rc, nil
}

func logMissing(log logger.Logger, msg, path string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		log.Info(msg, "path", path)
		return
	}
	log.Warn(msg, "path", path, "err", err)
}

func (rc *RetrievalContext) chunkSource() ChunkSource {
	if rc.Store == nil {
		return nil
	}
	return rc.Store.Chunks
}

func (rc *RetrievalContext) vectorIndex() VectorIndex {
	if rc.Index == nil {
		return nil
	}
	return rc.Index
}

// EmbeddingClientFromConfig builds the embedding client from config
func EmbeddingClientFromConfig(cfg *config.Config) (*llm.EmbeddingClient, error) {
	return llm.NewEmbeddingClient(&llm.EmbeddingConfig{
		BaseURL:    cfg.EmbeddingURL,
		APIKey:     cfg.EmbeddingKey,
		Model:      cfg.EmbeddingModel,
		Timeout:    cfg.EmbeddingTimeout,
		MaxRetries: cfg.EmbeddingMaxRetries,
		RetryDelay: cfg.EmbeddingRetryDelay,
	})
}

// CompletionClientFromConfig builds the completion client from config
func CompletionClientFromConfig(cfg *config.Config) (*llm.CompletionClient, error) {
	return llm.NewCompletionClient(&llm.CompletionConfig{
		URL:         cfg.CompletionURL,
		Model:       cfg.CompletionModel,
		Timeout:     cfg.CompletionTimeout,
		Temperature: cfg.CompletionTemperature,
		TopP:        cfg.CompletionTopP,
		MaxTokens:   cfg.CompletionMaxTokens,
	})
}

// Options tune an Assistant
type Options struct {
	TopK        int
	MaxDistance float64
	Recorder    *metrics.Recorder
}

// Assistant answers questions against a RetrievalContext. Safe for
// concurrent use.
type Assistant struct {
	rc       *RetrievalContext
	chain    *RetrievalChain
	gate     *RelevanceGate
	composer *AnswerComposer
	topK     int
	log      logger.Logger
	recorder *metrics.Recorder
}

// NewAssistant builds the pipeline. The vector stage is present only when
// an embedder is configured; a nil completer leaves the template stage.
func NewAssistant(rc *RetrievalContext, completer Completer, opts Options, log logger.Logger) *Assistant {
	if log == nil {
		log = logger.Nop()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = 0.65
	}

	chunks := rc.chunkSource()
	var vector Retriever
	if rc.Embedder != nil {
		vector = NewVectorRetriever(rc.Embedder, rc.vectorIndex(), chunks, opts.MaxDistance)
	}
	chain := NewRetrievalChain(log, vector, NewLexicalRetriever(rc.Lexicon, chunks, log))

	classifier := NewIntentClassifier(rc.Lexicon)
	composer := NewAnswerComposer(rc.Lexicon, completer, NewTemplateSynthesizer(rc.Lexicon, classifier), log)

	rec := opts.Recorder
	onFail := func(stage string, kind ErrorKind) {
		rec.StageFailure(stage, string(kind))
	}
	chain.onFail = onFail
	composer.onFail = onFail
	composer.observeCompletion(rec.CompletionLatency)

	return &Assistant{
		rc:       rc,
		chain:    chain,
		gate:     NewRelevanceGate(rc.Lexicon),
		composer: composer,
		topK:     opts.TopK,
		log:      log,
		recorder: rec,
	}
}

// Bootstrap loads the retrieval context and clients from cfg
func Bootstrap(cfg *config.Config, log logger.Logger, rec *metrics.Recorder) (*Assistant, error) {
	if log == nil {
		log = logger.Nop()
	}
	rc, err := LoadRetrievalContext(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load retrieval context: %w", err)
	}

	var completer Completer
	if client, err := CompletionClientFromConfig(cfg); err != nil {
		log.Warn("completion disabled, answers will be synthesized", "err", err)
	} else {
		completer = client
	}

	return NewAssistant(rc, completer, Options{
		TopK:        cfg.TopK,
		MaxDistance: cfg.MaxDistance,
		Recorder:    rec,
	}, log), nil
}

// Answer never fails: every operational problem degrades to a fallback
func (a *Assistant) Answer(ctx context.Context, query string) models.Answer {
	log := a.log.With("query_id", uuid.NewString())

	// Nothing to retrieve or prompt with
	if strings.TrimSpace(query) == "" {
		answer := a.gate.Answer(query)
		a.recorder.Answer(string(answer.Outcome))
		log.Info("answered blank query", "outcome", answer.Outcome)
		return answer
	}

	result, failures := a.chain.Search(ctx, query, a.topK)
	a.recorder.Retrieval(string(result.Strategy))

	var answer models.Answer
	if result.HasRelevant() {
		answer = a.composer.Compose(ctx, query, result.Chunks())
		answer.SourceIDs = result.IDs()
	} else {
		answer = a.gate.Answer(query)
	}
	a.recorder.Answer(string(answer.Outcome))

	log.Info("answered",
		"strategy", result.Strategy,
		"hits", len(result.Hits),
		"outcome", answer.Outcome,
		"stage_failures", len(failures),
	)
	return answer
}

// Search runs retrieval only. topK <= 0 uses the configured default.
func (a *Assistant) Search(ctx context.Context, query string, topK int) models.RetrievalResult {
	if topK <= 0 {
		topK = a.topK
	}
	if strings.TrimSpace(query) == "" {
		return models.NoRelevant(models.StrategyNone)
	}
	result, _ := a.chain.Search(ctx, query, topK)
	a.recorder.Retrieval(string(result.Strategy))
	return result
}

// Stats describes the loaded store and the active pipeline
type Stats struct {
	Chunks         int                   `json:"chunks"`
	ChunksReadable bool                  `json:"chunks_readable"`
	IndexRows      int                   `json:"index_rows"`
	IndexDim       int                   `json:"index_dim"`
	EmbeddingModel string                `json:"embedding_model,omitempty"`
	Documents      []chunkstore.Document `json:"documents"`
	Retrieval      []models.Strategy     `json:"retrieval"`
	Composition    []string              `json:"composition"`
}

// Stats reports what was loaded at startup
func (a *Assistant) Stats() Stats {
	s := Stats{
		Documents:   []chunkstore.Document{},
		Retrieval:   a.chain.Stages(),
		Composition: a.composer.Stages(),
	}
	if a.rc.Store != nil {
		s.Chunks = a.rc.Store.Chunks.Len()
		_, err := a.rc.Store.Chunks.All()
		s.ChunksReadable = err == nil
		s.EmbeddingModel = a.rc.Store.Meta.EmbeddingModel
		if a.rc.Store.Documents != nil {
			s.Documents = a.rc.Store.Documents
		}
	}
	if a.rc.Index != nil {
		s.IndexRows = a.rc.Index.Len()
		s.IndexDim = a.rc.Index.Dim()
	}
	return s
}
