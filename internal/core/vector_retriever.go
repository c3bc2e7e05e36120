// ABOUTME: Vector retriever: embeds the query and searches the flat index
// ABOUTME: Dimension or row-count mismatch is reported, never papered over
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/mawell/doc-assistant/internal/chunkstore"
	"github.com/mawell/doc-assistant/internal/models"
)

// Embedder turns query text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is a nearest-neighbour index over chunk embeddings
type VectorIndex interface {
	Dim() int
	Len() int
	Search(query []float32, k int) ([]chunkstore.Neighbor, error)
}

// ChunkSource is the ordered chunk list shared by both retrievers
type ChunkSource interface {
	Len() int
	Get(i int) (models.Chunk, error)
	All() ([]models.Chunk, error)
	Head(n int) ([]models.Chunk, error)
}

var errNotLoaded = errors.New("not loaded")

// VectorRetriever is the primary relevance path
type VectorRetriever struct {
	embedder  Embedder
	index     VectorIndex
	chunks    ChunkSource
	threshold float64
}

// NewVectorRetriever creates a VectorRetriever. Any nil dependency makes
// every search report resource_unavailable.
func NewVectorRetriever(embedder Embedder, index VectorIndex, chunks ChunkSource, threshold float64) *VectorRetriever {
	return &VectorRetriever{
		embedder:  embedder,
		index:     index,
		chunks:    chunks,
		threshold: threshold,
	}
}

// Name implements Retriever
func (r *VectorRetriever) Name() models.Strategy {
	return models.StrategyVector
}

// Search implements Retriever
func (r *VectorRetriever) Search(ctx context.Context, query string, topK int) (models.RetrievalResult, error) {
	const stage = "vector"

	switch {
	case r.embedder == nil:
		return models.RetrievalResult{}, stageErr(stage, KindResourceUnavailable, fmt.Errorf("embedder %w", errNotLoaded))
	case r.index == nil:
		return models.RetrievalResult{}, stageErr(stage, KindResourceUnavailable, fmt.Errorf("vector index %w", errNotLoaded))
	case r.chunks == nil:
		return models.RetrievalResult{}, stageErr(stage, KindResourceUnavailable, fmt.Errorf("chunk file %w", errNotLoaded))
	}
	if r.index.Len() != r.chunks.Len() {
		return models.RetrievalResult{}, stageErr(stage, KindIncompatibleIndex,
			fmt.Errorf("%w: %d index rows, %d chunks", chunkstore.ErrInconsistentStore, r.index.Len(), r.chunks.Len()))
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return models.RetrievalResult{}, stageErr(stage, KindResourceUnavailable, err)
	}
	if len(vec) != r.index.Dim() {
		return models.RetrievalResult{}, stageErr(stage, KindIncompatibleIndex,
			fmt.Errorf("%w: query dim=%d, index dim=%d", chunkstore.ErrDimensionMismatch, len(vec), r.index.Dim()))
	}

	neighbors, err := r.index.Search(vec, topK)
	if err != nil {
		kind := KindResourceUnavailable
		if errors.Is(err, chunkstore.ErrDimensionMismatch) {
			kind = KindIncompatibleIndex
		}
		return models.RetrievalResult{}, stageErr(stage, kind, err)
	}

	relevant := false
	for _, n := range neighbors {
		if n.Distance <= r.threshold {
			relevant = true
			break
		}
	}
	if !relevant {
		return models.NoRelevant(models.StrategyVector), nil
	}

	result := models.RetrievalResult{Strategy: models.StrategyVector}
	for _, n := range neighbors {
		chunk, err := r.chunks.Get(n.ID)
		if err != nil {
			return models.RetrievalResult{}, stageErr(stage, KindResourceUnavailable, err)
		}
		result.Hits = append(result.Hits, models.Hit{ID: n.ID, Chunk: chunk, Score: n.Distance})
	}
	return result, nil
}
