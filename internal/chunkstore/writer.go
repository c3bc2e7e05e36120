// ABOUTME: Append path used by ingestion to extend the chunk store
// ABOUTME: Keeps index rows and chunk positions aligned across both files
package chunkstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mawell/doc-assistant/internal/models"
	"go.etcd.io/bbolt"
)

var (
	// ErrModelMismatch is returned when appending vectors from a different embedding model
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrInconsistentStore is returned when index rows and chunk count disagree
	ErrInconsistentStore = errors.New("index and chunk file out of sync")
)

// NewDocument is one source file ready to be stored
type NewDocument struct {
	Path    string
	Chunks  []string
	Vectors [][]float32
}

// AppendResult summarizes an append
type AppendResult struct {
	Documents   []Document `json:"documents"`
	ChunksAdded int        `json:"chunks_added"`
	TotalChunks int        `json:"total_chunks"`
	Dim         int        `json:"dim"`
}

// Append adds documents to the tail of the store. The new index is written to
// a temp file first, chunk records are committed in one transaction, then the
// index is renamed into place.
func Append(indexPath, chunkPath, model string, docs []NewDocument) (AppendResult, error) {
	var result AppendResult

	dim := 0
	var vectors [][]float32
	for _, doc := range docs {
		if len(doc.Chunks) != len(doc.Vectors) {
			return result, fmt.Errorf("%s: %d chunks but %d vectors", doc.Path, len(doc.Chunks), len(doc.Vectors))
		}
		for _, v := range doc.Vectors {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) != dim || dim == 0 {
				return result, fmt.Errorf("%w: %s has a %d-dim vector, batch dim=%d", ErrDimensionMismatch, doc.Path, len(v), dim)
			}
			vectors = append(vectors, v)
		}
	}
	if len(vectors) == 0 {
		return result, errors.New("nothing to append")
	}

	if err := os.MkdirAll(filepath.Dir(chunkPath), 0o755); err != nil {
		return result, fmt.Errorf("failed to create chunk directory: %w", err)
	}
	db, err := bbolt.Open(chunkPath, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return result, fmt.Errorf("failed to open chunk file: %w", err)
	}
	defer db.Close()

	var existing int
	var meta Meta
	err = db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketChunks); b != nil {
			existing = b.Stats().KeyN
		}
		meta = readMeta(tx)
		return nil
	})
	if err != nil {
		return result, err
	}
	if meta.EmbeddingModel != "" && meta.EmbeddingModel != model {
		return result, fmt.Errorf("%w: store uses %q, got %q", ErrModelMismatch, meta.EmbeddingModel, model)
	}

	var rows [][]float32
	old, err := ReadIndex(indexPath)
	switch {
	case err == nil:
		if old.Dim() != dim {
			return result, fmt.Errorf("%w: index dim=%d, new vectors dim=%d", ErrDimensionMismatch, old.Dim(), dim)
		}
		if old.Len() != existing {
			return result, fmt.Errorf("%w: %d index rows, %d chunks", ErrInconsistentStore, old.Len(), existing)
		}
		for i := 0; i < old.Len(); i++ {
			rows = append(rows, old.Row(i))
		}
	case errors.Is(err, os.ErrNotExist):
		if existing > 0 {
			return result, fmt.Errorf("%w: %d chunks but no index file", ErrInconsistentStore, existing)
		}
	default:
		return result, err
	}

	ix, err := NewFlatIndex(dim, append(rows, vectors...))
	if err != nil {
		return result, err
	}
	tmp, err := writeIndexTemp(indexPath, ix)
	if err != nil {
		return result, err
	}

	now := time.Now().UTC()
	pos := existing
	err = db.Update(func(tx *bbolt.Tx) error {
		chunks, err := tx.CreateBucketIfNotExists(bucketChunks)
		if err != nil {
			return err
		}
		documents, err := tx.CreateBucketIfNotExists(bucketDocuments)
		if err != nil {
			return err
		}
		metaBucket, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}

		for _, doc := range docs {
			if len(doc.Chunks) == 0 {
				continue
			}
			record := Document{
				ID:         uuid.New().String(),
				Path:       doc.Path,
				ChunkStart: pos,
				ChunkCount: len(doc.Chunks),
				IngestedAt: now,
			}
			for _, text := range doc.Chunks {
				raw, err := models.EncodeChunk(models.FromRecord(models.Record{
					Text:       text,
					Source:     doc.Path,
					DocumentID: record.ID,
				}))
				if err != nil {
					return err
				}
				if err := chunks.Put(chunkKey(pos), raw); err != nil {
					return err
				}
				pos++
			}
			raw, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := documents.Put([]byte(record.ID), raw); err != nil {
				return err
			}
			result.Documents = append(result.Documents, record)
		}

		if err := metaBucket.Put(keyEmbeddingModel, []byte(model)); err != nil {
			return err
		}
		return metaBucket.Put(keyDim, []byte(strconv.Itoa(dim)))
	})
	if err != nil {
		_ = os.Remove(tmp)
		return AppendResult{}, fmt.Errorf("failed to store chunks: %w", err)
	}

	if err := os.Rename(tmp, indexPath); err != nil {
		_ = os.Remove(tmp)
		return AppendResult{}, fmt.Errorf("%w: chunks committed but index rename failed: %v", ErrInconsistentStore, err)
	}

	result.ChunksAdded = pos - existing
	result.TotalChunks = pos
	result.Dim = dim
	return result, nil
}
