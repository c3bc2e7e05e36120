// ABOUTME: Chunk file backed by bbolt: ordered chunks, document records, metadata
// ABOUTME: Loaded once into memory; corrupted entries are tracked, not hidden
package chunkstore

import (
	"cmp"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/mawell/doc-assistant/internal/models"
	"go.etcd.io/bbolt"
)

var (
	bucketChunks    = []byte("chunks")
	bucketDocuments = []byte("documents")
	bucketMeta      = []byte("meta")

	keyEmbeddingModel = []byte("embedding_model")
	keyDim            = []byte("dim")
)

var (
	// ErrCorruptChunks is returned when the chunk file layout is broken
	ErrCorruptChunks = errors.New("corrupt chunk file")

	// ErrUnreadableChunk is returned for a chunk whose stored value cannot be decoded
	ErrUnreadableChunk = errors.New("unreadable chunk")
)

const openTimeout = 5 * time.Second

// Document records one ingested source file and the chunk range it produced
type Document struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	ChunkStart int       `json:"chunk_start"`
	ChunkCount int       `json:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Meta describes how the store's vectors were produced
type Meta struct {
	EmbeddingModel string `json:"embedding_model"`
	Dim            int    `json:"dim"`
}

// ChunkList is the ordered chunk sequence held in memory
type ChunkList struct {
	chunks []models.Chunk
	broken map[int]error
}

// NewChunkList wraps already-decoded chunks
func NewChunkList(chunks []models.Chunk) *ChunkList {
	return &ChunkList{chunks: chunks}
}

// Len returns the number of chunk positions, readable or not
func (l *ChunkList) Len() int {
	return len(l.chunks)
}

// Get returns the chunk at position i
func (l *ChunkList) Get(i int) (models.Chunk, error) {
	if i < 0 || i >= len(l.chunks) {
		return nil, fmt.Errorf("chunk %d out of range [0,%d)", i, len(l.chunks))
	}
	if err := l.broken[i]; err != nil {
		return nil, err
	}
	return l.chunks[i], nil
}

// All returns every chunk, or an error when any stored entry is unreadable
func (l *ChunkList) All() ([]models.Chunk, error) {
	if len(l.broken) > 0 {
		return nil, fmt.Errorf("%w: %d of %d entries", ErrUnreadableChunk, len(l.broken), len(l.chunks))
	}
	return l.chunks, nil
}

// Head returns the first n chunks if all of them are readable
func (l *ChunkList) Head(n int) ([]models.Chunk, error) {
	if n > len(l.chunks) {
		return nil, fmt.Errorf("only %d chunks stored, need %d", len(l.chunks), n)
	}
	for i := 0; i < n; i++ {
		if err := l.broken[i]; err != nil {
			return nil, err
		}
	}
	return l.chunks[:n], nil
}

// ChunkFile is the loaded content of a chunk file
type ChunkFile struct {
	Chunks    *ChunkList
	Meta      Meta
	Documents []Document
}

// LoadChunkFile opens path read-only and loads everything into memory
func LoadChunkFile(path string) (*ChunkFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("chunk file: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk file: %w", err)
	}
	defer db.Close()

	cf := &ChunkFile{Chunks: &ChunkList{}}
	err = db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketChunks); b != nil {
			if err := loadChunks(b, cf.Chunks); err != nil {
				return err
			}
		}
		if b := tx.Bucket(bucketDocuments); b != nil {
			err := b.ForEach(func(_, v []byte) error {
				var doc Document
				if err := json.Unmarshal(v, &doc); err != nil {
					return fmt.Errorf("%w: document record: %v", ErrCorruptChunks, err)
				}
				cf.Documents = append(cf.Documents, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		cf.Meta = readMeta(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortDocuments(cf.Documents)
	return cf, nil
}

func loadChunks(b *bbolt.Bucket, list *ChunkList) error {
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if len(k) != 8 {
			return fmt.Errorf("%w: key of %d bytes", ErrCorruptChunks, len(k))
		}
		pos := int(binary.BigEndian.Uint64(k))
		if pos != len(list.chunks) {
			return fmt.Errorf("%w: expected chunk %d, found %d", ErrCorruptChunks, len(list.chunks), pos)
		}
		chunk, err := models.DecodeChunk(v)
		if err != nil {
			if list.broken == nil {
				list.broken = make(map[int]error)
			}
			list.broken[pos] = fmt.Errorf("%w %d: %v", ErrUnreadableChunk, pos, err)
		}
		list.chunks = append(list.chunks, chunk)
	}
	return nil
}

func readMeta(tx *bbolt.Tx) Meta {
	var meta Meta
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return meta
	}
	meta.EmbeddingModel = string(b.Get(keyEmbeddingModel))
	if raw := b.Get(keyDim); raw != nil {
		if d, err := strconv.Atoi(string(raw)); err == nil {
			meta.Dim = d
		}
	}
	return meta
}

func chunkKey(pos int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(pos))
	return key
}

func sortDocuments(docs []Document) {
	slices.SortFunc(docs, func(a, b Document) int {
		return cmp.Compare(a.ChunkStart, b.ChunkStart)
	})
}
