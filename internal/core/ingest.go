// ABOUTME: Ingestor reads text documents, chunks and embeds them
// ABOUTME: and appends the result to the index and chunk files
package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mawell/doc-assistant/internal/chunkstore"
	"github.com/mawell/doc-assistant/internal/logger"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/transform"
)

// ErrNothingToIngest is returned when no input file produced a chunk
var ErrNothingToIngest = errors.New("no ingestible documents")

// BatchEmbedder embeds many texts in one call, in input order
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// IngestOptions controls chunking and embedding parallelism
type IngestOptions struct {
	MaxChunkChars int
	Concurrency   int
	BatchSize     int
}

// SkippedFile is an input that was not ingested
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IngestReport summarizes one ingestion run
type IngestReport struct {
	Files   []string                `json:"files"`
	Skipped []SkippedFile           `json:"skipped,omitempty"`
	Result  chunkstore.AppendResult `json:"result"`
}

// Ingestor builds and extends the chunk store
type Ingestor struct {
	embedder    BatchEmbedder
	engine      *ChunkEngine
	indexPath   string
	chunkPath   string
	concurrency int
	batchSize   int
	log         logger.Logger
}

// NewIngestor creates an Ingestor writing to indexPath and chunkPath
func NewIngestor(embedder BatchEmbedder, indexPath, chunkPath string, opts IngestOptions, log logger.Logger) *Ingestor {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	return &Ingestor{
		embedder:    embedder,
		engine:      NewChunkEngine(opts.MaxChunkChars),
		indexPath:   indexPath,
		chunkPath:   chunkPath,
		concurrency: opts.Concurrency,
		batchSize:   opts.BatchSize,
		log:         log,
	}
}

// Ingest reads every file under paths, skipping non-text inputs, and
// appends all resulting chunks in a single store update
func (in *Ingestor) Ingest(ctx context.Context, paths []string) (IngestReport, error) {
	var report IngestReport

	files, err := collectFiles(paths)
	if err != nil {
		return report, err
	}

	var docs []chunkstore.NewDocument
	for _, path := range files {
		text, reason, err := readText(path)
		if err != nil {
			return report, err
		}
		if reason != "" {
			in.log.Warn("skipping file", "path", path, "reason", reason)
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: reason})
			continue
		}

		chunks := in.engine.Split(text)
		if len(chunks) == 0 {
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: "empty"})
			continue
		}
		in.log.Debug("chunked file", "path", path, "chunks", len(chunks))
		docs = append(docs, chunkstore.NewDocument{Path: path, Chunks: chunks})
		report.Files = append(report.Files, path)
	}
	if len(docs) == 0 {
		return report, ErrNothingToIngest
	}

	if err := in.embed(ctx, docs); err != nil {
		return report, err
	}

	result, err := chunkstore.Append(in.indexPath, in.chunkPath, in.embedder.Model(), docs)
	if err != nil {
		return report, fmt.Errorf("failed to append to chunk store: %w", err)
	}
	report.Result = result
	in.log.Info("ingested documents",
		"documents", len(result.Documents),
		"chunks_added", result.ChunksAdded,
		"total_chunks", result.TotalChunks,
		"dim", result.Dim,
	)
	return report, nil
}

// embed fills docs[i].Vectors, running batches concurrently
func (in *Ingestor) embed(ctx context.Context, docs []chunkstore.NewDocument) error {
	var texts []string
	for _, d := range docs {
		texts = append(texts, d.Chunks...)
	}
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)
	for start := 0; start < len(texts); start += in.batchSize {
		end := min(start+in.batchSize, len(texts))
		g.Go(func() error {
			batch, err := in.embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	offset := 0
	for i := range docs {
		n := len(docs[i].Chunks)
		docs[i].Vectors = vectors[offset : offset+n]
		offset += n
	}
	return nil
}

// collectFiles expands directories recursively, skipping hidden entries
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return files, nil
}

// readText returns the decoded text of path, or a skip reason for
// non-text content
func readText(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	mtype := mimetype.Detect(data)
	if !isText(mtype) {
		return "", "unsupported type " + mtype.String(), nil
	}

	text, err := decodeText(data, mtype.String())
	if err != nil {
		return "", "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return text, "", nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

// decodeText keeps UTF-8 and transcodes anything else, which for plain
// text without a declared charset means Windows-1252
func decodeText(data []byte, contentType string) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("transcode from %s: %w", name, err)
	}
	return string(decoded), nil
}
