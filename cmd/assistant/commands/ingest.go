// ABOUTME: CLI command to build or extend the chunk store
// ABOUTME: Chunks text files, embeds them and appends to index and chunk files
package commands

import (
	"errors"
	"fmt"

	"github.com/mawell/doc-assistant/internal/core"
	"github.com/spf13/cobra"
)

var (
	ingestConcurrency int
	ingestBatchSize   int
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Add documents to the chunk store",
		Long: `Read plain-text documents, split them into chunks of at most 500
characters, embed every chunk and append them to the index and chunk files
(VECTOR_DB_INDEX and VECTOR_DB_DOCS).

Directories are walked recursively. Files that are not text (PDF, images)
are skipped and reported. Text that is not UTF-8 is read as Windows-1252.

Examples:
  assistant ingest docs/
  assistant ingest --concurrency 8 catalogo.txt servicios.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "Parallel embedding requests (default INGEST_CONCURRENCY)")
	cmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "Chunks per embedding request (default INGEST_BATCH_SIZE)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	if !cfg.EmbeddingEnabled() {
		return errors.New("ingestion needs the embedding endpoint; unset FALLBACK_MODE and set EMBEDDING_API_URL")
	}
	if cmd.Flags().Changed("concurrency") {
		if err := validatePositiveInt(ingestConcurrency, "concurrency"); err != nil {
			return err
		}
		cfg.IngestConcurrency = ingestConcurrency
	}
	if cmd.Flags().Changed("batch-size") {
		if err := validatePositiveInt(ingestBatchSize, "batch-size"); err != nil {
			return err
		}
		cfg.IngestBatchSize = ingestBatchSize
	}

	embedder, err := core.EmbeddingClientFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedding client: %w", err)
	}

	ingestor := core.NewIngestor(embedder, cfg.IndexPath, cfg.ChunkPath, core.IngestOptions{
		Concurrency: cfg.IngestConcurrency,
		BatchSize:   cfg.IngestBatchSize,
	}, log)

	report, err := ingestor.Ingest(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("ingesting: %w", err)
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ingested %d document(s), %d chunk(s) added, %d total (dim %d)\n",
		len(report.Result.Documents), report.Result.ChunksAdded, report.Result.TotalChunks, report.Result.Dim)
	if !quiet {
		for _, s := range report.Skipped {
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("skipped %s: %s", s.Path, s.Reason)))
		}
	}
	return nil
}
