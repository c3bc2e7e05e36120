// ABOUTME: CLI command to describe the loaded chunk store
// ABOUTME: Shows chunk and index counts, documents and the active pipeline
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mawell/doc-assistant/internal/core"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show chunk store and pipeline status",
		Long: `Show what the assistant loads at startup: chunk count, vector index
shape, embedding model, ingested documents and which retrieval and
answer stages are active.

Examples:
  assistant stats
  assistant stats --format json`,
		Args: cobra.NoArgs,
		RunE: runStats,
	}

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	assistant, err := core.Bootstrap(cfg, log, nil)
	if err != nil {
		return err
	}

	stats := assistant.Stats()
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), stats)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Chunk store"))
	fmt.Fprintf(out, "  chunks:          %d\n", stats.Chunks)
	fmt.Fprintf(out, "  index rows:      %d\n", stats.IndexRows)
	fmt.Fprintf(out, "  index dim:       %d\n", stats.IndexDim)
	model := stats.EmbeddingModel
	if model == "" {
		model = "-"
	}
	fmt.Fprintf(out, "  embedding model: %s\n", model)
	if stats.Chunks > 0 && !stats.ChunksReadable {
		fmt.Fprintln(out, warnStyle.Render("  some chunks are unreadable"))
	}
	if stats.IndexRows != stats.Chunks {
		fmt.Fprintln(out, warnStyle.Render("  index rows and chunk count differ; vector retrieval will be skipped"))
	}

	retrieval := make([]string, 0, len(stats.Retrieval))
	for _, s := range stats.Retrieval {
		retrieval = append(retrieval, string(s))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Pipeline"))
	fmt.Fprintf(out, "  retrieval:   %s\n", strings.Join(retrieval, " → "))
	fmt.Fprintf(out, "  composition: %s\n", strings.Join(stats.Composition, " → "))

	if len(stats.Documents) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "DOCUMENT\tCHUNKS\tFIRST\tINGESTED\n")
		fmt.Fprintf(w, "--------\t------\t-----\t--------\n")
		for _, d := range stats.Documents {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", d.Path, d.ChunkCount, d.ChunkStart, d.IngestedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
	}
	return nil
}
