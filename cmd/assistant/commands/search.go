// ABOUTME: CLI command to inspect retrieval results
// ABOUTME: Shows strategy, scores and chunk previews without composing an answer
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mawell/doc-assistant/internal/core"
	"github.com/mawell/doc-assistant/internal/models"
	"github.com/spf13/cobra"
)

var (
	searchTopK int
)

type searchHit struct {
	ID     int     `json:"id"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
	Text   string  `json:"text"`
}

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the chunks retrieval finds for a query",
		Long: `Run retrieval only and list the chunks that would be used as context.

Vector scores are squared L2 distances (lower is closer); lexical scores
are keyword points (higher is better).

Examples:
  assistant search "filtros de arena"
  assistant search --top-k 8 mantenimiento preventivo
  assistant search --format json "ósmosis inversa"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchTopK, "top-k", 4, "Maximum chunks to return")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchTopK, "top-k"); err != nil {
		return err
	}

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	assistant, err := core.Bootstrap(cfg, log, nil)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	result := assistant.Search(cmd.Context(), query, searchTopK)

	hits := make([]searchHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, searchHit{ID: h.ID, Score: h.Score, Source: models.SourceOf(h.Chunk), Text: h.Chunk.Text()})
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"query":    query,
			"strategy": result.Strategy,
			"hits":     hits,
		})
	}

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		if !quiet {
			fmt.Fprintf(out, "No relevant chunks for query: %s (strategy: %s)\n", query, result.Strategy)
		}
		return nil
	}

	if !quiet {
		fmt.Fprintln(out, mutedStyle.Render("strategy: "+string(result.Strategy)))
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tSCORE\tSOURCE\tPREVIEW\n")
	fmt.Fprintf(w, "--\t-----\t------\t-------\n")
	for _, h := range hits {
		source := h.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "%d\t%.3f\t%s\t%s\n", h.ID, h.Score, truncate(source, 30), truncate(h.Text, 60))
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(out, "\nFound %d chunk(s)\n", len(hits))
	}
	return nil
}
