// ABOUTME: CLI command to ask a question about the ingested documents
// ABOUTME: Prints the answer styled for the terminal, or as JSON
package commands

import (
	"fmt"
	"strings"

	"github.com/mawell/doc-assistant/internal/core"
	"github.com/spf13/cobra"
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the documents",
		Long: `Ask a question about the ingested documents.

Retrieves relevant chunks, then answers through the completion model.
When the model is unreachable or its answer is rejected, a template
answer is built from the retrieved text instead. Off-topic questions
are declined.

Examples:
  assistant ask "¿Qué bombas ofrece Mawell?"
  assistant ask --format json ¿Cada cuánto se hace el mantenimiento?`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	assistant, err := core.Bootstrap(cfg, log, nil)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	answer := assistant.Answer(cmd.Context(), question)

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), answer)
	}

	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintln(out, titleStyle.Render(question))
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, bodyStyle.Render(answer.Answer))
	if !quiet {
		footer := fmt.Sprintf("outcome: %s", answer.Outcome)
		if len(answer.SourceIDs) > 0 {
			ids := make([]string, 0, len(answer.SourceIDs))
			for _, id := range answer.SourceIDs {
				ids = append(ids, fmt.Sprint(id))
			}
			footer += "  sources: " + strings.Join(ids, ", ")
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, mutedStyle.Render(footer))
	}
	return nil
}
