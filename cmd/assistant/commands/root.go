// ABOUTME: Root command and global flags for the assistant CLI
// ABOUTME: Wires every subcommand and validates the output format
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
 ███╗   ███╗ █████╗ ██╗    ██╗███████╗██╗     ██╗
 ████╗ ████║██╔══██╗██║    ██║██╔════╝██║     ██║
 ██╔████╔██║███████║██║ █╗ ██║█████╗  ██║     ██║
 ██║╚██╔╝██║██╔══██║██║███╗██║██╔══╝  ██║     ██║
 ██║ ╚═╝ ██║██║  ██║╚███╔███╔╝███████╗███████╗███████╗
 ╚═╝     ╚═╝╚═╝  ╚═╝ ╚══╝╚══╝ ╚══════╝╚══════╝╚══════╝
`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Question answering over Mawell documents",
		Long: banner + `
Document assistant for Mawell water-treatment material.

Answers questions from ingested documents: vector retrieval through the
embedding endpoint, lexical retrieval when that is unavailable, and a
completion model with an offline template fallback.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "text", "json":
				return nil
			default:
				return fmt.Errorf("invalid --format %q (want auto, text or json)", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewAskCmd(),
		NewSearchCmd(),
		NewIngestCmd(),
		NewStatsCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
