// Package statuscmder provides the status command for inspecting the
// knowledge base.
package statuscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/cmd/cake/cmdutil"
	"github.com/papercomputeco/cake/pkg/cliui"
	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/knowledgebase"
)

const statusLongDesc string = `Show where the knowledge base lives and whether its vector index is in
sync with the fact store.

When the index is behind the store (for example after an interrupted
ingest), run "cake reindex".

Examples:
  cake status`

const statusShortDesc string = "Show knowledge base status"

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := cmdutil.OpenEngine(ctx, cmd, cmdutil.NewLogger(cmd), false, config.KnowledgeFlags)
			if err != nil {
				return err
			}
			defer eng.Close()

			stats, err := eng.Base.Stats(ctx)
			if err != nil {
				return err
			}

			printStatus(cmd.OutOrStdout(), eng.Config, eng.Paths, stats)
			return nil
		},
	}

	cmdutil.AddFlags(cmd, config.KnowledgeFlags)

	return cmd
}

func printStatus(w io.Writer, cfg *config.Config, paths *config.Paths, stats knowledgebase.Stats) {
	fmt.Fprintf(w, "\n  %s\n\n", cliui.HeaderStyle.Render("Knowledge base"))
	fmt.Fprintln(w, cliui.KeyValue("Directory", paths.Dir))
	fmt.Fprintln(w, cliui.KeyValue("Facts", fmt.Sprintf("%d", stats.Facts)))
	fmt.Fprintln(w, cliui.KeyValue("Indexed", fmt.Sprintf("%d", stats.Indexed)))

	if stats.InSync {
		fmt.Fprintf(w, "  %s %s\n", cliui.SuccessMark, cliui.DimStyle.Render("index in sync"))
	} else {
		fmt.Fprintf(w, "  %s %s\n", cliui.FailMark, cliui.DimStyle.Render("index out of sync: run 'cake reindex'"))
	}

	fmt.Fprintf(w, "\n  %s\n\n", cliui.HeaderStyle.Render("Providers"))
	fmt.Fprintln(w, cliui.KeyValue("Model", cfg.LLM.Provider+" / "+cfg.LLM.Model))
	fmt.Fprintln(w, cliui.KeyValue("Embeddings", cfg.Embedding.Provider+" / "+cfg.Embedding.Model))
	fmt.Fprintln(w, cliui.KeyValue("Vector store", cfg.VectorStore.Provider))
	fmt.Fprintln(w, cliui.KeyValue("Events", cfg.Events.Provider))
	fmt.Fprintln(w)
}
