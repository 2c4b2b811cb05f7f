// Package reindexcmder provides the reindex command, which brings the vector
// index back in line with the fact store.
package reindexcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/cmd/cake/cmdutil"
	"github.com/papercomputeco/cake/pkg/cliui"
	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/index"
)

const reindexLongDesc string = `Embed and index every stored fact that is missing from the vector index.

The fact store is the source of truth. Indexing runs after facts are
stored, so an interrupted ingest or an embedding outage can leave the index
behind; reindex closes the gap. Facts already indexed are left alone.

Examples:
  cake reindex`

const reindexShortDesc string = "Rebuild missing vector index entries"

func NewReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: reindexShortDesc,
		Long:  reindexLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			eng, err := cmdutil.OpenEngine(ctx, cmd, cmdutil.NewLogger(cmd), false, config.KnowledgeFlags)
			if err != nil {
				return err
			}
			defer eng.Close()

			var added int
			err = cliui.Step(out, "Reconciling vector index", func() error {
				var err error
				added, err = eng.Base.Reconcile(ctx)
				return err
			})
			if errors.Is(err, index.ErrNotPrefix) {
				target := eng.Config.VectorStore.Target
				if p := eng.Config.VectorStore.Provider; p == "" || p == "flat" {
					target = eng.Paths.Index
				}
				return fmt.Errorf("%w; clear the vector store at %s and run reindex again to rebuild it", err, target)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf("%d facts indexed", added)))
			return nil
		},
	}

	cmdutil.AddFlags(cmd, config.KnowledgeFlags)

	return cmd
}
