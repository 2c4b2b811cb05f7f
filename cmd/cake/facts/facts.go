// Package factscmder provides the facts command for listing the knowledge
// base.
package factscmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/cmd/cake/cmdutil"
	"github.com/papercomputeco/cake/pkg/cliui"
	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/knowledge"
)

const factsLongDesc string = `List every stored fact in insertion order.

Each line shows the fact id, the subject-predicate-object triple and where
it came from: the source time range for transcript facts, or the time it
was added for facts learned in chat.

Examples:
  cake facts
  cake facts --json`

const factsShortDesc string = "List stored facts"

func NewFactsCmd() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "facts",
		Short: factsShortDesc,
		Long:  factsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := cmdutil.OpenEngine(ctx, cmd, cmdutil.NewLogger(cmd), false, config.KnowledgeFlags)
			if err != nil {
				return err
			}
			defer eng.Close()

			facts, err := eng.Base.Facts(ctx)
			if err != nil {
				return err
			}

			if jsonMode {
				return printJSON(cmd.OutOrStdout(), facts)
			}
			printFacts(cmd.OutOrStdout(), facts)
			return nil
		},
	}

	cmdutil.AddFlags(cmd, config.KnowledgeFlags)
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print facts as JSON")

	return cmd
}

func printJSON(w io.Writer, facts []knowledge.Fact) error {
	if facts == nil {
		facts = []knowledge.Fact{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(facts)
}

func printFacts(w io.Writer, facts []knowledge.Fact) {
	if len(facts) == 0 {
		fmt.Fprintln(w, "No facts stored yet. Run 'cake ingest' or 'cake chat' to add some.")
		return
	}

	for _, f := range facts {
		fmt.Fprintln(w, cliui.FactLine(f))
	}
	fmt.Fprintf(w, "\n%s\n", cliui.DimStyle.Render(fmt.Sprintf("%d facts", len(facts))))
}
