// Package searchcmder provides the search command for semantic search over
// stored facts.
package searchcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/cake/api"
	"github.com/papercomputeco/cake/cmd/cake/cmdutil"
	"github.com/papercomputeco/cake/pkg/cliui"
	"github.com/papercomputeco/cake/pkg/config"
	"github.com/papercomputeco/cake/pkg/knowledgebase"
)

var (
	rankStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type searchCommander struct {
	query    string
	remote   bool
	jsonMode bool

	logger *slog.Logger
}

const searchLongDesc string = `Search the knowledge base for the facts nearest to a query.

The query is embedded and compared against the indexed facts by L2
distance; smaller distances are closer matches.

With --remote, the search runs on a running "cake serve".

Examples:
  cake search "what does the speaker own"
  cake search "boiling point" --top 10
  cake search "boiling point" --json
  cake search "boiling point" --remote --api-target http://localhost:8081`

const searchShortDesc string = "Search stored facts"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			cmder.logger = cmdutil.NewLogger(cmd)
			return cmder.run(cmd)
		},
	}

	cmdutil.AddFlags(cmd, config.KnowledgeFlags)
	config.AddUintFlag(cmd, config.ChatFlags, config.FlagTopK, new(uint))
	config.AddStringFlag(cmd, config.ServerFlags, config.FlagAPITarget, new(string))
	cmd.Flags().BoolVar(&cmder.remote, "remote", false, "Search through a running cake API server")
	cmd.Flags().BoolVar(&cmder.jsonMode, "json", false, "Print results as JSON")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := cmdutil.LoadConfig(cmd, config.KnowledgeFlags, config.ChatFlags, config.ServerFlags)
	if err != nil {
		return err
	}
	topK := int(cfg.Chat.TopK)

	var matches []knowledgebase.Match
	if c.remote {
		resp, err := api.NewClient(cfg.Client.APITarget, nil).Search(ctx, c.query, topK)
		if err != nil {
			return err
		}
		matches = resp.Results
	} else {
		eng, err := cmdutil.OpenEngine(ctx, cmd, c.logger, false, config.KnowledgeFlags, config.ChatFlags)
		if err != nil {
			return err
		}
		defer eng.Close()

		matches, err = eng.Base.Matches(ctx, c.query, topK)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if c.jsonMode {
		return printJSON(out, c.query, matches)
	}
	printMatches(out, c.query, matches)
	return nil
}

func printJSON(w io.Writer, query string, matches []knowledgebase.Match) error {
	if matches == nil {
		matches = []knowledgebase.Match{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.SearchResponse{Query: query, Results: matches, Count: len(matches)})
}

func printMatches(w io.Writer, query string, matches []knowledgebase.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Search Results for:"),
		cliui.KeyStyle.Render(fmt.Sprintf("%q", query)),
	)

	for i, m := range matches {
		fmt.Fprintf(w, "%s %s %s\n",
			rankStyle.Render(fmt.Sprintf("[%d]", i+1)),
			cliui.FactLine(m.Fact),
			scoreStyle.Render(fmt.Sprintf("distance %.4f", m.Distance)),
		)
	}
	fmt.Fprintln(w)
}
