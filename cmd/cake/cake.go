// Package cakecmder
package cakecmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/cake/cmd/cake/auth"
	chatcmder "github.com/papercomputeco/cake/cmd/cake/chat"
	configcmder "github.com/papercomputeco/cake/cmd/cake/config"
	evalcmder "github.com/papercomputeco/cake/cmd/cake/eval"
	factscmder "github.com/papercomputeco/cake/cmd/cake/facts"
	ingestcmder "github.com/papercomputeco/cake/cmd/cake/ingest"
	initcmder "github.com/papercomputeco/cake/cmd/cake/init"
	reindexcmder "github.com/papercomputeco/cake/cmd/cake/reindex"
	searchcmder "github.com/papercomputeco/cake/cmd/cake/search"
	servecmder "github.com/papercomputeco/cake/cmd/cake/serve"
	statuscmder "github.com/papercomputeco/cake/cmd/cake/status"
	versioncmder "github.com/papercomputeco/cake/cmd/cake/version"
)

const cakeLongDesc string = `Cake turns transcripts and conversations into a searchable store of
subject-predicate-object facts, and answers questions grounded in them.

Build and use a knowledge base:
  cake ingest talk.json     Extract facts from a transcript
  cake chat                 Chat with retrieval over the stored facts
  cake search "<query>"     Find the facts nearest to a query
  cake eval                 Score answers with and without the knowledge base
  cake serve                Run the HTTP API (and MCP server)`

const cakeShortDesc string = "Cake - Knowledge Extraction and Retrieval"

func NewCakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cake",
		Short:        cakeShortDesc,
		Long:         cakeLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .cake/ directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(factscmder.NewFactsCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(reindexcmder.NewReindexCmd())
	cmd.AddCommand(evalcmder.NewEvalCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
